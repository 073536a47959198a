package catalog_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "code", "name", "price"}, func() any { return nil })
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		in   string
		want string
	}{
		{"", "name ASC"},
		{"name", "name ASC"},
		{"+code", "code ASC"},
		{"-price", "price DESC"},
	}
	for _, tt := range tests {
		got, err := repo.parseOrderBy(tt.in)
		require.NoError(t, err, "orderBy %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	// Unknown columns are rejected, not interpolated.
	_, err := repo.parseOrderBy("price; DROP TABLE test_table")
	assert.Error(t, err)
	_, err = repo.parseOrderBy("-")
	assert.Error(t, err)
}

func TestBaseSelect_SQL(t *testing.T) {
	repo := newTestRepo()

	q := repo.baseSelect().
		Where(squirrel.Eq{"code": "SKU-1"}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, code, name, price FROM test_table WHERE code = $1 AND deletion_mark = $2 FOR UPDATE",
		sql)
	assert.Equal(t, []any{"SKU-1", false}, args)
}
