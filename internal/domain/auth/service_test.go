package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercia/internal/core/apperror"
	"comercia/internal/core/id"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	byID       map[id.ID]*User
	byUsername map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[id.ID]*User), byUsername: make(map[string]*User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *User) error {
	c := *u
	f.byID[u.ID] = &c
	f.byUsername[u.Username] = &c
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, apperror.NewNotFound("user", username)
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *User) error {
	c := *u
	f.byID[u.ID] = &c
	f.byUsername[u.Username] = &c
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter UserFilter) ([]User, int, error) {
	users := make([]User, 0, len(f.byID))
	for _, u := range f.byID {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (f *fakeUserRepo) Exists(ctx context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

type fakeTokenRepo struct {
	byHash map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: make(map[string]*RefreshToken)}
}

func (f *fakeTokenRepo) SaveRefreshToken(ctx context.Context, t *RefreshToken) error {
	f.byHash[t.TokenHash] = t
	return nil
}

func (f *fakeTokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := f.byHash[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	return t, nil
}

func (f *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	for _, t := range f.byHash {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	for _, t := range f.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (f *fakeTokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) {
	return 0, nil
}

func newTestService() (*Service, *fakeUserRepo, *fakeTokenRepo) {
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	svc := NewService(users, tokens, fakeTxManager{}, jwtSvc, DefaultServiceConfig())
	return svc, users, tokens
}

func register(t *testing.T, svc *Service, username, password string, role Role) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u := register(t, svc, "maria", "s3cret-pass", RoleAdmin)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	// duplicate username
	_, err := svc.Register(ctx, RegisterRequest{Username: "maria", Password: "s3cret-pass"})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)

	// short password
	_, err = svc.Register(ctx, RegisterRequest{Username: "jose", Password: "short"})
	assert.Error(t, err)

	// unknown role
	_, err = svc.Register(ctx, RegisterRequest{Username: "jose", Password: "s3cret-pass", Role: Role("root")})
	assert.Error(t, err)

	// empty role defaults to operator
	u2 := register(t, svc, "jose", "s3cret-pass", "")
	assert.Equal(t, RoleOperator, u2.Role)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "maria", "s3cret-pass", RoleOperator)

	tokens, logged, err := svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.RefreshToken)

	// The access token carries the user identity.
	uc, err := NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), uc.UserID)
	assert.Equal(t, "maria", uc.Username)
	assert.Equal(t, string(RoleOperator), uc.Role)

	_, _, err = svc.Login(ctx, Credentials{Username: "maria", Password: "wrong"})
	assert.Error(t, err)
	_, _, err = svc.Login(ctx, Credentials{Username: "nobody", Password: "s3cret-pass"})
	assert.Error(t, err)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "maria", "s3cret-pass", RoleOperator)

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(ctx, Credentials{Username: "maria", Password: "wrong"})
		require.Error(t, err)
	}

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked())

	// Even the right password is rejected while locked.
	_, _, err = svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestRefreshToken_Rotation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	register(t, svc, "maria", "s3cret-pass", RoleOperator)

	tokens, _, err := svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)

	// The old refresh token is revoked by the rotation.
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.Error(t, err)

	// The new one still works.
	_, err = svc.RefreshToken(ctx, fresh.RefreshToken)
	assert.NoError(t, err)

	_, err = svc.RefreshToken(ctx, "garbage")
	assert.Error(t, err)
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "maria", "s3cret-pass", RoleOperator)

	tokens, _, err := svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "maria", "s3cret-pass", RoleOperator)

	tokens, _, err := svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, "wrong", "new-password-1")
	assert.Error(t, err)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "s3cret-pass", "new-password-1"))

	// Old sessions are invalidated.
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.Error(t, err)

	_, _, err = svc.Login(ctx, Credentials{Username: "maria", Password: "new-password-1"})
	assert.NoError(t, err)
}

func TestSetActive(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "maria", "s3cret-pass", RoleOperator)

	require.NoError(t, svc.SetActive(ctx, u.ID, false))
	_, _, err := svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	require.Error(t, err)

	require.NoError(t, svc.SetActive(ctx, u.ID, true))
	_, _, err = svc.Login(ctx, Credentials{Username: "maria", Password: "s3cret-pass"})
	assert.NoError(t, err)
}
