package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"comercia/internal/core/types"
)

func money(s string) types.Money {
	m, _ := types.NewMoneyFromString(s)
	return m
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		paid   string
		credit string
		debit  string
		want   PaymentStatus
	}{
		{"no payments", "100", "0", "0", "0", PaymentPending},
		{"partial", "100", "40", "0", "0", PaymentPartial},
		{"fully paid", "100", "100", "0", "0", PaymentPaid},
		{"overpaid stays paid", "100", "120", "0", "0", PaymentPaid},
		{"credit lowers payable", "100", "60", "40", "0", PaymentPaid},
		{"credit covers everything", "100", "0", "100", "0", PaymentPaid},
		{"debit raises payable", "100", "100", "0", "20", PaymentPartial},
		{"zero total unpaid", "0", "0", "0", "0", PaymentPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePaymentStatus(money(tt.total), money(tt.paid), money(tt.credit), money(tt.debit))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutstandingBalance(t *testing.T) {
	t.Run("open balance", func(t *testing.T) {
		got := OutstandingBalance(money("100"), money("30"), money("10"), money("5"))
		assert.True(t, got.Equal(money("65")))
	})

	t.Run("floored at zero on overpayment", func(t *testing.T) {
		got := OutstandingBalance(money("100"), money("150"), money("0"), money("0"))
		assert.True(t, got.IsZero())
	})
}
