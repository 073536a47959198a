package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxRateSplit(t *testing.T) {
	tests := []struct {
		name        string
		rate        float64
		total       string
		wantSub     string
		wantTax     string
	}{
		{"default 18 percent", 0.18, "118.00", "100", "18"},
		{"uneven total", 0.18, "80.00", "67.8", "12.2"},
		{"zero total", 0.18, "0", "0", "0"},
		{"ten percent", 0.10, "110.00", "100", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := NewTaxRate(tt.rate)
			sub, tax := rate.Split(MustMoney(tt.total))

			assert.True(t, sub.Equal(MustMoney(tt.wantSub)), "subtotal: got %s", sub)
			assert.True(t, tax.Equal(MustMoney(tt.wantTax)), "tax: got %s", tax)
			assert.True(t, sub.Add(tax).Equal(Round2(MustMoney(tt.total))), "parts must sum to total")
		})
	}
}

func TestWeightedAverageCost(t *testing.T) {
	t.Run("blends existing and incoming lots", func(t *testing.T) {
		// 10 units @ 5.00 + 10 units @ 7.00 -> 6.00
		got := WeightedAverageCost(10, MustMoney("5.00"), 10, MustMoney("7.00"))
		assert.True(t, got.Equal(MustMoney("6")), "got %s", got)
	})

	t.Run("first reception takes incoming cost", func(t *testing.T) {
		got := WeightedAverageCost(0, Zero(), 4, MustMoney("2.500"))
		assert.True(t, got.Equal(MustMoney("2.5")), "got %s", got)
	})

	t.Run("rounds to three decimals", func(t *testing.T) {
		// (1*1 + 2*2) / 3 = 1.666...
		got := WeightedAverageCost(1, MustMoney("1"), 2, MustMoney("2"))
		assert.True(t, got.Equal(MustMoney("1.667")), "got %s", got)
	})

	t.Run("negative carried stock falls back to incoming cost", func(t *testing.T) {
		got := WeightedAverageCost(-5, MustMoney("9.00"), 5, MustMoney("3.00"))
		assert.True(t, got.Equal(MustMoney("3")), "got %s", got)
	})
}
