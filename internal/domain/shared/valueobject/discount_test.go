package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscount(t *testing.T) {
	tests := []struct {
		name    string
		percent string
		wantErr bool
	}{
		{"zero", "0", false},
		{"typical", "15.5", false},
		{"just under hundred", "99.99", false},
		{"hundred", "100", true},
		{"negative", "-1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDiscount(decimal.RequireFromString(tt.percent))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDiscount_ApplyTo(t *testing.T) {
	d, err := NewDiscount(decimal.NewFromInt(10))
	require.NoError(t, err)

	got := d.ApplyTo(decimal.NewFromInt(100))

	assert.True(t, got.Equal(decimal.NewFromInt(90)), "got %s", got)
}

func TestDiscountFromPtr_AbsentIsZero(t *testing.T) {
	d, err := DiscountFromPtr(nil)
	require.NoError(t, err)

	assert.True(t, d.IsZero())
	assert.True(t, d.ApplyTo(decimal.NewFromInt(42)).Equal(decimal.NewFromInt(42)))
}
