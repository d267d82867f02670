package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, ok := ParseStatus(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}

	got, ok := ParseStatus(" in_progress ")
	assert.True(t, ok)
	assert.Equal(t, StatusInProgress, got)

	_, ok = ParseStatus("SHIPPED")
	assert.False(t, ok)
	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestAllStatuses_SixValues(t *testing.T) {
	assert.Len(t, AllStatuses, 6)
}

func TestParseOrderType(t *testing.T) {
	tests := []struct {
		in     string
		want   OrderType
		ok     bool
		lines  bool
		repair bool
	}{
		{"STANDARD_PRODUCT_SALE", OrderTypeStandardProductSale, true, true, false},
		{"service_repair", OrderTypeServiceRepair, true, false, true},
		{"MIXED", OrderTypeMixed, true, true, true},
		{"0", OrderType("0"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrderType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.lines, got.HasProductLines())
			assert.Equal(t, tt.repair, got.HasRepair())
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("card")
	assert.True(t, ok)
	assert.Equal(t, PaymentMethodCard, m)

	_, ok = ParsePaymentMethod("BITCOIN")
	assert.False(t, ok)
}
