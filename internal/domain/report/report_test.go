package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_Since(t *testing.T) {
	now := time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		window Window
		want   time.Time
	}{
		{WindowDay, time.Date(2026, 3, 30, 15, 0, 0, 0, time.UTC)},
		{WindowWeek, time.Date(2026, 3, 24, 15, 0, 0, 0, time.UTC)},
		{WindowMonth, time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)}, // Feb 31 normalizes to Mar 3
		{WindowYear, time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Since(now))
		})
	}
}

func TestParseWindow(t *testing.T) {
	w, ok := ParseWindow(" Week ")
	assert.True(t, ok)
	assert.Equal(t, WindowWeek, w)

	_, ok = ParseWindow("fortnight")
	assert.False(t, ok)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)

	start, end := DayBounds(time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, "2026-05-09T00:00:00-06:00", start.Format(time.RFC3339))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestNewDailyBreakdown(t *testing.T) {
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	items := []ProductQuantity{
		{ProductID: uuid.New(), ProductName: "Case", UnitPrice: decimal.NewFromInt(50), Quantity: 3},
		{ProductID: uuid.New(), ProductName: "Cable", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 2},
	}

	b := NewDailyBreakdown(day, items)

	assert.Equal(t, "2026-05-10", b.Date)
	assert.True(t, b.Items[0].Revenue.Equal(decimal.NewFromInt(150)))
	assert.True(t, b.Total.Equal(decimal.RequireFromString("169.98")))
	assert.True(t, items[0].Revenue.IsZero(), "input slice is not modified")
}

func TestNewMonthlySales(t *testing.T) {
	month := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	totals := []SaleTotal{
		{CreatedAt: time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(30)},
		{CreatedAt: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(10)},
		{CreatedAt: time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(5)},
	}

	m := NewMonthlySales(month, totals, time.UTC)

	assert.Equal(t, "2026-02", m.Month)
	require.Len(t, m.Days, 2)
	assert.Equal(t, "2026-02-02", m.Days[0].Date)
	assert.Equal(t, "2026-02-14", m.Days[1].Date)
	assert.Equal(t, int64(2), m.Days[1].OrderCount)
	assert.True(t, m.Days[1].Total.Equal(decimal.NewFromInt(35)))
	assert.True(t, m.Total.Equal(decimal.NewFromInt(45)))
}
