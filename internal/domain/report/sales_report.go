package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopProduct is one entry of the best sellers ranking
type TopProduct struct {
	Rank        int       `json:"rank"`
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Count       int64     `json:"count"` // number of sale lines referencing the product
}

// PeriodTotal is the sum of sale totals inside a window
type PeriodTotal struct {
	Window     Window          `json:"window"`
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Total      decimal.Decimal `json:"total"`
	OrderCount int64           `json:"orderCount"`
}

// ProductQuantity is the quantity sold for one product at one captured price
type ProductQuantity struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// DailyBreakdown lists what was sold on one calendar day.
// Revenue is recomputed as unit price × quantity and ignores discounts, so it
// can differ from the sum of stored sale totals.
type DailyBreakdown struct {
	Date  string            `json:"date"`
	Items []ProductQuantity `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

// SaleTotal is the creation time and total of one sale
type SaleTotal struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

// DaySales is the sum of sale totals for one day
type DaySales struct {
	Date       string          `json:"date"`
	Total      decimal.Decimal `json:"total"`
	OrderCount int64           `json:"orderCount"`
}

// MonthlySales lists per-day totals for one calendar month
type MonthlySales struct {
	Month string          `json:"month"`
	Days  []DaySales      `json:"days"`
	Total decimal.Decimal `json:"total"`
}

// SalesReportRepository defines the read-only queries behind the reports
type SalesReportRepository interface {
	// TopProducts returns products ordered by how many sale lines reference them,
	// and the number of distinct products sold
	TopProducts(ctx context.Context, offset, limit int) ([]TopProduct, int64, error)

	// SumTotals sums sale totals with from <= created_at < to
	SumTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)

	// ProductQuantities groups sale lines with from <= created_at < to by
	// product and captured price, summing quantities. Revenue is left zero.
	ProductQuantities(ctx context.Context, from, to time.Time) ([]ProductQuantity, error)

	// SaleTotals lists creation time and total of sales with from <= created_at < to
	SaleTotals(ctx context.Context, from, to time.Time) ([]SaleTotal, error)
}

// NewDailyBreakdown fills in per-group revenue and the overall total
func NewDailyBreakdown(day time.Time, items []ProductQuantity) DailyBreakdown {
	total := decimal.Zero
	out := make([]ProductQuantity, len(items))
	for i, it := range items {
		it.Revenue = it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
		total = total.Add(it.Revenue)
		out[i] = it
	}
	return DailyBreakdown{
		Date:  day.Format(time.DateOnly),
		Items: out,
		Total: total,
	}
}

// NewMonthlySales folds sale totals into per-day sums, ordered by day
func NewMonthlySales(month time.Time, totals []SaleTotal, loc *time.Location) MonthlySales {
	byDay := make(map[string]*DaySales)
	total := decimal.Zero
	for _, st := range totals {
		key := st.CreatedAt.In(loc).Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &DaySales{Date: key, Total: decimal.Zero}
			byDay[key] = d
		}
		d.Total = d.Total.Add(st.Total)
		d.OrderCount++
		total = total.Add(st.Total)
	}

	days := make([]DaySales, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return MonthlySales{
		Month: month.In(loc).Format("2006-01"),
		Days:  days,
		Total: total,
	}
}
