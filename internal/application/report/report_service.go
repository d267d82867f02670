package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopfront/backend/internal/domain/report"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReportService provides the read-only sales reports
type ReportService struct {
	salesRepo    report.SalesReportRepository
	now          func() time.Time
	location     *time.Location
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewReportService creates a new ReportService. Day and month boundaries
// are taken in UTC until SetLocation is called.
func NewReportService(salesRepo report.SalesReportRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		salesRepo: salesRepo,
		now:       time.Now,
		location:  time.UTC,
		logger:    logger,
	}
}

// SetClock replaces the time source that windows are measured from
func (s *ReportService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetLocation sets the zone used for day and month boundaries
func (s *ReportService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// SetQueryTimeout bounds every store interaction; zero disables the bound
func (s *ReportService) SetQueryTimeout(timeout time.Duration) {
	s.queryTimeout = timeout
}

// TopProducts ranks products by the number of sale lines that reference them.
// Ties are broken by product id. Pages are 1-based.
func (s *ReportService) TopProducts(ctx context.Context, page int) (shared.Paginated[report.TopProduct], error) {
	if page < 1 {
		page = 1
	}
	pageSize := shared.DefaultPageSize

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, total, err := s.salesRepo.TopProducts(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return shared.Paginated[report.TopProduct]{}, shared.WrapPersistence(fmt.Errorf("top products: %w", err))
	}
	if items == nil {
		items = []report.TopProduct{}
	}
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// PeriodTotal sums sale totals created in [now - window, now)
func (s *ReportService) PeriodTotal(ctx context.Context, window string) (*report.PeriodTotal, error) {
	w, ok := report.ParseWindow(window)
	if !ok {
		return nil, shared.NewValidationError("from must be one of day, week, month, year")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "report", "period_total", telemetry.SpanAttrWindow, string(w))
	defer span.End()

	now := s.now()
	from := w.Since(now)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	total, count, err := s.salesRepo.SumTotals(ctx, from, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.WrapPersistence(fmt.Errorf("sum sale totals: %w", err))
	}

	return &report.PeriodTotal{
		Window:     w,
		From:       from,
		To:         now,
		Total:      total,
		OrderCount: count,
	}, nil
}

// DailyBreakdown lists quantities and revenue per product and captured price
// for the calendar day containing date
func (s *ReportService) DailyBreakdown(ctx context.Context, date time.Time) (*report.DailyBreakdown, error) {
	start, end := report.DayBounds(date, s.location)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.salesRepo.ProductQuantities(ctx, start, end)
	if err != nil {
		return nil, shared.WrapPersistence(fmt.Errorf("daily product quantities: %w", err))
	}

	breakdown := report.NewDailyBreakdown(start, items)
	return &breakdown, nil
}

// MonthlySales sums sale totals per day for the calendar month containing date
func (s *ReportService) MonthlySales(ctx context.Context, date time.Time) (*report.MonthlySales, error) {
	start, end := report.MonthBounds(date, s.location)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	totals, err := s.salesRepo.SaleTotals(ctx, start, end)
	if err != nil {
		return nil, shared.WrapPersistence(fmt.Errorf("monthly sale totals: %w", err))
	}

	s.logger.Debug("Monthly sales computed",
		zap.String("month", start.Format("2006-01")),
		zap.Int("sales", len(totals)),
	)

	monthly := report.NewMonthlySales(start, totals, s.location)
	return &monthly, nil
}

// ParseDate parses a YYYY-MM-DD date in the report location
func (s *ReportService) ParseDate(value string) (time.Time, error) {
	if value == "" {
		return s.now().In(s.location), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, s.location)
	if err != nil {
		return time.Time{}, shared.NewValidationError("date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

func (s *ReportService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}
