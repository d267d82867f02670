package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/domain/report"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ReportService is the reporting surface used by ReportHandler
type ReportService interface {
	TopProducts(ctx context.Context, page int) (shared.Paginated[report.TopProduct], error)
	PeriodTotal(ctx context.Context, window string) (*report.PeriodTotal, error)
	DailyBreakdown(ctx context.Context, date time.Time) (*report.DailyBreakdown, error)
	MonthlySales(ctx context.Context, date time.Time) (*report.MonthlySales, error)
	ParseDate(value string) (time.Time, error)
}

// ReportHandler serves the read-only sales reports
type ReportHandler struct {
	BaseHandler
	reports ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: newBaseHandler(logger),
		reports:     reports,
	}
}

// Total handles GET /sales/total?from=day|week|month|year
func (h *ReportHandler) Total(c *gin.Context) {
	total, err := h.reports.PeriodTotal(c.Request.Context(), c.Query("from"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{
		"total":      total.Total,
		"orderCount": total.OrderCount,
		"window":     total.Window,
		"from":       total.From,
		"to":         total.To,
	})
}

// Daily handles GET /sales/daily?date=YYYY-MM-DD
func (h *ReportHandler) Daily(c *gin.Context) {
	date, err := h.reports.ParseDate(dateQuery(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	breakdown, err := h.reports.DailyBreakdown(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{
		"date":  breakdown.Date,
		"items": breakdown.Items,
		"total": breakdown.Total,
	})
}

// Monthly handles GET /sales/monthly?date=YYYY-MM-DD
func (h *ReportHandler) Monthly(c *gin.Context) {
	date, err := h.reports.ParseDate(dateQuery(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	monthly, err := h.reports.MonthlySales(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{
		"month": monthly.Month,
		"days":  monthly.Days,
		"total": monthly.Total,
	})
}

// dateQuery reads date, falling back to the older from parameter
func dateQuery(c *gin.Context) string {
	if v := c.Query("date"); v != "" {
		return v
	}
	return c.Query("from")
}
