package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadinath/api/analytics"
	"aadinath/api/service"
	"aadinath/api/store"
	"aadinath/api/utils"
)

const defaultTrendDays = 30

// AnalyticsHandlers serves the admin analytics endpoints. Every response
// carries its payload under "data"; on a store failure the payload is the
// empty result and "error" is set.
type AnalyticsHandlers struct {
	svc *service.AnalyticsService
	loc *time.Location
	log *zap.SugaredLogger
}

func NewAnalyticsHandlers(svc *service.AnalyticsService, loc *time.Location, log *zap.SugaredLogger) *AnalyticsHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsHandlers{svc: svc, loc: loc, log: log}
}

// respond writes data, downgrading to 503 when the store was unavailable.
func respond(c *gin.Context, data any, err error, extra gin.H) {
	body := gin.H{"data": data}
	for k, v := range extra {
		body[k] = v
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, body)
	case errors.Is(err, service.ErrStoreUnavailable):
		body["error"] = "Analytics data is temporarily unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		body["error"] = err.Error()
		c.JSON(http.StatusInternalServerError, body)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *AnalyticsHandlers) dateRange(c *gin.Context) (service.DateRange, error) {
	start, end, err := utils.ParseDateRange(c.Query("start"), c.Query("end"), h.loc)
	if err != nil {
		return service.DateRange{}, err
	}
	return service.DateRange{Start: start, End: end}, nil
}

func trendMode(raw string) (analytics.TrendMode, error) {
	switch mode := analytics.TrendMode(raw); mode {
	case "":
		return analytics.TrendDaily, nil
	case analytics.TrendDaily, analytics.TrendEven:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid mode %q: want daily or even", raw)
	}
}

func (h *AnalyticsHandlers) GetMetrics(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.svc.Metrics(c.Request.Context(), r)
	respond(c, m, err, nil)
}

func (h *AnalyticsHandlers) GetTrends(c *gin.Context) {
	days, err := utils.ParsePositiveInt(c.Query("days"), defaultTrendDays)
	if err != nil {
		badRequest(c, fmt.Errorf("days: %w", err))
		return
	}
	mode, err := trendMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err)
		return
	}

	trend, err := h.svc.Trends(c.Request.Context(), days, mode)
	respond(c, trend, err, gin.H{"mode": mode, "approximate": mode == analytics.TrendEven})
}

func (h *AnalyticsHandlers) GetSessions(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := utils.ParsePositiveInt(c.Query("limit"), service.DefaultSessionLimit)
	if err != nil {
		badRequest(c, fmt.Errorf("limit: %w", err))
		return
	}

	list, err := h.svc.Sessions(c.Request.Context(), service.SessionQuery{
		Limit: limit,
		Range: r,
		Sort:  analytics.SessionSort(c.DefaultQuery("sort", string(analytics.SortRecent))),
		Filter: analytics.SessionFilter{
			City:   c.Query("city"),
			Status: c.DefaultQuery("status", "all"),
		},
	})
	respond(c, list, err, nil)
}

func (h *AnalyticsHandlers) GetJourney(c *gin.Context) {
	journey, err := h.svc.Journey(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	respond(c, journey, err, nil)
}

func (h *AnalyticsHandlers) GetLocations(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := utils.ParsePositiveInt(c.Query("limit"), service.DefaultLocationLimit)
	if err != nil {
		badRequest(c, fmt.Errorf("limit: %w", err))
		return
	}
	locs, err := h.svc.Locations(c.Request.Context(), r, limit)
	respond(c, locs, err, nil)
}

func (h *AnalyticsHandlers) GetPages(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	pages, err := h.svc.Pages(c.Request.Context(), r)
	respond(c, pages, err, nil)
}

func (h *AnalyticsHandlers) GetVerify(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	v, err := h.svc.Verify(c.Request.Context(), r)
	respond(c, v, err, nil)
}

func (h *AnalyticsHandlers) GetFunnel(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	funnel, err := h.svc.Funnel(c.Request.Context(), r)
	respond(c, funnel, err, nil)
}

func (h *AnalyticsHandlers) GetConversions(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	details, err := h.svc.Conversions(c.Request.Context(), service.ConversionQuery{
		Range: r,
		City:  c.Query("city"),
		Sort:  analytics.ConversionSort(c.DefaultQuery("sort", string(analytics.ConversionsRecent))),
	})
	respond(c, details, err, nil)
}

func (h *AnalyticsHandlers) leadQuery(c *gin.Context) (service.LeadQuery, error) {
	r, err := h.dateRange(c)
	if err != nil {
		return service.LeadQuery{}, err
	}
	limit, err := utils.ParsePositiveInt(c.Query("limit"), service.DefaultLeadLimit)
	if err != nil {
		return service.LeadQuery{}, fmt.Errorf("limit: %w", err)
	}
	return service.LeadQuery{Range: r, City: c.Query("city"), UseCase: c.Query("useCase"), Limit: limit}, nil
}

func (h *AnalyticsHandlers) GetLeads(c *gin.Context) {
	q, err := h.leadQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	leads, err := h.svc.Leads(c.Request.Context(), q)
	respond(c, leads, err, nil)
}

var leadCSVHeader = []string{"Name", "Email", "Phone", "City", "State", "Use Case", "Quantity", "Date"}

// ExportLeads streams the filtered leads as a CSV attachment.
func (h *AnalyticsHandlers) ExportLeads(c *gin.Context) {
	q, err := h.leadQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	leads, err := h.svc.Leads(c.Request.Context(), q)
	if err != nil {
		respond(c, leads, err, nil)
		return
	}

	filename := fmt.Sprintf("leads-%s.csv", time.Now().In(h.loc).Format(time.DateOnly))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(leadCSVHeader)
	for _, l := range leads {
		_ = w.Write([]string{
			l.Name, l.Email, l.Phone, l.City, l.State, l.UseCase, l.QuantityNeeded,
			l.Timestamp.In(h.loc).Format(time.DateOnly),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Errorf("Failed to write leads CSV: %v", err)
	}
}

func (h *AnalyticsHandlers) GetScans(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := utils.ParsePositiveInt(c.Query("limit"), service.DefaultLeadLimit)
	if err != nil {
		badRequest(c, fmt.Errorf("limit: %w", err))
		return
	}
	scans, err := h.svc.Scans(c.Request.Context(), service.ScanQuery{Range: r, City: c.Query("city"), Limit: limit})
	respond(c, scans, err, nil)
}

// GetDashboard answers 200 even when sections failed; each section carries
// its own error.
func (h *AnalyticsHandlers) GetDashboard(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	days, err := utils.ParsePositiveInt(c.Query("days"), defaultTrendDays)
	if err != nil {
		badRequest(c, fmt.Errorf("days: %w", err))
		return
	}
	mode, err := trendMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err)
		return
	}
	sessions, err := utils.ParsePositiveInt(c.Query("sessions"), service.DefaultSessionLimit)
	if err != nil {
		badRequest(c, fmt.Errorf("sessions: %w", err))
		return
	}

	d := h.svc.Dashboard(c.Request.Context(), service.DashboardQuery{
		Range:     r,
		TrendDays: days,
		TrendMode: mode,
		Sessions:  sessions,
	})
	c.JSON(http.StatusOK, gin.H{"data": d, "degraded": d.Degraded()})
}
