package reporting_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-reporting/internal/auth"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/reporting"

	"github.com/go-chi/chi/v5"
)

// Limiter gates report requests per business
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Handler handles reporting HTTP endpoints
type Handler struct {
	Service      reporting.Reporter
	Logger       *logger.Logger
	Limiter      Limiter
	QueryTimeout time.Duration
}

// NewHandler creates a new reporting handler. limiter may be nil.
func NewHandler(service reporting.Reporter, logger *logger.Logger, limiter Limiter, queryTimeout time.Duration) *Handler {
	return &Handler{
		Service:      service,
		Logger:       logger,
		Limiter:      limiter,
		QueryTimeout: queryTimeout,
	}
}

// RegisterRoutes registers the reporting routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reporting/businesses/{businessId}", func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/analytics", h.GetBusinessAnalytics)
		r.Get("/tracking-links", h.GetTrackingLinkAnalytics)
		r.Get("/page-views", h.GetPageViewStats)
	})
}

// sendJSONResponse is a helper function to send JSON responses
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already written, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(data)
}

// rateLimit rejects requests over the per-business budget. Limiter errors
// let the request through.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		businessID := chi.URLParam(r, "businessId")
		allowed, err := h.Limiter.Allow(r.Context(), businessID)
		if err != nil {
			h.Logger.Warn("REDIS", fmt.Sprintf("Rate limiter unavailable, allowing request: %v", err))
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			h.Logger.Warn("HTTP", fmt.Sprintf("Rate limit exceeded for business %s", businessID))
			sendJSONResponse(w, http.StatusTooManyRequests, map[string]string{"error": "Too many report requests, try again later"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// filterFromRequest reads the business id, optional event id and date range
func filterFromRequest(r *http.Request) (reporting.Filter, error) {
	rng, err := reporting.ParseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		return reporting.Filter{}, err
	}
	return reporting.Filter{
		BusinessID: chi.URLParam(r, "businessId"),
		EventID:    r.URL.Query().Get("event_id"),
		Range:      rng,
	}, nil
}

func (h *Handler) queryContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.QueryTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.QueryTimeout)
}

// writeError maps service errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, reporting.ErrBusinessRequired), errors.Is(err, reporting.ErrInvalidDateRange):
		h.Logger.Warn("HTTP", fmt.Sprintf("Rejected %s request: %v", what, err))
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		h.Logger.Error("REPORTING", fmt.Sprintf("Timed out building %s: %v", what, err))
		sendJSONResponse(w, http.StatusGatewayTimeout, map[string]string{"error": "Report took too long to build"})
	default:
		h.Logger.Error("REPORTING", fmt.Sprintf("Error building %s: %v", what, err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get " + what})
	}
}

// GetBusinessAnalytics handles the business revenue report
func (h *Handler) GetBusinessAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromRequest(r)
	if err != nil {
		h.writeError(w, "business analytics", err)
		return
	}

	ctx, cancel := h.queryContext(r)
	defer cancel()

	start := time.Now()
	analytics, err := h.Service.GetBusinessAnalytics(ctx, f)
	if err != nil {
		h.writeError(w, "business analytics", err)
		return
	}

	h.Logger.LogReport("analytics", f.BusinessID, fmt.Sprintf("user=%s events=%d took=%s",
		auth.UserID(r.Context()), len(analytics.Events), time.Since(start)))
	sendJSONResponse(w, http.StatusOK, analytics)
}

// GetTrackingLinkAnalytics handles the per tracking link report
func (h *Handler) GetTrackingLinkAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromRequest(r)
	if err != nil {
		h.writeError(w, "tracking link analytics", err)
		return
	}

	ctx, cancel := h.queryContext(r)
	defer cancel()

	links, err := h.Service.GetTrackingLinkAnalytics(ctx, f)
	if err != nil {
		h.writeError(w, "tracking link analytics", err)
		return
	}

	h.Logger.LogReport("tracking-links", f.BusinessID, fmt.Sprintf("user=%s links=%d", auth.UserID(r.Context()), len(links)))
	sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"business_id":    f.BusinessID,
		"tracking_links": links,
	})
}

// GetPageViewStats handles the storefront traffic report
func (h *Handler) GetPageViewStats(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromRequest(r)
	if err != nil {
		h.writeError(w, "page view stats", err)
		return
	}

	ctx, cancel := h.queryContext(r)
	defer cancel()

	stats, err := h.Service.GetPageViewStats(ctx, f)
	if err != nil {
		h.writeError(w, "page view stats", err)
		return
	}

	sendJSONResponse(w, http.StatusOK, stats)
}
