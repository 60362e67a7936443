package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"moneta/internal/core"
	"moneta/internal/log"
	"moneta/internal/services"
)

type timelineEntryResponse struct {
	Kind          string `json:"kind"`
	Day           int    `json:"day"`
	Name          string `json:"name"`
	AmountCents   int64  `json:"amountCents"`
	SignedEffect  int64  `json:"signedEffect"`
	BalanceBefore int64  `json:"balanceBefore"`
	BalanceAfter  int64  `json:"balanceAfter"`
	IsPaid        bool   `json:"isPaid"`
}

type timelineResponse struct {
	Month        string                  `json:"month"`
	OpeningCents int64                   `json:"openingCents"`
	ClosingCents int64                   `json:"closingCents"`
	IncomeCents  int64                   `json:"incomeCents"`
	BillsCents   int64                   `json:"billsCents"`
	Entries      []timelineEntryResponse `json:"entries"`
}

func toTimelineResponse(res services.TimelineResult) timelineResponse {
	out := timelineResponse{
		Month:        res.Month.String(),
		OpeningCents: res.OpeningCents,
		ClosingCents: res.ClosingCents,
		IncomeCents:  res.Totals.IncomeCents,
		BillsCents:   res.Totals.BillsCents,
		Entries:      make([]timelineEntryResponse, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		out.Entries = append(out.Entries, timelineEntryResponse{
			Kind:          string(e.Kind),
			Day:           e.Day,
			Name:          e.Name,
			AmountCents:   e.AmountCents,
			SignedEffect:  e.SignedEffect,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			IsPaid:        e.IsPaid,
		})
	}
	return out
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	monthParam := r.URL.Query().Get("month")
	if monthParam == "" {
		monthParam = core.MonthKeyOf(time.Now().UTC()).String()
	}
	mk, err := core.ParseMonthKey(monthParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	// Cache keys carry the store revision so any mutation invalidates every
	// cached view at once.
	cacheKey := fmt.Sprintf("%d:%s", s.revisioned.Revision(), mk)
	if cached, ok := s.timelineCache.Get(cacheKey); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Timeline cache hit", log.FieldMonth, mk.String())
		writeJSON(w, http.StatusOK, toTimelineResponse(cached))
		return
	}

	res, err := s.projection.Timeline(r.Context(), mk)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build timeline",
			"error", err,
			"month", mk.String(),
			"component", "http",
			"operation", "timeline")
		writeServiceError(w, err)
		return
	}

	s.timelineCache.Set(cacheKey, res)
	writeJSON(w, http.StatusOK, toTimelineResponse(res))
}

type categorySpendResponse struct {
	CategoryID string `json:"categoryId"`
	Cents      int64  `json:"cents"`
}

type summaryResponse struct {
	Window           string                  `json:"window"`
	TotalSpentCents  int64                   `json:"totalSpentCents"`
	TotalIncomeCents int64                   `json:"totalIncomeCents"`
	NetBalanceCents  int64                   `json:"netBalanceCents"`
	ByCategory       []categorySpendResponse `json:"byCategory"`
	TopCategory      *categorySpendResponse  `json:"topCategory,omitempty"`
}

func toSummaryResponse(window core.Window, agg core.AggregateResult) summaryResponse {
	out := summaryResponse{
		Window:           string(window),
		TotalSpentCents:  agg.TotalSpentCents,
		TotalIncomeCents: agg.TotalIncomeCents,
		NetBalanceCents:  agg.NetBalanceCents,
		ByCategory:       make([]categorySpendResponse, 0, len(agg.ByCategory)),
	}
	for _, cs := range agg.ByCategory {
		out.ByCategory = append(out.ByCategory, categorySpendResponse{
			CategoryID: cs.CategoryID,
			Cents:      cs.Cents,
		})
	}
	if top, ok := agg.TopCategory(); ok {
		out.TopCategory = &categorySpendResponse{CategoryID: top.CategoryID, Cents: top.Cents}
	}
	return out
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window := core.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = core.WindowCurrentMonth
	}
	if !window.Valid() {
		writeError(w, http.StatusBadRequest, "invalid window, expected currentMonth or allTime")
		return
	}

	cacheKey := fmt.Sprintf("%d:%s", s.revisioned.Revision(), window)
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit", log.FieldWindow, string(window))
		writeJSON(w, http.StatusOK, toSummaryResponse(window, cached))
		return
	}

	agg, err := s.summary.Aggregate(r.Context(), window)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to aggregate",
			"error", err,
			"window", string(window),
			"component", "http",
			"operation", "summary")
		writeServiceError(w, err)
		return
	}

	s.summaryCache.Set(cacheKey, agg)
	writeJSON(w, http.StatusOK, toSummaryResponse(window, agg))
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}
