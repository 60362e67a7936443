package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"moneta/internal/core"
)

type budgetRequest struct {
	CategoryID        string `json:"categoryId"`
	MonthlyLimitCents int64  `json:"monthlyLimitCents"`
	Notes             string `json:"notes"`
}

type budgetResponse struct {
	ID                string `json:"id"`
	CategoryID        string `json:"categoryId"`
	MonthlyLimitCents int64  `json:"monthlyLimitCents"`
	Notes             string `json:"notes"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:                b.ID,
		CategoryID:        b.CategoryID,
		MonthlyLimitCents: b.MonthlyLimit.Cents,
		Notes:             b.Notes,
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	budget := core.Budget{
		CategoryID:   strings.TrimSpace(req.CategoryID),
		MonthlyLimit: core.Money{Cents: req.MonthlyLimitCents},
		Notes:        strings.TrimSpace(req.Notes),
	}

	created, err := s.ledger.CreateBudget(r.Context(), budget)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.ListBudgets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteBudget(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetMetricsResponse struct {
	BudgetID       string  `json:"budgetId"`
	CategoryID     string  `json:"categoryId"`
	LimitCents     int64   `json:"limitCents"`
	SpentCents     int64   `json:"spentCents"`
	RemainingCents int64   `json:"remainingCents"`
	PercentUsed    float64 `json:"percentUsed"`
	IsOver         bool    `json:"isOver"`
}

type budgetStatusResponse struct {
	Budgets []budgetMetricsResponse `json:"budgets"`
	Summary budgetSummaryResponse   `json:"summary"`
}

type budgetSummaryResponse struct {
	TotalLimitCents     int64   `json:"totalLimitCents"`
	TotalSpentCents     int64   `json:"totalSpentCents"`
	TotalRemainingCents int64   `json:"totalRemainingCents"`
	UsagePercent        float64 `json:"usagePercent"`
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.summary.BudgetStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := budgetStatusResponse{
		Budgets: make([]budgetMetricsResponse, 0, len(status.Budgets)),
		Summary: budgetSummaryResponse{
			TotalLimitCents:     status.Summary.TotalLimitCents,
			TotalSpentCents:     status.Summary.TotalSpentCents,
			TotalRemainingCents: status.Summary.TotalRemainingCents,
			UsagePercent:        status.Summary.UsagePercent,
		},
	}
	for _, m := range status.Budgets {
		out.Budgets = append(out.Budgets, budgetMetricsResponse{
			BudgetID:       m.BudgetID,
			CategoryID:     m.CategoryID,
			LimitCents:     m.LimitCents,
			SpentCents:     m.SpentCents,
			RemainingCents: m.RemainingCents,
			PercentUsed:    m.PercentUsed,
			IsOver:         m.IsOver,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
