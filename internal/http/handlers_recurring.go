package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"moneta/internal/core"
)

type billRequest struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
	Category    string `json:"category"`
	BaseDueDay  int    `json:"baseDueDay"`
}

type billResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	AmountCents int64          `json:"amountCents"`
	Category    string         `json:"category"`
	IsPaid      bool           `json:"isPaid"`
	BaseDueDay  int            `json:"baseDueDay"`
	Anchors     map[string]int `json:"anchors"`
}

func toBillResponse(b core.RecurringBill) billResponse {
	anchors := make(map[string]int, len(b.Anchors))
	for mk, day := range b.Anchors {
		anchors[mk.String()] = day
	}
	return billResponse{
		ID:          b.ID,
		Name:        b.Name,
		AmountCents: b.Amount.Cents,
		Category:    b.Category,
		IsPaid:      b.IsPaid,
		BaseDueDay:  b.BaseDueDay,
		Anchors:     anchors,
	}
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bill := core.RecurringBill{
		Name:       strings.TrimSpace(req.Name),
		Amount:     core.Money{Cents: req.AmountCents},
		Category:   strings.TrimSpace(req.Category),
		BaseDueDay: req.BaseDueDay,
		Anchors:    core.AnchorMap{},
	}

	created, err := s.ledger.CreateBill(r.Context(), bill)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create bill",
			"error", err,
			"name", bill.Name,
			"component", "http",
			"operation", "create_bill")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillResponse(created))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.ledger.ListBills(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteBill(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBillPaid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paid bool `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := s.ledger.SetBillPaid(r.Context(), id, req.Paid); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBillAnchor(w http.ResponseWriter, r *http.Request) {
	s.setAnchor(w, r, s.ledger.SetBillAnchor)
}

type paycheckRequest struct {
	Source      string `json:"source"`
	AmountCents int64  `json:"amountCents"`
	Frequency   string `json:"frequency"`
}

type paycheckResponse struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	AmountCents int64          `json:"amountCents"`
	Frequency   string         `json:"frequency"`
	Anchors     map[string]int `json:"anchors"`
}

func toPaycheckResponse(p core.RecurringPaycheck) paycheckResponse {
	anchors := make(map[string]int, len(p.Anchors))
	for mk, day := range p.Anchors {
		anchors[mk.String()] = day
	}
	return paycheckResponse{
		ID:          p.ID,
		Source:      p.Source,
		AmountCents: p.Amount.Cents,
		Frequency:   string(p.Frequency),
		Anchors:     anchors,
	}
}

func (s *Server) handleCreatePaycheck(w http.ResponseWriter, r *http.Request) {
	var req paycheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paycheck := core.RecurringPaycheck{
		Source:    strings.TrimSpace(req.Source),
		Amount:    core.Money{Cents: req.AmountCents},
		Frequency: core.Frequency(strings.TrimSpace(req.Frequency)),
		Anchors:   core.AnchorMap{},
	}

	created, err := s.ledger.CreatePaycheck(r.Context(), paycheck)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create paycheck",
			"error", err,
			"source", paycheck.Source,
			"component", "http",
			"operation", "create_paycheck")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaycheckResponse(created))
}

func (s *Server) handleListPaychecks(w http.ResponseWriter, r *http.Request) {
	paychecks, err := s.ledger.ListPaychecks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]paycheckResponse, 0, len(paychecks))
	for _, p := range paychecks {
		out = append(out, toPaycheckResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePaycheck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeletePaycheck(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPaycheckAnchor(w http.ResponseWriter, r *http.Request) {
	s.setAnchor(w, r, s.ledger.SetPaycheckAnchor)
}

// setAnchor handles the shared anchor-override flow for bills and paychecks.
// The month comes from the URL, the day from the body, and range validation
// against the month's length happens in the store.
func (s *Server) setAnchor(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, id string, mk core.MonthKey, day int) error) {
	mk, err := core.ParseMonthKey(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	var req struct {
		Day int `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := set(r.Context(), id, mk, req.Day); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
