package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"moneta/internal/core"
)

type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
	AmountCents int64  `json:"amountCents"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
	AmountCents int64  `json:"amountCents"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		CategoryID:  tx.CategoryID,
		AmountCents: tx.AmountCents,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	tx := core.Transaction{
		Date:        core.NewDate(day.Year(), int(day.Month()), day.Day()),
		Description: strings.TrimSpace(req.Description),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		AmountCents: req.AmountCents,
	}

	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create transaction",
			"error", err,
			"description", tx.Description,
			"amount_cents", tx.AmountCents,
			"component", "http",
			"operation", "create_transaction")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
