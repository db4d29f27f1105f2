package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	uc "solusd/internal/application/usecase"
)

type HistoryHandler struct {
	History *uc.HistoryUsecase
}

// GET /wallets/{wallet}/history?limit=N
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), uc.DefaultHistoryLimit)
	records, err := h.History.List(r.Context(), chi.URLParam(r, "wallet"), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": records})
}
