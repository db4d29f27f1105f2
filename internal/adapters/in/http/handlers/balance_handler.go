package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	uc "solusd/internal/application/usecase"
	sc "solusd/internal/domain/stablecoin"
)

const DefaultPollInterval = 10 * time.Second

type BalanceHandler struct {
	Balance      *uc.BalanceUsecase
	PollInterval time.Duration
	Logger       *zap.Logger
}

// GET /wallets/{wallet}/balances
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Balance.Snapshot(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /wallets/{wallet}/balances/stream
//
// Server-Sent Events: one "snapshot" event per poll interval until the client
// goes away. Read failures are sent as "error" events and polling continues.
func (h *BalanceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	wallet, err := sc.ValidateWallet(chi.URLParam(r, "wallet"))
	if err != nil {
		writeErr(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	interval := h.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if !h.push(ctx, w, flusher, wallet) {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.push(ctx, w, flusher, wallet) {
				return
			}
		}
	}
}

// push reads one snapshot and writes it. It returns false once the client is gone;
// a read that finishes after that is discarded.
func (h *BalanceHandler) push(ctx context.Context, w http.ResponseWriter, f http.Flusher, wallet string) bool {
	snap, err := h.Balance.Snapshot(ctx, wallet)
	if ctx.Err() != nil {
		return false
	}

	event, payload := "snapshot", any(snap)
	if err != nil {
		_, code := statusFor(err)
		event, payload = "error", errorBody{Error: code, Message: err.Error()}
		if h.Logger != nil {
			h.Logger.Debug("balance stream read failed", zap.Error(err))
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	f.Flush()
	return true
}
