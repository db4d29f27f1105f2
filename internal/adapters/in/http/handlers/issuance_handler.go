package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	uc "solusd/internal/application/usecase"
	sc "solusd/internal/domain/stablecoin"
)

// IssuanceHandler serves POST /mint, POST /burn and the receipts journal.
type IssuanceHandler struct {
	Issuance *uc.IssuanceUsecase
	Balance  *uc.BalanceUsecase
	Logger   *zap.Logger
}

type mintRequest struct {
	Wallet    string      `json:"wallet"`
	SOLAmount amountField `json:"solAmount"`
}

type burnRequest struct {
	Wallet      string      `json:"wallet"`
	TokenAmount amountField `json:"tokenAmount"`
}

type receiptResponse struct {
	Receipt    sc.Receipt          `json:"receipt"`
	SOLDisplay string              `json:"solDisplay"`
	Balance    *sc.BalanceSnapshot `json:"balance,omitempty"`
}

func (h *IssuanceHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sol, err := req.SOLAmount.Decimal()
	if err != nil {
		writeErr(w, err)
		return
	}
	wallet, err := sc.ValidateWallet(req.Wallet)
	if err != nil {
		writeErr(w, err)
		return
	}

	rc, err := h.Issuance.Mint(r.Context(), wallet, sol)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.withBalance(r, rc))
}

func (h *IssuanceHandler) Burn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	amount, err := req.TokenAmount.Decimal()
	if err != nil {
		writeErr(w, err)
		return
	}
	wallet, err := sc.ValidateWallet(req.Wallet)
	if err != nil {
		writeErr(w, err)
		return
	}

	rc, err := h.Issuance.Burn(r.Context(), wallet, amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.withBalance(r, rc))
}

// withBalance re-reads the wallet after a confirmed operation. A failed read
// only drops the balance from the response.
func (h *IssuanceHandler) withBalance(r *http.Request, rc sc.Receipt) receiptResponse {
	out := receiptResponse{Receipt: rc, SOLDisplay: rc.SOLDisplay()}
	if h.Balance == nil {
		return out
	}
	snap, err := h.Balance.Snapshot(r.Context(), rc.Wallet)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("post-operation balance read failed", zap.Error(err), zap.String("signature", rc.Signature))
		}
		return out
	}
	out.Balance = &snap
	return out
}

// GET /wallets/{wallet}/receipts?limit=N
func (h *IssuanceHandler) Receipts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), uc.DefaultHistoryLimit)
	list, err := h.Issuance.Receipts(r.Context(), chi.URLParam(r, "wallet"), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receipts": list})
}
