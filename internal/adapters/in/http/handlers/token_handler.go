// backend/internal/adapters/in/http/handlers/token_handler.go
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	uc "solusd/internal/application/usecase"
	sc "solusd/internal/domain/stablecoin"
)

// TokenHandler serves the rate and mint information.
type TokenHandler struct {
	Issuance *uc.IssuanceUsecase
	Balance  *uc.BalanceUsecase
	Logger   *zap.Logger
}

type priceResponse struct {
	Rate   string `json:"rate"`
	Base   string `json:"base"`
	Symbol string `json:"symbol"`
}

type tokenResponse struct {
	sc.MintInfo
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	// Error is set when the supply could not be read after creation.
	Error string `json:"error,omitempty"`
}

// GET /price
func (h *TokenHandler) Price(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Issuance.Rate(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{Rate: rate.String(), Base: "SOL", Symbol: sc.Symbol})
}

// GET /token
func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	info, err := h.Balance.MintInfo(r.Context())
	if err != nil && !info.Created {
		writeErr(w, err)
		return
	}
	resp := tokenResponse{MintInfo: info, Symbol: sc.Symbol, Name: sc.Name}
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("mint state read failed", zap.Error(err))
		}
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
