// backend/internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	uc "solusd/internal/application/usecase"
	"solusd/internal/domain/price"
	sc "solusd/internal/domain/stablecoin"
)

const maxBodyBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps domain errors to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, sc.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, sc.ErrInvalidWallet):
		return http.StatusBadRequest, "invalid_wallet"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, sc.ErrMintNotInitialized):
		return http.StatusConflict, "mint_not_initialized"
	case errors.Is(err, sc.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient_balance"
	case errors.Is(err, sc.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, sc.ErrSupplyOverflow):
		return http.StatusUnprocessableEntity, "supply_overflow"
	case errors.Is(err, sc.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, price.ErrUnavailable),
		errors.Is(err, price.ErrStaleData),
		errors.Is(err, price.ErrInvalidRate):
		return http.StatusServiceUnavailable, "price_unavailable"
	case errors.Is(err, sc.ErrLedgerUnavailable):
		return http.StatusBadGateway, "ledger_unavailable"
	case errors.Is(err, uc.ErrJournalDisabled):
		return http.StatusNotFound, "journal_disabled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

var errBadRequest = errors.New("bad request")

// decodeBody reads a bounded JSON body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// amountField accepts both "1.5" and 1.5.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return sc.ErrInvalidAmount
	}
	*a = amountField(n.String())
	return nil
}

func (a amountField) Decimal() (decimal.Decimal, error) {
	return sc.ParseAmount(string(a))
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
