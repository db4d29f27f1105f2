package httpin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solusd/internal/adapters/in/http/handlers"
	"solusd/internal/adapters/in/http/middleware"
	usecase "solusd/internal/application/usecase"
)

// RouterDeps collects everything main.go injects into the router.
type RouterDeps struct {
	IssuanceUC *usecase.IssuanceUsecase
	BalanceUC  *usecase.BalanceUsecase
	HistoryUC  *usecase.HistoryUsecase

	// Auth guards POST routes when non-nil.
	Auth *middleware.FirebaseAuth

	// Metrics is served on /metrics and observes every request when non-nil.
	Metrics interface {
		middleware.RequestObserver
		Handler() http.Handler
	}

	Logger              *zap.Logger
	CORSAllowedOrigin   string
	BalancePollInterval time.Duration
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var observer middleware.RequestObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	r := chi.NewRouter()
	r.Use(
		middleware.CORS(deps.CORSAllowedOrigin),
		middleware.RequestID,
		middleware.RequestLog(logger.Named("http"), observer),
		middleware.Recover(logger),
	)

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	token := &handlers.TokenHandler{Issuance: deps.IssuanceUC, Balance: deps.BalanceUC, Logger: logger}
	issuance := &handlers.IssuanceHandler{Issuance: deps.IssuanceUC, Balance: deps.BalanceUC, Logger: logger}
	balance := &handlers.BalanceHandler{Balance: deps.BalanceUC, PollInterval: deps.BalancePollInterval, Logger: logger}
	history := &handlers.HistoryHandler{History: deps.HistoryUC}

	r.Get("/price", token.Price)
	r.Get("/token", token.Token)

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Handler)
		}
		r.Post("/mint", issuance.Mint)
		r.Post("/burn", issuance.Burn)
	})

	r.Route("/wallets/{wallet}", func(r chi.Router) {
		r.Get("/balances", balance.Get)
		r.Get("/balances/stream", balance.Stream)
		r.Get("/history", history.List)
		r.Get("/receipts", issuance.Receipts)
	})

	return r
}
