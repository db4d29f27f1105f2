// backend/internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// IDTokenVerifier is satisfied by *auth.Client from the Firebase Admin SDK.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuth checks "Authorization: Bearer <ID_TOKEN>" and stores the uid
// in the request context.
type FirebaseAuth struct {
	Verifier IDTokenVerifier
	Logger   *zap.Logger
}

func (m *FirebaseAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.Verifier == nil {
			authError(w, http.StatusServiceUnavailable, "auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			authError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			authError(w, http.StatusUnauthorized, "empty bearer token")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Info("id token rejected", zap.Error(err), zap.String("requestId", RequestIDFrom(r.Context())))
			}
			authError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			authError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUID, uid)))
	})
}

func UIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUID).(string)
	return v, ok && v != ""
}

func authError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": msg})
}
