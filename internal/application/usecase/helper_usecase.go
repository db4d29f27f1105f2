package usecase

import (
	"context"
	"time"
)

// sideEffectTimeout bounds best-effort work done after an operation completed.
const sideEffectTimeout = 10 * time.Second

// detached returns a context that survives the caller's cancellation.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

func ptr[T any](v T) *T { return &v }
