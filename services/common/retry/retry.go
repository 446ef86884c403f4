package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	apperrors "github.com/vietshop/backend/services/common/errors"
	"github.com/vietshop/backend/services/common/logger"
	"go.uber.org/zap"
)

// Policy controls how Do re-executes a failing operation.
type Policy struct {
	// MaxAttempts is the total number of executions, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure. Subsequent waits grow
	// exponentially (BaseDelay * 2^(attempt-1)) unless Linear is set, in
	// which case every wait equals BaseDelay.
	BaseDelay time.Duration
	Linear    bool
	// IsRetryable decides whether the error is worth another attempt.
	// A nil predicate retries everything.
	IsRetryable func(error) bool
}

// Do runs op, retrying per p. The last error is returned once attempts are
// exhausted or the error is classified non-retryable. Waits respect ctx.
func Do(ctx context.Context, traceID string, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts || (p.IsRetryable != nil && !p.IsRetryable(lastErr)) {
			return lastErr
		}

		delay := p.BaseDelay
		if !p.Linear {
			delay = p.BaseDelay << (attempt - 1)
		}

		logger.Warn(ctx, "Attempt failed, retrying",
			zap.String("trace_id", traceID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// IsTransient reports whether err looks like a transient transport failure:
// connection refused/reset, timeout, or an upstream 503/504.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	switch apperrors.CodeOf(err) {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
