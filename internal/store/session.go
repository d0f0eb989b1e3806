// internal/store/session.go
package store

import (
	"context"
	"errors"
	"time"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/common/metrics"
)

// WithSession opens a session, runs fn and always closes the session, on
// success, empty results and failures alike. Failures come back classified:
// configuration errors unchanged, everything else as a store error.
func WithSession(ctx context.Context, s Store, op string, log logger.Logger, fn func(ctx context.Context, sess Session) error) (err error) {
	driver := s.Driver()
	start := time.Now()

	defer func() {
		status := "success"
		if err != nil {
			status = string(apperrors.CodeOf(err))
		}
		metrics.StoreOperations.WithLabelValues(driver, op, status).Inc()
		metrics.StoreOperationDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
		log.Debug("store operation finished", map[string]interface{}{
			"driver":     driver,
			"operation":  op,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}()

	sess, err := s.Open(ctx)
	if err != nil {
		return classifyOpen(ctx, driver, op, err)
	}

	metrics.StoreSessionsOpen.WithLabelValues(driver).Inc()
	defer func() {
		metrics.StoreSessionsOpen.WithLabelValues(driver).Dec()
		if cerr := sess.Close(); cerr != nil {
			log.Warn("failed to close store session", map[string]interface{}{
				"driver":    driver,
				"operation": op,
				"error":     cerr.Error(),
			})
		}
	}()

	if err := fn(ctx, sess); err != nil {
		return classify(ctx, op, err)
	}
	return nil
}

// Ping opens and closes a session.
func Ping(ctx context.Context, s Store, log logger.Logger) error {
	return WithSession(ctx, s, "ping", log, func(context.Context, Session) error { return nil })
}

func classifyOpen(ctx context.Context, driver, op string, err error) error {
	if apperrors.IsConfigurationError(err) {
		return err
	}
	if timedOut(ctx, err) {
		return apperrors.NewStoreTimeoutError(op, err)
	}
	return apperrors.NewStoreConnectionFailedError(driver, err)
}

func classify(ctx context.Context, op string, err error) error {
	if _, ok := apperrors.AsStandard(err); ok {
		return err
	}
	if timedOut(ctx, err) {
		return apperrors.NewStoreTimeoutError(op, err)
	}
	return apperrors.NewStoreQueryFailedError(op, err)
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
