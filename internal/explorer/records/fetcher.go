// internal/explorer/records/fetcher.go
package records

import (
	"context"
	"time"

	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

// Fetcher runs queries against the store, one session per call.
type Fetcher struct {
	store   store.Store
	timeout time.Duration
	logger  logger.Logger
}

func NewFetcher(s store.Store, timeout time.Duration, log logger.Logger) *Fetcher {
	return &Fetcher{
		store:   s,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "record-fetcher"}),
	}
}

// Fetch returns every record matching all of q's fields exactly. An empty
// query returns the whole collection. The session is released on every path.
func (f *Fetcher) Fetch(ctx context.Context, q models.Query) ([]models.Record, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var out []models.Record
	err := store.WithSession(ctx, f.store, "find", f.logger, func(ctx context.Context, sess store.Session) error {
		records, err := sess.Find(ctx, q)
		if err != nil {
			return err
		}
		out = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched records", map[string]interface{}{
		"filters": len(q),
		"rows":    len(out),
	})
	return out, nil
}
