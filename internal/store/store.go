// internal/store/store.go
package store

import (
	"context"

	"signal-explorer/internal/models"
)

// Store hands out sessions against the record store. Each session owns its
// connection and must be closed by the caller.
type Store interface {
	Driver() string
	Open(ctx context.Context) (Session, error)
}

// Session is one scoped connection to the record store.
type Session interface {
	// Find returns every record holding all of q's values; an empty q
	// returns the whole collection.
	Find(ctx context.Context, q models.Query) ([]models.Record, error)
	// Distinct returns the distinct non-empty values of f, formatted as
	// strings, in store order.
	Distinct(ctx context.Context, f models.Field) ([]string, error)
	Close() error
}

// Writer is implemented by sessions that can load records.
type Writer interface {
	Insert(ctx context.Context, records []models.Record) (int, error)
}
