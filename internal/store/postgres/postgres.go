// internal/store/postgres/postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/database"
	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

const Driver = "postgres"

var (
	ErrScanFailed   = errors.New("SCAN_FAILED")
	ErrInsertFailed = errors.New("INSERT_FAILED")
)

// Connector opens a client for a DSN.
type Connector func(dsn string) (*database.PostgresClient, error)

type Option func(*Store)

// WithConnector replaces the lib/pq connector.
func WithConnector(c Connector) Option {
	return func(s *Store) { s.connect = c }
}

// Store opens one database handle per session.
type Store struct {
	dsn     string
	table   string
	connect Connector
	logger  logger.Logger
}

func New(cfg config.StoreConfig, pool config.PostgresConfig, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		dsn:    cfg.URL,
		table:  cfg.Collection,
		logger: log.WithFields(map[string]interface{}{"component": "store", "driver": Driver}),
		connect: func(dsn string) (*database.PostgresClient, error) {
			return database.NewPostgres(dsn, pool)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Driver() string { return Driver }

func (s *Store) Open(ctx context.Context) (store.Session, error) {
	if s.dsn == "" {
		return nil, apperrors.NewConfigurationError("store.url")
	}

	client, err := s.connect(s.dsn)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &session{store: s, client: client}, nil
}

type session struct {
	store  *Store
	client *database.PostgresClient
}

func (s *session) Find(ctx context.Context, q models.Query) ([]models.Record, error) {
	query, args := buildFind(s.store.table, q)

	rows, err := s.client.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.store.logger.Debug("find completed", map[string]interface{}{
		"table":   s.store.table,
		"filters": len(q),
		"rows":    len(out),
	})
	return out, nil
}

func (s *session) Distinct(ctx context.Context, f models.Field) ([]string, error) {
	rows, err := s.client.Query(ctx, buildDistinct(s.store.table, f))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Insert creates the table if needed and writes records in one transaction.
func (s *session) Insert(ctx context.Context, records []models.Record) (int, error) {
	if _, err := s.client.Exec(ctx, createTableSQL(s.store.table)); err != nil {
		return 0, fmt.Errorf("%w: create table: %v", ErrInsertFailed, err)
	}

	tx, err := s.client.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrInsertFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL(s.store.table))
	if err != nil {
		return 0, fmt.Errorf("%w: prepare: %v", ErrInsertFailed, err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, insertArgs(r)...); err != nil {
			return 0, fmt.Errorf("%w: record %d: %v", ErrInsertFailed, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrInsertFailed, err)
	}
	return len(records), nil
}

func (s *session) Close() error {
	return s.client.Close()
}

func scanRecord(rows *sql.Rows) (models.Record, error) {
	var (
		text                             [14]sql.NullString
		endYear, startYear               sql.NullInt64
		intensity, relevance, likelihood sql.NullFloat64
	)
	err := rows.Scan(
		&text[0], &text[1], &text[2], &text[3], &text[4], &text[5], &text[6], &text[7],
		&endYear, &startYear, &intensity, &relevance, &likelihood,
		&text[8], &text[9], &text[10], &text[11], &text[12], &text[13],
	)
	if err != nil {
		return models.Record{}, err
	}

	r := models.Record{
		Country:    text[0].String,
		Region:     text[1].String,
		Sector:     text[2].String,
		Topic:      text[3].String,
		Pestle:     text[4].String,
		Source:     text[5].String,
		SWOT:       text[6].String,
		City:       text[7].String,
		Intensity:  intensity.Float64,
		Relevance:  relevance.Float64,
		Likelihood: likelihood.Float64,
		Impact:     text[8].String,
		Title:      text[9].String,
		Insight:    text[10].String,
		URL:        text[11].String,
		Added:      text[12].String,
		Published:  text[13].String,
	}
	if endYear.Valid {
		r.EndYear = models.IntPtr(int(endYear.Int64))
	}
	if startYear.Valid {
		r.StartYear = models.IntPtr(int(startYear.Int64))
	}
	return r, nil
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Session = (*session)(nil)
	_ store.Writer  = (*session)(nil)
)
