// internal/store/elasticsearch/elasticsearch.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/database"
	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

const Driver = "elasticsearch"

const (
	defaultPageSize = 1000
	scrollKeepAlive = time.Minute
)

var (
	ErrSearchFailed = errors.New("SEARCH_FAILED")
	ErrBulkFailed   = errors.New("BULK_FAILED")
)

// Store opens one client per session against the configured addresses.
type Store struct {
	addresses string
	index     string
	pageSize  int
	creds     config.ElasticsearchConfig
	logger    logger.Logger
}

func New(cfg config.StoreConfig, creds config.ElasticsearchConfig, log logger.Logger) *Store {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Store{
		addresses: cfg.URL,
		index:     cfg.Collection,
		pageSize:  pageSize,
		creds:     creds,
		logger:    log.WithFields(map[string]interface{}{"component": "store", "driver": Driver}),
	}
}

func (s *Store) Driver() string { return Driver }

func (s *Store) Open(ctx context.Context) (store.Session, error) {
	if s.addresses == "" {
		return nil, apperrors.NewConfigurationError("store.url")
	}

	client, err := database.NewElasticsearch(s.addresses, s.creds)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}
	return &session{store: s, client: client}, nil
}

type session struct {
	store  *Store
	client *database.ElasticsearchClient
	closed bool
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			Source models.Record `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key json.RawMessage `json:"key"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

func (s *session) search(ctx context.Context, body map[string]interface{}) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	es := s.client.Client
	return decodeSearch(es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(s.store.index),
		es.Search.WithBody(bytes.NewReader(payload)),
	))
}

func decodeSearch(res *esapi.Response, err error) (*searchResponse, error) {
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, responseError(res))
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}
	return &out, nil
}

// Find scrolls through every match, one page of pageSize hits at a time,
// so the result is never truncated.
func (s *session) Find(ctx context.Context, q models.Query) ([]models.Record, error) {
	payload, err := json.Marshal(buildSearch(q, s.store.pageSize))
	if err != nil {
		return nil, err
	}

	es := s.client.Client
	page, err := decodeSearch(es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(s.store.index),
		es.Search.WithBody(bytes.NewReader(payload)),
		es.Search.WithScroll(scrollKeepAlive),
	))
	if err != nil {
		return nil, err
	}

	out := []models.Record{}
	pages := 1
	for {
		for _, h := range page.Hits.Hits {
			out = append(out, h.Source)
		}
		if len(page.Hits.Hits) < s.store.pageSize || page.ScrollID == "" {
			break
		}

		scrollID := page.ScrollID
		page, err = decodeSearch(es.Scroll(
			es.Scroll.WithContext(ctx),
			es.Scroll.WithScrollID(scrollID),
			es.Scroll.WithScroll(scrollKeepAlive),
		))
		if err != nil {
			s.clearScroll(ctx, scrollID)
			return nil, err
		}
		pages++
	}
	s.clearScroll(ctx, page.ScrollID)

	s.store.logger.Debug("find completed", map[string]interface{}{
		"index":   s.store.index,
		"filters": len(q),
		"hits":    len(out),
		"pages":   pages,
	})
	return out, nil
}

// clearScroll releases the server-side cursor; errors are ignored.
func (s *session) clearScroll(ctx context.Context, scrollID string) {
	if scrollID == "" {
		return
	}
	es := s.client.Client
	res, err := es.ClearScroll(
		es.ClearScroll.WithContext(ctx),
		es.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		s.store.logger.Debug("clear scroll failed", map[string]interface{}{"error": err.Error()})
		return
	}
	res.Body.Close()
}

func (s *session) Distinct(ctx context.Context, f models.Field) ([]string, error) {
	res, err := s.search(ctx, buildDistinct(f))
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, b := range res.Aggregations[distinctAgg].Buckets {
		if key := bucketKey(b.Key); key != "" {
			out = append(out, key)
		}
	}
	return out, nil
}

// bucketKey formats a terms bucket key; numeric keys lose a zero fraction.
func bucketKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// Insert creates the index with its mapping if missing and bulk-indexes
// records under generated ids.
func (s *session) Insert(ctx context.Context, records []models.Record) (int, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.store.index, "_id": uuid.New().String()},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(r); err != nil {
			return 0, err
		}
	}

	es := s.client.Client
	res, err := es.Bulk(bytes.NewReader(buf.Bytes()),
		es.Bulk.WithContext(ctx),
		es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBulkFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("%w: %s", ErrBulkFailed, responseError(res))
	}

	var summary struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&summary); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", ErrBulkFailed, err)
	}

	indexed := 0
	for _, item := range summary.Items {
		for _, result := range item {
			if result.Status < 300 {
				indexed++
			}
		}
	}
	if summary.Errors {
		return indexed, fmt.Errorf("%w: %d of %d documents rejected", ErrBulkFailed, len(records)-indexed, len(records))
	}
	return indexed, nil
}

func (s *session) ensureIndex(ctx context.Context) error {
	es := s.client.Client
	res, err := es.Indices.Exists([]string{s.store.index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping, err := json.Marshal(indexMapping())
	if err != nil {
		return err
	}
	res, err = es.Indices.Create(s.store.index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(bytes.NewReader(mapping)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: create index: %s", ErrBulkFailed, responseError(res))
	}

	s.store.logger.Info("created index", map[string]interface{}{"index": s.store.index})
	return nil
}

func (s *session) Close() error {
	if s.closed {
		return errors.New("session already closed")
	}
	s.closed = true
	return nil
}

func responseError(res *esapi.Response) string {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Sprintf("%s %s", res.Status(), bytes.TrimSpace(body))
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Session = (*session)(nil)
	_ store.Writer  = (*session)(nil)
)
