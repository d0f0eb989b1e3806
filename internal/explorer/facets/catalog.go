// internal/explorer/facets/catalog.go
package facets

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/common/metrics"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

const (
	cacheKeySuffix = "facets"
	flightKey      = "load"
)

// Values maps each facet field to its distinct values in store order.
type Values map[models.Field][]string

// Clone returns a deep copy holding every facet field.
func (v Values) Clone() Values {
	out := make(Values, len(models.FacetFields))
	for _, f := range models.FacetFields {
		out[f] = append([]string{}, v[f]...)
	}
	return out
}

// Sorted returns a copy with every list sorted; end_year sorts numerically.
func (v Values) Sorted() Values {
	out := v.Clone()
	for f, list := range out {
		if f.Kind() == models.KindNumber {
			sort.SliceStable(list, func(i, j int) bool { return numericLess(list[i], list[j]) })
		} else {
			sort.Strings(list)
		}
	}
	return out
}

func numericLess(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return x < y
}

type Option func(*Catalog)

// WithCache keeps a copy of the catalog in redis under <prefix>facets.
func WithCache(client redis.Cmdable, prefix string, ttl time.Duration) Option {
	return func(c *Catalog) {
		c.cache = client
		c.cacheKey = prefix + cacheKeySuffix
		c.ttl = ttl
	}
}

// Catalog loads the distinct values of every facet field. The result is
// memoised for the life of the catalog until Refresh. Concurrent callers
// share one load.
type Catalog struct {
	store   store.Store
	timeout time.Duration
	logger  logger.Logger

	cache    redis.Cmdable
	cacheKey string
	ttl      time.Duration

	flight singleflight.Group

	mu   sync.Mutex
	memo Values
	gen  uint64 // bumped by Refresh; older loads do not memoise
}

func NewCatalog(s store.Store, timeout time.Duration, log logger.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		store:   s,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "facet-catalog"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the catalog, all fields or an error. A failed load leaves
// any previous memo untouched. The shared load is bounded by the catalog
// timeout, not by ctx; a caller whose ctx ends first stops waiting.
func (c *Catalog) Load(ctx context.Context) (Values, error) {
	c.mu.Lock()
	memo, gen := c.memo, c.gen
	c.mu.Unlock()

	if memo != nil {
		metrics.FacetCacheLookups.WithLabelValues("memo").Inc()
		return memo.Clone(), nil
	}

	ch := c.flight.DoChan(flightKey, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Values).Clone(), nil
	case <-ctx.Done():
		return nil, apperrors.NewStoreTimeoutError("distinct", ctx.Err())
	}
}

func (c *Catalog) load(ctx context.Context, gen uint64) (Values, error) {
	values, ok := c.readCache(ctx)
	if !ok {
		var err error
		if values, err = c.loadFromStore(ctx); err != nil {
			return nil, err
		}
		c.writeCache(ctx, values)
	}

	c.mu.Lock()
	if c.gen == gen {
		c.memo = values
	}
	c.mu.Unlock()
	return values, nil
}

// Refresh drops the memo and the cached copy, then loads from the store.
func (c *Catalog) Refresh(ctx context.Context) (Values, error) {
	c.mu.Lock()
	c.memo = nil
	c.gen++
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Del(ctx, c.cacheKey).Err(); err != nil {
			c.logger.Warn("failed to drop cached facets", map[string]interface{}{"key": c.cacheKey, "error": err})
		}
	}
	c.flight.Forget(flightKey)

	return c.Load(ctx)
}

func (c *Catalog) loadFromStore(ctx context.Context) (Values, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	results := make([][]string, len(models.FacetFields))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range models.FacetFields {
		i, f := i, f
		g.Go(func() error {
			return store.WithSession(gctx, c.store, "distinct", c.logger, func(ctx context.Context, sess store.Session) error {
				list, err := sess.Distinct(ctx, f)
				if err != nil {
					return err
				}
				results[i] = clean(list)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	values := make(Values, len(models.FacetFields))
	for i, f := range models.FacetFields {
		values[f] = results[i]
	}
	c.logger.Debug("loaded facets from store", map[string]interface{}{"fields": len(values)})
	return values, nil
}

// clean drops blank values, which would read as "unset" in a selector.
func clean(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Catalog) readCache(ctx context.Context) (Values, bool) {
	if c.cache == nil {
		return nil, false
	}

	raw, err := c.cache.Get(ctx, c.cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.FacetCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.FacetCacheLookups.WithLabelValues("error").Inc()
			c.logger.Warn("facet cache read failed", map[string]interface{}{"key": c.cacheKey, "error": err})
		}
		return nil, false
	}

	var values Values
	if err := json.Unmarshal(raw, &values); err != nil {
		metrics.FacetCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("discarding undecodable cached facets", map[string]interface{}{"key": c.cacheKey, "error": err})
		return nil, false
	}
	for f := range values {
		if !models.IsFacetField(f) {
			metrics.FacetCacheLookups.WithLabelValues("error").Inc()
			c.logger.Warn("discarding cached facets with unknown field", map[string]interface{}{"key": c.cacheKey, "field": string(f)})
			return nil, false
		}
	}
	metrics.FacetCacheLookups.WithLabelValues("hit").Inc()
	return values.Clone(), true
}

func (c *Catalog) writeCache(ctx context.Context, values Values) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("facet cache write failed", map[string]interface{}{"key": c.cacheKey, "error": err})
	}
}
