// internal/explorer/controller/controller.go
package controller

import (
	"context"
	"errors"
	"sync"

	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/explorer/criteria"
	"signal-explorer/internal/explorer/facets"
	"signal-explorer/internal/explorer/grouping"
	"signal-explorer/internal/explorer/query"
	"signal-explorer/internal/models"
)

// ErrSuperseded is returned by an Apply overtaken by a later one.
var ErrSuperseded = errors.New("SUPERSEDED")

type Action string

const (
	ActionApply  Action = "apply"
	ActionFacets Action = "facets"
)

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Criteria   []criteria.Entry
	FilterText string
	Records    []models.Record
	Groups     *grouping.Groups
	Facets     facets.Values
	Errors     map[Action]error
}

// Controller owns the filter selection and the last applied result. Apply
// and facet loads are the only blocking calls; a newer Apply cancels the
// one in flight and the older result is discarded.
type Controller struct {
	source Source
	logger logger.Logger

	mu       sync.Mutex
	criteria *criteria.Set
	records  []models.Record
	facets   facets.Values
	errs     map[Action]error
	seq      uint64
	cancel   context.CancelFunc
}

func New(source Source, log logger.Logger) *Controller {
	return &Controller{
		source:   source,
		logger:   log.WithFields(map[string]interface{}{"component": "controller"}),
		criteria: criteria.New(),
		records:  []models.Record{},
		errs:     make(map[Action]error),
	}
}

// Set selects value for field; a blank value unsets it.
func (c *Controller) Set(field models.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria.Set(field, value)
}

func (c *Controller) Clear(field models.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.Clear(field)
}

func (c *Controller) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.ClearAll()
}

// FilterText renders the selection as "Country: India, End_year: 2020".
func (c *Controller) FilterText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria.Text()
}

// Apply fetches the records matching the current selection. On failure the
// previous records stay in place.
func (c *Controller) Apply(ctx context.Context) ([]models.Record, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	q := query.Build(c.criteria)
	c.mu.Unlock()
	defer cancel()

	recs, err := c.source.Fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("discarding superseded apply", map[string]interface{}{"seq": seq, "latest": c.seq})
		return nil, ErrSuperseded
	}
	c.cancel = nil

	if err != nil {
		c.errs[ActionApply] = err
		c.logger.Warn("apply failed", map[string]interface{}{"filters": len(q), "error": err})
		return nil, err
	}

	delete(c.errs, ActionApply)
	c.records = recs
	return copyRecords(recs), nil
}

// LoadFacets loads the selector options. On failure the previous options
// stay in place.
func (c *Controller) LoadFacets(ctx context.Context) (facets.Values, error) {
	return c.storeFacets(c.source.Facets(ctx))
}

// RefreshFacets reloads the options bypassing any cache.
func (c *Controller) RefreshFacets(ctx context.Context) (facets.Values, error) {
	return c.storeFacets(c.source.RefreshFacets(ctx))
}

func (c *Controller) storeFacets(values facets.Values, err error) (facets.Values, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.errs[ActionFacets] = err
		c.logger.Warn("facet load failed", map[string]interface{}{"error": err})
		return nil, err
	}
	delete(c.errs, ActionFacets)
	c.facets = values.Clone()
	return values.Clone(), nil
}

// LastError returns the error of the most recent failed action, or nil
// once that action has succeeded again.
func (c *Controller) LastError(a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs[a]
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := make(map[Action]error, len(c.errs))
	for k, v := range c.errs {
		errs[k] = v
	}
	var fv facets.Values
	if c.facets != nil {
		fv = c.facets.Clone()
	}
	return Snapshot{
		Criteria:   c.criteria.Entries(),
		FilterText: c.criteria.Text(),
		Records:    copyRecords(c.records),
		Groups:     grouping.GroupBy(c.records, grouping.ByTitle),
		Facets:     fv,
		Errors:     errs,
	}
}

func copyRecords(in []models.Record) []models.Record {
	out := make([]models.Record, len(in))
	copy(out, in)
	return out
}
