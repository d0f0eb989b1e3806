// internal/explorer/controller/source.go
package controller

import (
	"context"
	"net/url"
	"time"

	apphttp "signal-explorer/internal/common/http"
	"signal-explorer/internal/explorer/facets"
	"signal-explorer/internal/explorer/records"
	"signal-explorer/internal/models"
)

// Source supplies records and facets to a controller.
type Source interface {
	Fetch(ctx context.Context, q models.Query) ([]models.Record, error)
	Facets(ctx context.Context) (facets.Values, error)
	RefreshFacets(ctx context.Context) (facets.Values, error)
}

// LocalSource reads the store directly.
type LocalSource struct {
	fetcher *records.Fetcher
	catalog *facets.Catalog
}

func NewLocalSource(fetcher *records.Fetcher, catalog *facets.Catalog) *LocalSource {
	return &LocalSource{fetcher: fetcher, catalog: catalog}
}

func (s *LocalSource) Fetch(ctx context.Context, q models.Query) ([]models.Record, error) {
	return s.fetcher.Fetch(ctx, q)
}

func (s *LocalSource) Facets(ctx context.Context) (facets.Values, error) {
	return s.catalog.Load(ctx)
}

func (s *LocalSource) RefreshFacets(ctx context.Context) (facets.Values, error) {
	return s.catalog.Refresh(ctx)
}

// RemoteSource talks to a running explorer API.
type RemoteSource struct {
	client *apphttp.Client
}

func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	return &RemoteSource{client: apphttp.NewClient(baseURL, timeout)}
}

type recordsResponse struct {
	Country []models.Record `json:"country"`
}

// Fetch sends q as query parameters; the server coerces them again, which
// round-trips because numbers are sent in canonical form.
func (s *RemoteSource) Fetch(ctx context.Context, q models.Query) ([]models.Record, error) {
	params := url.Values{}
	for _, f := range q.Fields() {
		params.Set(string(f), q[f].Str())
	}

	var resp recordsResponse
	if err := s.client.GetJSON(ctx, "/records", params, &resp); err != nil {
		return nil, err
	}
	if resp.Country == nil {
		resp.Country = []models.Record{}
	}
	return resp.Country, nil
}

func (s *RemoteSource) Facets(ctx context.Context) (facets.Values, error) {
	var values facets.Values
	if err := s.client.GetJSON(ctx, "/facets", nil, &values); err != nil {
		return nil, err
	}
	return values.Clone(), nil
}

func (s *RemoteSource) RefreshFacets(ctx context.Context) (facets.Values, error) {
	var values facets.Values
	if err := s.client.PostJSON(ctx, "/facets/refresh", &values); err != nil {
		return nil, err
	}
	return values.Clone(), nil
}
