// internal/api/handlers.go
package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/explorer/chart"
	"signal-explorer/internal/explorer/criteria"
	"signal-explorer/internal/explorer/facets"
	"signal-explorer/internal/explorer/grouping"
	"signal-explorer/internal/explorer/query"
	"signal-explorer/internal/explorer/records"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

type Handler struct {
	store     store.Store
	fetcher   *records.Fetcher
	catalog   *facets.Catalog
	chartOpts chart.Options
	errs      *apperrors.ErrorHandler
	log       logger.Logger
}

func NewHandler(s store.Store, fetcher *records.Fetcher, catalog *facets.Catalog, opts chart.Options, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"component": "handlers"})
	return &Handler{
		store:     s,
		fetcher:   fetcher,
		catalog:   catalog,
		chartOpts: opts,
		errs:      apperrors.NewErrorHandler(log),
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/records", h.GetRecords)
	e.GET("/facets", h.GetFacets)
	e.POST("/facets/refresh", h.RefreshFacets)
	e.GET("/charts", h.GetCharts)
	e.GET("/charts/image", h.GetChartImage)
}

type recordsResponse struct {
	Country []models.Record `json:"country"`
}

// fetch runs the query selected by the request's criteria parameters.
func (h *Handler) fetch(c echo.Context) ([]models.Record, *criteria.Set, error) {
	sel := criteria.FromValues(c.QueryParams())
	recs, err := h.fetcher.Fetch(c.Request().Context(), query.Build(sel))
	return recs, sel, err
}

func (h *Handler) GetRecords(c echo.Context) error {
	recs, _, err := h.fetch(c)
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(http.StatusOK, recordsResponse{Country: recs})
}

func (h *Handler) GetFacets(c echo.Context) error {
	values, err := h.catalog.Load(c.Request().Context())
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(http.StatusOK, values)
}

func (h *Handler) RefreshFacets(c echo.Context) error {
	values, err := h.catalog.Refresh(c.Request().Context())
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.JSON(http.StatusOK, values)
}

// GetCharts renders one inline SVG chart per title group of the matched
// records.
func (h *Handler) GetCharts(c echo.Context) error {
	recs, sel, err := h.fetch(c)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	view := pageView{Filter: sel.Text()}
	if view.Filter == "" {
		view.Filter = "All"
	}

	groups := grouping.GroupBy(recs, grouping.ByTitle)
	for _, g := range groups.List() {
		var buf bytes.Buffer
		if err := chart.RenderGroup(&buf, g.Key, g.Records, h.chartOpts, chart.FormatSVG); err != nil {
			return h.errs.Respond(c, err)
		}
		view.Charts = append(view.Charts, chartView{Title: g.Key, SVG: inlineSVG(buf.Bytes())})
	}

	var page bytes.Buffer
	if err := chartsPage.Execute(&page, view); err != nil {
		return h.errs.Respond(c, err)
	}
	return c.HTMLBlob(http.StatusOK, page.Bytes())
}

// GetChartImage renders the chart of a single title group. An unknown title
// yields the empty-state image.
func (h *Handler) GetChartImage(c echo.Context) error {
	format, err := chart.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return h.errs.Respond(c, apperrors.NewInvalidRequestError(err.Error()))
	}

	title := c.QueryParam("title")
	if title == "" {
		return h.errs.Respond(c, apperrors.NewInvalidRequestError("title is required"))
	}

	recs, _, err := h.fetch(c)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	var buf bytes.Buffer
	if g, ok := grouping.GroupBy(recs, grouping.ByTitle).Get(title); ok {
		err = chart.RenderGroup(&buf, g.Key, g.Records, h.chartOpts, format)
	} else {
		err = chart.RenderEmpty(&buf, h.chartOpts, format)
	}
	if err != nil {
		return h.errs.Respond(c, err)
	}
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready opens and closes one store session.
func (h *Handler) Ready(c echo.Context) error {
	if err := store.Ping(c.Request().Context(), h.store, h.log); err != nil {
		stdErr := h.errs.Normalize(err)
		return c.JSON(http.StatusServiceUnavailable, apperrors.Payload{
			Error: stdErr.Error(),
			Code:  string(stdErr.Code),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready", "driver": h.store.Driver()})
}
