// internal/explorer/chart/layout.go
package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/explorer/grouping"
)

// ErrEmptyGroup is returned when asked to lay out a group without records.
var ErrEmptyGroup = errors.New("EMPTY_GROUP")

// UnsetYear labels the band of records without an end year.
const UnsetYear = "n/a"

const (
	tickCount    = 10
	bandPadding  = 0.8
	guideDash    = 5.0
	shadeOpacity = 0.1
	legendX      = 800.0
	legendY      = 400.0
)

// Metric is one plotted series.
type Metric struct {
	Name  string
	Color string
	Value func(grouping.ProjectedRecord) float64
}

// Metrics are drawn left to right within each band.
var Metrics = []Metric{
	{Name: "Intensity", Color: "#4682B4", Value: func(r grouping.ProjectedRecord) float64 { return r.Intensity }},
	{Name: "Relevance", Color: "#FF9800", Value: func(r grouping.ProjectedRecord) float64 { return r.Relevance }},
	{Name: "Likelihood", Color: "#4CAF50", Value: func(r grouping.ProjectedRecord) float64 { return r.Likelihood }},
}

type Margin struct {
	Top, Right, Bottom, Left float64
}

type Options struct {
	Width  int
	Height int
	// Caption is extra canvas height below the plot for the title.
	Caption       int
	Margin        Margin
	CategoryOrder string
}

func DefaultOptions() Options {
	return Options{
		Width:         928,
		Height:        500,
		Caption:       40,
		Margin:        Margin{Top: 50, Right: 100, Bottom: 30, Left: 40},
		CategoryOrder: config.OrderAscending,
	}
}

// OptionsFromConfig applies the chart section of the configuration.
func OptionsFromConfig(cfg config.ChartConfig) Options {
	opts := DefaultOptions()
	if cfg.Width > 0 {
		opts.Width = cfg.Width
	}
	if cfg.Height > 0 {
		opts.Height = cfg.Height
	}
	if cfg.CategoryOrder != "" {
		opts.CategoryOrder = cfg.CategoryOrder
	}
	return opts
}

type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

type Rect struct {
	X, Y, W, H float64
	Color      string
	Opacity    float64
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Color          string
	Width          float64
	Dash           []float64
}

type Text struct {
	X, Y   float64
	Body   string
	Size   float64
	Color  string
	Anchor Anchor
	// Rotation in radians, counter-clockwise negative.
	Rotation float64
}

// Chart is a laid out group, ready for a drawing surface. Slices are drawn
// in field order.
type Chart struct {
	Title      string
	Width      int
	Height     int
	Categories []string
	Domain     [2]float64
	Ticks      []float64

	Shades []Rect
	Bars   []Rect
	Guides []Line
	Axes   []Line
	Legend []Rect
	Texts  []Text
}

// Layout computes scales and primitives for one group. Country, region and
// topic annotations come from the first record.
func Layout(title string, records []grouping.ProjectedRecord, opts Options) (*Chart, error) {
	if len(records) == 0 {
		return nil, ErrEmptyGroup
	}

	m := opts.Margin
	w, h := float64(opts.Width), float64(opts.Height)
	baseline := h - m.Bottom

	categories := Categories(records, opts.CategoryOrder)
	x := NewBandScale(categories, m.Left, w-m.Right, bandPadding, bandPadding, 0.5)
	y := NewLinearScale(0, domainMax(records), baseline, m.Top).Nice(tickCount)
	d0, d1 := y.Domain()

	c := &Chart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height + opts.Caption,
		Categories: categories,
		Domain:     [2]float64{d0, d1},
		Ticks:      y.Ticks(tickCount),
	}

	barWidth := x.Bandwidth() / 4
	spacing := barWidth * 0.2

	for _, r := range records {
		x0, _ := x.Position(category(r))
		for i, metric := range Metrics {
			v := math.Max(metric.Value(r), 0)
			top := y.Map(v)
			c.Bars = append(c.Bars, Rect{
				X: x0 + float64(i)*(barWidth+spacing), Y: top,
				W: barWidth, H: y.Map(0) - top,
				Color: metric.Color, Opacity: 1,
			})
			c.Guides = append(c.Guides, Line{
				X1: x0, Y1: top, X2: m.Left, Y2: top,
				Color: metric.Color, Width: 2, Dash: []float64{guideDash, guideDash},
			})
			c.Shades = append(c.Shades, Rect{
				X: m.Left, Y: top, W: x0 - m.Left, H: baseline - top,
				Color: metric.Color, Opacity: shadeOpacity,
			})
		}
	}

	c.addAxes(x, y, opts)
	c.addLabels(title, records[0], opts)
	c.addLegend()
	return c, nil
}

func (c *Chart) addAxes(x *BandScale, y *LinearScale, opts Options) {
	m := opts.Margin
	w, h := float64(opts.Width), float64(opts.Height)
	baseline := h - m.Bottom
	const axisColor = "#000000"

	c.Axes = append(c.Axes,
		Line{X1: m.Left, Y1: baseline, X2: w - m.Right, Y2: baseline, Color: axisColor, Width: 1},
		Line{X1: m.Left, Y1: y.Map(c.Domain[1]), X2: m.Left, Y2: baseline, Color: axisColor, Width: 1},
	)

	for _, cat := range c.Categories {
		x0, _ := x.Position(cat)
		center := x0 + x.Bandwidth()/2
		c.Axes = append(c.Axes, Line{X1: center, Y1: baseline, X2: center, Y2: baseline + 6, Color: axisColor, Width: 1})
		c.Texts = append(c.Texts, Text{X: center, Y: baseline + 18, Body: cat, Size: 10, Color: axisColor, Anchor: AnchorMiddle})
	}

	for _, t := range c.Ticks {
		py := y.Map(t)
		c.Axes = append(c.Axes, Line{X1: m.Left - 6, Y1: py, X2: m.Left, Y2: py, Color: axisColor, Width: 1})
		c.Texts = append(c.Texts, Text{X: m.Left - 9, Y: py + 3, Body: formatTick(t), Size: 10, Color: axisColor, Anchor: AnchorEnd})
	}

	c.Texts = append(c.Texts,
		Text{X: m.Left + (w-m.Right-m.Left)/2, Y: baseline + 30, Body: "End Year", Size: 12, Color: "#333333", Anchor: AnchorMiddle},
		Text{X: 12, Y: m.Top + (baseline-m.Top)/2, Body: "Score", Size: 12, Color: "#333333", Anchor: AnchorMiddle, Rotation: -math.Pi / 2},
	)
}

// addLabels annotates from the group's first record. Groups are assumed to
// share one country, region and topic.
func (c *Chart) addLabels(title string, first grouping.ProjectedRecord, opts Options) {
	m := opts.Margin
	w, h := float64(opts.Width), float64(opts.Height)
	right := w - m.Right - 10

	c.Texts = append(c.Texts,
		Text{X: w / 2, Y: h - m.Bottom + 50, Body: "Trends Analysis for " + title, Size: 18, Color: "#333333", Anchor: AnchorMiddle},
		Text{X: right, Y: m.Top, Body: "Country: " + first.Country, Size: 14, Color: "#666666", Anchor: AnchorEnd},
		Text{X: right, Y: m.Top + 14*1.2, Body: "Region: " + first.Region, Size: 14, Color: "#666666", Anchor: AnchorEnd},
		Text{X: right, Y: m.Top + 40, Body: "Topic: " + first.Topic, Size: 14, Color: "#666666", Anchor: AnchorEnd},
	)
}

func (c *Chart) addLegend() {
	for i, metric := range Metrics {
		offset := float64(i) * 20
		c.Legend = append(c.Legend, Rect{X: legendX, Y: legendY + offset, W: 10, H: 10, Color: metric.Color, Opacity: 1})
		c.Texts = append(c.Texts, Text{X: legendX + 15, Y: legendY + offset + 10, Body: metric.Name, Size: 12, Color: "#000000"})
	}
}

// Categories returns one band label per distinct end year. Unset years
// share the UnsetYear band, always last.
func Categories(records []grouping.ProjectedRecord, order string) []string {
	var (
		years    []int
		seen     = make(map[int]bool)
		hasUnset bool
	)
	for _, r := range records {
		if r.EndYear == nil {
			hasUnset = true
			continue
		}
		if !seen[*r.EndYear] {
			seen[*r.EndYear] = true
			years = append(years, *r.EndYear)
		}
	}
	if order != config.OrderFirstSeen {
		sort.Ints(years)
	}

	out := make([]string, 0, len(years)+1)
	for _, y := range years {
		out = append(out, strconv.Itoa(y))
	}
	if hasUnset {
		out = append(out, UnsetYear)
	}
	return out
}

func category(r grouping.ProjectedRecord) string {
	if r.EndYear == nil {
		return UnsetYear
	}
	return strconv.Itoa(*r.EndYear)
}

// domainMax is the largest plotted value, or 1 when nothing is positive so
// the axis still has a span.
func domainMax(records []grouping.ProjectedRecord) float64 {
	hi := 0.0
	for _, r := range records {
		for _, metric := range Metrics {
			hi = math.Max(hi, metric.Value(r))
		}
	}
	if hi <= 0 || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return 1
	}
	return hi
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return fmt.Sprintf("%g", v)
}
