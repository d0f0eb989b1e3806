// internal/explorer/chart/layout_test.go
package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/explorer/grouping"
	"signal-explorer/internal/models"
)

func group() []grouping.ProjectedRecord {
	return []grouping.ProjectedRecord{
		{Title: "Oil demand", Country: "India", Region: "Southern Asia", Topic: "oil", EndYear: models.IntPtr(2020), Intensity: 10, Relevance: 20, Likelihood: 30},
		{Title: "Oil demand", Country: "Nepal", Region: "Asia", Topic: "gas", EndYear: models.IntPtr(2017), Intensity: 20, Relevance: 10, Likelihood: 10},
		{Title: "Oil demand", Country: "India", Region: "Southern Asia", Topic: "oil", Intensity: 30, Relevance: 30, Likelihood: 20},
	}
}

func texts(c *Chart) []string {
	var out []string
	for _, t := range c.Texts {
		out = append(out, t.Body)
	}
	return out
}

// ==========================
// Layout
// ==========================

func TestLayout_EmptyGroup(t *testing.T) {
	_, err := Layout("x", nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestLayout_SharedNiceDomain(t *testing.T) {
	c, err := Layout("Oil demand", group(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, [2]float64{0, 30}, c.Domain)
	assert.Equal(t, 0.0, c.Ticks[0])
	assert.Equal(t, 30.0, c.Ticks[len(c.Ticks)-1])
}

func TestLayout_AllZeroGroup(t *testing.T) {
	c, err := Layout("flat", []grouping.ProjectedRecord{{EndYear: models.IntPtr(2020)}}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0, 1}, c.Domain)
	for _, b := range c.Bars {
		assert.Zero(t, b.H)
	}
}

func TestLayout_Categories(t *testing.T) {
	tests := []struct {
		order string
		want  []string
	}{
		{config.OrderAscending, []string{"2017", "2020", UnsetYear}},
		{config.OrderFirstSeen, []string{"2020", "2017", UnsetYear}},
	}

	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			opts := DefaultOptions()
			opts.CategoryOrder = tt.order
			c, err := Layout("Oil demand", group(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Categories)
		})
	}
}

func TestLayout_Bars(t *testing.T) {
	opts := DefaultOptions()
	c, err := Layout("Oil demand", group(), opts)
	require.NoError(t, err)

	require.Len(t, c.Bars, 9)
	require.Len(t, c.Guides, 9)
	require.Len(t, c.Shades, 9)

	x := NewBandScale(c.Categories, 40, 828, 0.8, 0.8, 0.5)
	barWidth := x.Bandwidth() / 4
	x0, _ := x.Position("2020")

	intensity, relevance, likelihood := c.Bars[0], c.Bars[1], c.Bars[2]
	assert.Equal(t, "#4682B4", intensity.Color)
	assert.Equal(t, "#FF9800", relevance.Color)
	assert.Equal(t, "#4CAF50", likelihood.Color)

	assert.InDelta(t, x0, intensity.X, 1e-9)
	assert.InDelta(t, x0+barWidth*1.2, relevance.X, 1e-9)
	assert.InDelta(t, x0+barWidth*2.4, likelihood.X, 1e-9)
	assert.InDelta(t, barWidth, intensity.W, 1e-9)

	// likelihood 30 reaches the top margin
	assert.InDelta(t, 50, likelihood.Y, 1e-9)
	assert.InDelta(t, 420, likelihood.H, 1e-9)

	guide := c.Guides[2]
	assert.Equal(t, []float64{5, 5}, guide.Dash)
	assert.Equal(t, 40.0, guide.X2)
	assert.InDelta(t, x0, guide.X1, 1e-9)

	shade := c.Shades[2]
	assert.Equal(t, 0.1, shade.Opacity)
	assert.Equal(t, 40.0, shade.X)
	assert.InDelta(t, x0-40, shade.W, 1e-9)
	assert.InDelta(t, 420, shade.H, 1e-9)
}

func TestLayout_LabelsAndLegend(t *testing.T) {
	c, err := Layout("Oil demand", group(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 928, c.Width)
	assert.Equal(t, 540, c.Height)

	body := texts(c)
	assert.Contains(t, body, "Trends Analysis for Oil demand")
	assert.Contains(t, body, "Country: India", "annotations come from the first record")
	assert.Contains(t, body, "Region: Southern Asia")
	assert.Contains(t, body, "Topic: oil")
	assert.NotContains(t, body, "Country: Nepal")
	assert.Contains(t, body, "End Year")
	assert.Contains(t, body, "Score")
	assert.Contains(t, body, "Intensity")
	assert.Contains(t, body, "Relevance")
	assert.Contains(t, body, "Likelihood")

	require.Len(t, c.Legend, 3)
	assert.Equal(t, Rect{X: 800, Y: 400, W: 10, H: 10, Color: "#4682B4", Opacity: 1}, c.Legend[0])
	assert.Equal(t, 440.0, c.Legend[2].Y)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.ChartConfig{Width: 640, CategoryOrder: config.OrderFirstSeen})
	assert.Equal(t, 640, opts.Width)
	assert.Equal(t, 500, opts.Height)
	assert.Equal(t, config.OrderFirstSeen, opts.CategoryOrder)
}
