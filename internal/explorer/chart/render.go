// internal/explorer/chart/render.go
package chart

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/metrics"
	"signal-explorer/internal/explorer/grouping"
)

// NoDataMessage is drawn in place of a chart when nothing matched.
const NoDataMessage = "No data available."

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG, "":
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported chart format: %s", s)
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatPNG {
		return gochart.PNG
	}
	return gochart.SVG
}

// RenderGroup lays out one group and draws it to w.
func RenderGroup(w io.Writer, title string, records []grouping.ProjectedRecord, opts Options, format Format) error {
	c, err := Layout(title, records, opts)
	if err != nil {
		metrics.ChartsRendered.WithLabelValues(string(format), "error").Inc()
		return apperrors.NewRenderFailedError(title, err)
	}
	if err := Render(w, c, format); err != nil {
		metrics.ChartsRendered.WithLabelValues(string(format), "error").Inc()
		return apperrors.NewRenderFailedError(title, err)
	}
	metrics.ChartsRendered.WithLabelValues(string(format), "success").Inc()
	return nil
}

// RenderEmpty draws the placeholder shown when no records matched.
func RenderEmpty(w io.Writer, opts Options, format Format) error {
	c := &Chart{
		Width:  opts.Width,
		Height: opts.Height + opts.Caption,
		Texts: []Text{{
			X: float64(opts.Width) / 2, Y: float64(opts.Height) / 2,
			Body: NoDataMessage, Size: 18, Color: "#666666", Anchor: AnchorMiddle,
		}},
	}
	if err := Render(w, c, format); err != nil {
		return apperrors.NewRenderFailedError("", err)
	}
	return nil
}

// Render draws c with the go-chart renderer for format.
func Render(w io.Writer, c *Chart, format Format) error {
	r, err := format.provider()(c.Width, c.Height)
	if err != nil {
		return err
	}
	r.SetDPI(72)

	font, err := gochart.GetDefaultFont()
	if err != nil {
		return err
	}

	fillRect(r, Rect{W: float64(c.Width), H: float64(c.Height), Color: "#FFFFFF", Opacity: 1})
	for _, s := range c.Shades {
		fillRect(r, s)
	}
	for _, b := range c.Bars {
		fillRect(r, b)
	}
	for _, l := range c.Guides {
		strokeLine(r, l)
	}
	for _, l := range c.Axes {
		strokeLine(r, l)
	}
	for _, l := range c.Legend {
		fillRect(r, l)
	}
	for _, t := range c.Texts {
		r.ResetStyle()
		r.SetFont(font)
		if format == FormatSVG {
			t.Body = html.EscapeString(t.Body)
		}
		drawText(r, t)
	}
	return r.Save(w)
}

func color(hex string, opacity float64) drawing.Color {
	col := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	if opacity > 0 && opacity < 1 {
		col = col.WithAlpha(uint8(math.Round(opacity * 255)))
	}
	return col
}

func px(v float64) int { return int(math.Round(v)) }

func fillRect(r gochart.Renderer, rect Rect) {
	if rect.W <= 0 || rect.H <= 0 {
		return
	}
	r.ResetStyle()
	r.SetFillColor(color(rect.Color, rect.Opacity))
	r.SetStrokeColor(drawing.ColorTransparent)
	r.SetStrokeWidth(0)
	r.MoveTo(px(rect.X), px(rect.Y))
	r.LineTo(px(rect.X+rect.W), px(rect.Y))
	r.LineTo(px(rect.X+rect.W), px(rect.Y+rect.H))
	r.LineTo(px(rect.X), px(rect.Y+rect.H))
	r.Close()
	r.Fill()
}

func strokeLine(r gochart.Renderer, l Line) {
	r.ResetStyle()
	r.SetStrokeColor(color(l.Color, 1))
	r.SetStrokeWidth(l.Width)
	if len(l.Dash) > 0 {
		r.SetStrokeDashArray(l.Dash)
	}
	r.MoveTo(px(l.X1), px(l.Y1))
	r.LineTo(px(l.X2), px(l.Y2))
	r.Stroke()
}

func drawText(r gochart.Renderer, t Text) {
	r.SetFontColor(color(t.Color, 1))
	r.SetFontSize(t.Size)

	x := t.X
	if t.Rotation == 0 {
		width := float64(r.MeasureText(t.Body).Width())
		switch t.Anchor {
		case AnchorMiddle:
			x -= width / 2
		case AnchorEnd:
			x -= width
		}
		r.Text(t.Body, px(x), px(t.Y))
		return
	}

	r.SetTextRotation(t.Rotation)
	r.Text(t.Body, px(x), px(t.Y))
	r.ClearTextRotation()
}
