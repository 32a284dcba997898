package chartctl

import (
	"fmt"

	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// Drawing is the host-side handle of a page-side drawing primitive.
type Drawing struct {
	Pane
	deleted bool
}

// Delete removes the drawing from the page. Safe to call more than once.
func (d *Drawing) Delete() error {
	if d.deleted {
		return nil
	}
	d.deleted = true
	return d.RunScript(`if (typeof ` + d.id + ` !== "undefined") { ` + d.id + `.deleteInstance() }
delete ` + d.id)
}

// Deleted reports whether Delete already ran.
func (d *Drawing) Deleted() bool { return d.deleted }

// drawingTime converts a drawing vertex to unix seconds, snapping it onto
// the series' time grid when round is set.
func (s *SeriesBase) drawingTime(v any, round bool) (int64, error) {
	t, err := timeseries.ParseTime(v)
	if err != nil {
		return 0, newError(CodeValidation, "unparseable drawing time", err)
	}
	if round {
		return s.norm.Align(t), nil
	}
	return t.Unix(), nil
}

// HorizontalLineOptions configures a price level line.
type HorizontalLineOptions struct {
	Price            float64
	Color            string
	Width            int
	Style            LineStyle
	Text             string
	AxisLabelVisible bool
}

func DefaultHorizontalLineOptions(price float64) HorizontalLineOptions {
	return HorizontalLineOptions{
		Price:            price,
		Color:            "rgb(122, 146, 202)",
		Width:            2,
		Style:            LineSolid,
		AxisLabelVisible: true,
	}
}

// HorizontalLine is a movable price level line.
type HorizontalLine struct {
	Drawing
	Price float64
}

// HorizontalLine draws a price level across the series.
func (s *SeriesBase) HorizontalLine(opts HorizontalLineOptions) (*HorizontalLine, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	h := &HorizontalLine{
		Drawing: Drawing{Pane: s.win.newPane()},
		Price:   opts.Price,
	}
	script := fmt.Sprintf(`%s = new Lib.HorizontalLine(%s.series, {
    price: %v,
    color: %s,
    width: %d,
    style: %d,
    text: %s,
    axisLabelVisible: %s
})`, h.id, s.id, opts.Price, jsString(opts.Color), opts.Width, style,
		jsString(opts.Text), jsBool(opts.AxisLabelVisible))
	if err := h.RunScript(script); err != nil {
		return nil, err
	}
	return h, nil
}

// Update moves the line to a new price.
func (h *HorizontalLine) Update(price float64) error {
	if h.deleted {
		return newError(CodePrecondition, "horizontal line was deleted", nil)
	}
	h.Price = price
	return h.RunScript(fmt.Sprintf(`%s.updatePrice(%v)`, h.id, price))
}

// VerticalLineOptions configures a time level line.
type VerticalLineOptions struct {
	Time  any
	Color string
	Width int
	Style LineStyle
	Text  string
}

func DefaultVerticalLineOptions(t any) VerticalLineOptions {
	return VerticalLineOptions{Time: t, Color: "#1E80F0", Width: 2, Style: LineSolid}
}

// VerticalLine draws a vertical line on the chart at one time.
func (s *SeriesBase) VerticalLine(opts VerticalLineOptions) (*Drawing, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	stamp, err := s.drawingTime(opts.Time, true)
	if err != nil {
		return nil, err
	}
	d := &Drawing{Pane: s.win.newPane()}
	script := fmt.Sprintf(`%s = new Lib.VerticalLine(%s.chart, %s.series, {
    time: %d,
    color: %s,
    width: %d,
    style: %d,
    text: %s
})`, d.id, s.chart.ID(), s.id, stamp, jsString(opts.Color), opts.Width, style, jsString(opts.Text))
	if err := d.RunScript(script); err != nil {
		return nil, err
	}
	return d, nil
}

// TrendLineOptions configures a two-point trend line. Round snaps the vertex
// times onto the series' time grid.
type TrendLineOptions struct {
	StartTime  any
	StartValue float64
	EndTime    any
	EndValue   float64
	Round      bool
	LineColor  string
	Width      int
	Style      LineStyle
}

func DefaultTrendLineOptions() TrendLineOptions {
	return TrendLineOptions{LineColor: "#1E80F0", Width: 2, Style: LineSolid}
}

// TrendLine draws a line between two time/value points.
func (s *SeriesBase) TrendLine(opts TrendLineOptions) (*Drawing, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	start, err := s.drawingTime(opts.StartTime, opts.Round)
	if err != nil {
		return nil, err
	}
	end, err := s.drawingTime(opts.EndTime, opts.Round)
	if err != nil {
		return nil, err
	}
	d := &Drawing{Pane: s.win.newPane()}
	script := fmt.Sprintf(`%s = new Lib.TrendLine(%s.chart, %s.series,
    {time: %d, price: %v},
    {time: %d, price: %v},
    {
        lineColor: %s,
        width: %d,
        style: %d
    }
)`, d.id, s.chart.ID(), s.id, start, opts.StartValue, end, opts.EndValue,
		jsString(opts.LineColor), opts.Width, style)
	if err := d.RunScript(script); err != nil {
		return nil, err
	}
	return d, nil
}

// BoxOptions configures a filled rectangle between two time/value corners.
type BoxOptions struct {
	StartTime  any
	StartValue float64
	EndTime    any
	EndValue   float64
	Round      bool
	Color      string
	FillColor  string
	Width      int
	Style      LineStyle
}

func DefaultBoxOptions() BoxOptions {
	return BoxOptions{
		Color:     "#1E80F0",
		FillColor: "rgba(255, 255, 255, 0.2)",
		Width:     2,
		Style:     LineSolid,
	}
}

// Box draws a filled rectangle between two corners.
func (s *SeriesBase) Box(opts BoxOptions) (*Drawing, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	start, err := s.drawingTime(opts.StartTime, opts.Round)
	if err != nil {
		return nil, err
	}
	end, err := s.drawingTime(opts.EndTime, opts.Round)
	if err != nil {
		return nil, err
	}
	d := &Drawing{Pane: s.win.newPane()}
	script := fmt.Sprintf(`%s = new Lib.Box(%s.chart, %s.series,
    {time: %d, price: %v},
    {time: %d, price: %v},
    {
        color: %s,
        fillColor: %s,
        width: %d,
        style: %d
    }
)`, d.id, s.chart.ID(), s.id, start, opts.StartValue, end, opts.EndValue,
		jsString(opts.Color), jsString(opts.FillColor), opts.Width, style)
	if err := d.RunScript(script); err != nil {
		return nil, err
	}
	return d, nil
}

// RayLineOptions configures a ray from a point to the right edge.
type RayLineOptions struct {
	StartTime any
	Value     float64
	Round     bool
	Color     string
	Width     int
	Style     LineStyle
	Text      string
}

func DefaultRayLineOptions() RayLineOptions {
	return RayLineOptions{Color: "#1E80F0", Width: 2, Style: LineSolid}
}

// RayLine draws a horizontal ray from a starting time to the right edge.
func (s *SeriesBase) RayLine(opts RayLineOptions) (*Drawing, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	start, err := s.drawingTime(opts.StartTime, opts.Round)
	if err != nil {
		return nil, err
	}
	d := &Drawing{Pane: s.win.newPane()}
	script := fmt.Sprintf(`%s = new Lib.RayLine(%s.series, {
    time: %d,
    price: %v,
    color: %s,
    width: %d,
    style: %d,
    text: %s
})`, d.id, s.id, start, opts.Value, jsString(opts.Color), opts.Width, style, jsString(opts.Text))
	if err := d.RunScript(script); err != nil {
		return nil, err
	}
	return d, nil
}

// VerticalSpanOptions configures a shaded span. With no EndTime the span
// collapses to a single highlighted bar.
type VerticalSpanOptions struct {
	StartTime any
	EndTime   any
	Color     string
	Round     bool
}

func DefaultVerticalSpanOptions() VerticalSpanOptions {
	return VerticalSpanOptions{Color: "rgba(252, 219, 3, 0.2)"}
}

// VerticalSpan shades the chart between two times.
func (s *SeriesBase) VerticalSpan(opts VerticalSpanOptions) (*Drawing, error) {
	start, err := s.drawingTime(opts.StartTime, opts.Round)
	if err != nil {
		return nil, err
	}
	end := "null"
	if opts.EndTime != nil {
		stamp, err := s.drawingTime(opts.EndTime, opts.Round)
		if err != nil {
			return nil, err
		}
		end = fmt.Sprintf("%d", stamp)
	}
	d := &Drawing{Pane: s.win.newPane()}
	script := fmt.Sprintf(`%s = new Lib.VerticalSpan(%s.chart, %d, %s, %s)`,
		d.id, s.chart.ID(), start, end, jsString(opts.Color))
	if err := d.RunScript(script); err != nil {
		return nil, err
	}
	return d, nil
}
