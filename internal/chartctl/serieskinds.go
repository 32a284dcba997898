package chartctl

import (
	"encoding/json"
	"fmt"

	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

func jsPriceScaleID(id string) string {
	if id == "" {
		return "undefined"
	}
	return jsString(id)
}

// candlesOnlyAutoscale pins a child series out of autoscale range so only the
// candles drive the visible price range.
const candlesOnlyAutoscale = `
            autoscaleInfoProvider: () => ({
                priceRange: {
                    minValue: 1000000000,
                    maxValue: 0,
                },
            }),`

func autoscaleSnippet(chart *Chart) string {
	if chart.scaleCandlesOnly {
		return candlesOnlyAutoscale
	}
	return ""
}

// LineSeries mirrors a page-side line series.
type LineSeries struct {
	SeriesBase
	Color        string
	Group        string
	LegendSymbol string
}

func newLineSeries(chart *Chart, opts LineOptions) (*LineSeries, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	symbol := opts.LegendSymbol
	if symbol == "" {
		symbol = opts.Style.legendSymbol()
	}
	s := &LineSeries{
		SeriesBase:   newSeriesBase(chart, opts.Name),
		Color:        opts.Color,
		Group:        opts.Group,
		LegendSymbol: symbol,
	}
	script := fmt.Sprintf(`%s = %s.createLineSeries(
    %s,
    {
        group: %s,
        color: %s,
        lineStyle: %d,
        lineWidth: %d,
        lastValueVisible: %s,
        priceLineVisible: %s,
        crosshairMarkerVisible: true,
        legendSymbol: %s,
        priceScaleId: %s,%s
    }
)
null`, s.id, chart.ID(), jsString(opts.Name), jsString(opts.Group), jsString(opts.Color),
		style, opts.Width, jsBool(opts.PriceLabel), jsBool(opts.PriceLine),
		jsString(symbol), jsPriceScaleID(opts.PriceScaleID), autoscaleSnippet(chart))
	if err := s.RunScript(script); err != nil {
		return nil, err
	}
	return s, nil
}

// HistogramSeries mirrors a page-side histogram series on its own price
// scale.
type HistogramSeries struct {
	SeriesBase
	Color        string
	Group        string
	LegendSymbol string
}

func newHistogramSeries(chart *Chart, opts HistogramOptions) (*HistogramSeries, error) {
	s := &HistogramSeries{
		SeriesBase:   newSeriesBase(chart, opts.Name),
		Color:        opts.Color,
		Group:        opts.Group,
		LegendSymbol: opts.LegendSymbol,
	}
	script := fmt.Sprintf(`%s = %s.createHistogramSeries(
    %s,
    {
        group: %s,
        color: %s,
        lastValueVisible: %s,
        priceLineVisible: %s,
        legendSymbol: %s,
        priceScaleId: %s,
        priceFormat: {type: "volume"}
    }
)
%s.series.priceScale().applyOptions({
    scaleMargins: {top: %v, bottom: %v}
})`, s.id, chart.ID(), jsString(opts.Name), jsString(opts.Group), jsString(opts.Color),
		jsBool(opts.PriceLabel), jsBool(opts.PriceLine), jsString(opts.LegendSymbol),
		jsString(s.id), s.id, opts.ScaleMarginTop, opts.ScaleMarginBottom)
	if err := s.RunScript(script); err != nil {
		return nil, err
	}
	return s, nil
}

// Scale moves the histogram's vertical placement.
func (h *HistogramSeries) Scale(marginTop, marginBottom float64) error {
	return h.RunScript(fmt.Sprintf(`%s.series.priceScale().applyOptions({
    scaleMargins: {top: %v, bottom: %v}
})`, h.id, marginTop, marginBottom))
}

// AreaSeries mirrors a page-side area series.
type AreaSeries struct {
	SeriesBase
	Color        string
	TopColor     string
	BottomColor  string
	Group        string
	LegendSymbol string
}

func newAreaSeries(chart *Chart, opts AreaOptions) (*AreaSeries, error) {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return nil, err
	}
	s := &AreaSeries{
		SeriesBase:   newSeriesBase(chart, opts.Name),
		Color:        opts.LineColor,
		TopColor:     opts.TopColor,
		BottomColor:  opts.BottomColor,
		Group:        opts.Group,
		LegendSymbol: opts.LegendSymbol,
	}
	script := fmt.Sprintf(`%s = %s.createAreaSeries(
    %s,
    {
        group: %s,
        topColor: %s,
        bottomColor: %s,
        invertFilledArea: %s,
        color: %s,
        lineColor: %s,
        lineStyle: %d,
        lineWidth: %d,
        lastValueVisible: %s,
        priceLineVisible: %s,
        crosshairMarkerVisible: true,
        legendSymbol: %s,
        priceScaleId: %s,%s
    }
)
null`, s.id, chart.ID(), jsString(opts.Name), jsString(opts.Group), jsString(opts.TopColor),
		jsString(opts.BottomColor), jsBool(opts.Invert), jsString(opts.LineColor),
		jsString(opts.LineColor), style, opts.Width, jsBool(opts.PriceLabel),
		jsBool(opts.PriceLine), jsString(opts.LegendSymbol),
		jsPriceScaleID(opts.PriceScaleID), autoscaleSnippet(chart))
	if err := s.RunScript(script); err != nil {
		return nil, err
	}
	return s, nil
}

// BarSeries mirrors a page-side OHLC bar series.
type BarSeries struct {
	SeriesBase
	UpColor       string
	DownColor     string
	Group         string
	LegendSymbols [2]string
}

func newBarSeries(chart *Chart, opts BarOptions) (*BarSeries, error) {
	s := &BarSeries{
		SeriesBase:    newSeriesBase(chart, opts.Name),
		UpColor:       opts.UpColor,
		DownColor:     opts.DownColor,
		Group:         opts.Group,
		LegendSymbols: opts.LegendSymbols,
	}
	symbols, _ := json.Marshal(opts.LegendSymbols[:])
	script := fmt.Sprintf(`%s = %s.createBarSeries(
    %s,
    {
        group: %s,
        color: %s,
        upColor: %s,
        downColor: %s,
        openVisible: %s,
        thinBars: %s,
        lastValueVisible: %s,
        priceLineVisible: %s,
        legendSymbol: %s,
        priceScaleId: %s
    }
)`, s.id, chart.ID(), jsString(opts.Name), jsString(opts.Group), jsString(opts.UpColor),
		jsString(opts.UpColor), jsString(opts.DownColor), jsBool(opts.OpenVisible),
		jsBool(opts.ThinBars), jsBool(opts.PriceLabel), jsBool(opts.PriceLine),
		string(symbols), jsPriceScaleID(opts.PriceScaleID))
	if err := s.RunScript(script); err != nil {
		return nil, err
	}
	return s, nil
}

// Update sends one bar and notifies new-bar observers when a new bucket
// opens.
func (b *BarSeries) Update(rec timeseries.Record) error {
	if b.lastRow == nil {
		return newError(CodePrecondition, "series updated before data was set", nil)
	}
	formatted, err := b.formatRecord(rec)
	if err != nil {
		return err
	}
	newBar := b.applyBar(formatted)
	if err := b.RunScript(b.id + `.series.update(` + jsJSON(formatted) + `)`); err != nil {
		return err
	}
	if newBar && b.chart != nil {
		b.chart.emitNewBar(b.id)
	}
	return nil
}
