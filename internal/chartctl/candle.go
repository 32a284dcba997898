package chartctl

import (
	"fmt"

	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// CandleSeries is a chart's main OHLC series plus its volume sub-series.
type CandleSeries struct {
	SeriesBase
	volumeUpColor   string
	volumeDownColor string
}

func newCandleSeries(chart *Chart) *CandleSeries {
	defaults := DefaultVolumeConfigOptions()
	c := &CandleSeries{
		volumeUpColor:   defaults.UpColor,
		volumeDownColor: defaults.DownColor,
	}
	c.SeriesBase = SeriesBase{
		Pane:    chart.win.newPane(),
		chart:   chart,
		norm:    timeseries.NewNormalizer(),
		markers: make(map[string]timeseries.Record),
	}
	// The candle series shares the chart handler's identifier; the page
	// object already owns .series and .volumeSeries.
	c.Pane.id = chart.ID()
	return c
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (c *CandleSeries) volumeColor(bar timeseries.Record) string {
	open, _ := toFloat(bar["open"])
	close, _ := toFloat(bar["close"])
	if close > open {
		return c.volumeUpColor
	}
	return c.volumeDownColor
}

// SetData replaces the candle data, recolors and re-sends the volume
// sub-series, and re-feeds any child series whose value column is present in
// the batch.
func (c *CandleSeries) SetData(recs []timeseries.Record) error {
	if len(recs) == 0 {
		c.rows = nil
		c.lastRow = nil
		if err := c.RunScript(c.id + `.series.setData([])`); err != nil {
			return err
		}
		return c.RunScript(c.id + `.volumeSeries.setData([])`)
	}

	formatted, err := c.formatRecords(recs)
	if err != nil {
		return err
	}
	c.rows = formatted
	c.lastRow = formatted[len(formatted)-1]
	if err := c.RunScript(c.id + `.series.setData(` + jsJSON(formatted) + `)`); err != nil {
		return err
	}

	if _, ok := formatted[0]["volume"]; ok {
		volume := make([]timeseries.Record, len(formatted))
		for i, bar := range formatted {
			volume[i] = timeseries.Record{
				"time":  bar[timeseries.TimeKey],
				"value": bar["volume"],
				"color": c.volumeColor(bar),
			}
		}
		if err := c.RunScript(c.id + `.volumeSeries.setData(` + jsJSON(volume) + `)`); err != nil {
			return err
		}
	}

	if c.chart != nil {
		for _, child := range c.chart.childBases() {
			if child.name == "" {
				continue
			}
			if _, ok := formatted[0][child.name]; !ok {
				continue
			}
			sub := make([]timeseries.Record, len(formatted))
			for i, bar := range formatted {
				sub[i] = timeseries.Record{
					timeseries.TimeKey: bar[timeseries.TimeKey],
					"value":            bar[child.name],
				}
			}
			if err := child.setFormatted(sub); err != nil {
				return err
			}
		}
	}

	// Re-enable autoscale in case the user dragged the price scale.
	return c.RunScript(`if (!` + c.id + `.chart.priceScale("right").options.autoScale)
    ` + c.id + `.chart.priceScale("right").applyOptions({autoScale: true})`)
}

// Update sends one OHLC bar, overwriting the newest bar when the time
// matches and opening a new one when it is later.
func (c *CandleSeries) Update(rec timeseries.Record) error {
	if c.lastRow == nil {
		return newError(CodePrecondition, "series updated before data was set", nil)
	}
	formatted, err := c.formatRecord(rec)
	if err != nil {
		return err
	}
	return c.push(formatted)
}

func (c *CandleSeries) push(bar timeseries.Record) error {
	newBar := c.applyBar(bar)
	if err := c.RunScript(c.id + `.series.update(` + jsJSON(bar) + `)`); err != nil {
		return err
	}
	if newBar && c.chart != nil {
		c.chart.emitNewBar(c.id)
	}
	vol, ok := bar["volume"]
	if !ok {
		return nil
	}
	volRec := timeseries.Record{
		"time":  bar[timeseries.TimeKey],
		"value": vol,
		"color": c.volumeColor(bar),
	}
	return c.RunScript(c.id + `.volumeSeries.update(` + jsJSON(volRec) + `)`)
}

// UpdateFromTick folds a single trade into the bar grid: a tick inside the
// newest bar's bucket merges into it, a later bucket opens a new bar, and a
// tick before the newest bar is rejected. With cumulative set, tick volume
// adds onto the bar's volume instead of replacing it.
func (c *CandleSeries) UpdateFromTick(rec timeseries.Record, cumulative bool) error {
	if c.lastRow == nil {
		return newError(CodePrecondition, "tick received before data was set", nil)
	}
	formatted, err := c.formatRecord(rec)
	if err != nil {
		return err
	}
	price, ok := toFloat(formatted["price"])
	if !ok {
		return newError(CodeValidation, "tick has no numeric price", nil)
	}
	stamp, _ := formatted[timeseries.TimeKey].(int64)
	last, _ := c.lastRow[timeseries.TimeKey].(int64)
	if stamp < last {
		return newError(CodeOrderViolation,
			fmt.Sprintf("tick time %d is before the newest bar time %d", stamp, last), nil)
	}

	bar := timeseries.Record{}
	if stamp == last {
		for k, v := range c.lastRow {
			bar[k] = v
		}
		high, _ := toFloat(bar["high"])
		low, _ := toFloat(bar["low"])
		if price > high {
			bar["high"] = price
		}
		if price < low {
			bar["low"] = price
		}
		bar["close"] = price
		if tickVol, ok := toFloat(formatted["volume"]); ok {
			if cumulative {
				barVol, _ := toFloat(bar["volume"])
				bar["volume"] = barVol + tickVol
			} else {
				bar["volume"] = tickVol
			}
		}
	} else {
		bar[timeseries.TimeKey] = stamp
		for _, k := range []string{"open", "high", "low", "close"} {
			bar[k] = price
		}
		if tickVol, ok := toFloat(formatted["volume"]); ok {
			bar["volume"] = tickVol
		}
	}
	return c.push(bar)
}

// PriceScale applies price scale options to the candle series' scale.
func (c *CandleSeries) PriceScale(opts PriceScaleOptions) error {
	mode, err := opts.Mode.jsEnum()
	if err != nil {
		return err
	}
	payload := map[string]any{
		"autoScale":      opts.AutoScale,
		"mode":           mode,
		"invertScale":    opts.InvertScale,
		"alignLabels":    opts.AlignLabels,
		"scaleMargins":   map[string]any{"top": opts.ScaleMarginTop, "bottom": opts.ScaleMarginBottom},
		"borderVisible":  opts.BorderVisible,
		"entireTextOnly": opts.EntireTextOnly,
		"visible":        opts.Visible,
		"ticksVisible":   opts.TicksVisible,
		"minimumWidth":   opts.MinimumWidth,
	}
	if opts.BorderColor != "" {
		payload["borderColor"] = opts.BorderColor
	}
	if opts.TextColor != "" {
		payload["textColor"] = opts.TextColor
	}
	return c.RunScript(c.id + `.series.priceScale().applyOptions(` + jsJSON(payload) + `)`)
}

// CandleStyle colors the candle parts. Empty border and wick colors inherit
// the body colors.
func (c *CandleSeries) CandleStyle(opts CandleStyleOptions) error {
	if opts.BorderUpColor == "" {
		opts.BorderUpColor = opts.UpColor
	}
	if opts.BorderDownColor == "" {
		opts.BorderDownColor = opts.DownColor
	}
	if opts.WickUpColor == "" {
		opts.WickUpColor = opts.UpColor
	}
	if opts.WickDownColor == "" {
		opts.WickDownColor = opts.DownColor
	}
	payload := map[string]any{
		"upColor":         opts.UpColor,
		"downColor":       opts.DownColor,
		"wickVisible":     opts.WickVisible,
		"borderVisible":   opts.BorderVisible,
		"borderUpColor":   opts.BorderUpColor,
		"borderDownColor": opts.BorderDownColor,
		"wickUpColor":     opts.WickUpColor,
		"wickDownColor":   opts.WickDownColor,
	}
	return c.RunScript(c.id + `.series.applyOptions(` + jsJSON(payload) + `)`)
}

// VolumeConfig moves and recolors the volume sub-series. The margins must be
// in (0, 1); colors apply to bars set or updated afterwards.
func (c *CandleSeries) VolumeConfig(opts VolumeConfigOptions) error {
	if opts.UpColor != "" {
		c.volumeUpColor = opts.UpColor
	}
	if opts.DownColor != "" {
		c.volumeDownColor = opts.DownColor
	}
	return c.RunScript(fmt.Sprintf(`%s.volumeSeries.priceScale().applyOptions({
    scaleMargins: {top: %v, bottom: %v}
})`, c.id, opts.ScaleMarginTop, opts.ScaleMarginBottom))
}
