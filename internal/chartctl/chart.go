package chartctl

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// Chart mirrors one page-side chart handler. It owns the main candle series
// and an ordered collection of child series; creation order is what the
// legend shows.
type Chart struct {
	Pane
	main             *CandleSeries
	children         []*SeriesBase
	scaleCandlesOnly bool
	width            float64
	height           float64
	hotkeyTokens     []string

	newBarObservers []func(seriesID string)
}

func newChart(w *Window, opts ChartOptions) (*Chart, error) {
	c := &Chart{
		Pane:             w.newPane(),
		scaleCandlesOnly: opts.ScaleCandlesOnly,
		width:            opts.Width,
		height:           opts.Height,
	}
	position := opts.Position
	if position == "" {
		position = "left"
	}
	script := fmt.Sprintf(`%s = new Lib.Handler("%s", %v, %v, %s, %s)`,
		c.id, c.id, opts.Width, opts.Height, jsString(position), jsBool(opts.Autosize))
	if err := c.RunScript(script); err != nil {
		return nil, err
	}
	c.main = newCandleSeries(c)
	return c, nil
}

// Main returns the chart's candle series.
func (c *Chart) Main() *CandleSeries { return c.main }

// SetData replaces the main series data.
func (c *Chart) SetData(recs []timeseries.Record) error { return c.main.SetData(recs) }

// Update sends one OHLC bar to the main series.
func (c *Chart) Update(rec timeseries.Record) error { return c.main.Update(rec) }

// UpdateFromTick folds one trade into the main series.
func (c *Chart) UpdateFromTick(rec timeseries.Record, cumulative bool) error {
	return c.main.UpdateFromTick(rec, cumulative)
}

// Marker places a marker on the main series.
func (c *Chart) Marker(opts MarkerOptions) (string, error) { return c.main.Marker(opts) }

// OnNewBar registers an observer notified when any bar series on this chart
// opens a new bar. The argument is the series' page-side id.
func (c *Chart) OnNewBar(fn func(seriesID string)) {
	c.newBarObservers = append(c.newBarObservers, fn)
}

func (c *Chart) emitNewBar(seriesID string) {
	for _, fn := range c.newBarObservers {
		fn(seriesID)
	}
}

func (c *Chart) childBases() []*SeriesBase { return c.children }

// Children returns the child series bases in creation order.
func (c *Chart) Children() []*SeriesBase {
	out := make([]*SeriesBase, len(c.children))
	copy(out, c.children)
	return out
}

func (c *Chart) removeChildByID(id string) {
	for i, child := range c.children {
		if child.id == id {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

// CreateLine adds a line series to the chart.
func (c *Chart) CreateLine(opts LineOptions) (*LineSeries, error) {
	s, err := newLineSeries(c, opts)
	if err != nil {
		return nil, err
	}
	c.children = append(c.children, &s.SeriesBase)
	return s, nil
}

// CreateHistogram adds a histogram series to the chart.
func (c *Chart) CreateHistogram(opts HistogramOptions) (*HistogramSeries, error) {
	s, err := newHistogramSeries(c, opts)
	if err != nil {
		return nil, err
	}
	c.children = append(c.children, &s.SeriesBase)
	return s, nil
}

// CreateArea adds an area series to the chart.
func (c *Chart) CreateArea(opts AreaOptions) (*AreaSeries, error) {
	s, err := newAreaSeries(c, opts)
	if err != nil {
		return nil, err
	}
	c.children = append(c.children, &s.SeriesBase)
	return s, nil
}

// CreateBar adds an OHLC bar series to the chart.
func (c *Chart) CreateBar(opts BarOptions) (*BarSeries, error) {
	s, err := newBarSeries(c, opts)
	if err != nil {
		return nil, err
	}
	c.children = append(c.children, &s.SeriesBase)
	return s, nil
}

// Fit stretches the time scale so all data fits the viewport.
func (c *Chart) Fit() error {
	return c.RunScript(c.id + `.chart.timeScale().fitContent()`)
}

// SetVisibleRange scrolls the time scale to show [from, to].
func (c *Chart) SetVisibleRange(from, to any) error {
	start, err := timeseries.ParseTime(from)
	if err != nil {
		return newError(CodeValidation, "unparseable range start", err)
	}
	end, err := timeseries.ParseTime(to)
	if err != nil {
		return newError(CodeValidation, "unparseable range end", err)
	}
	return c.RunScript(fmt.Sprintf(`%s.chart.timeScale().setVisibleRange({
    from: %d,
    to: %d
})`, c.id, start.Unix(), end.Unix()))
}

// Resize changes the chart's share of the window. Dimensions are fractions
// between 0 and 1; a zero keeps the current value.
func (c *Chart) Resize(width, height float64) error {
	if width > 0 {
		c.width = width
	}
	if height > 0 {
		c.height = height
	}
	return c.RunScript(fmt.Sprintf(`%s.scale.width = %v
%s.scale.height = %v
%s.reSize()`, c.id, c.width, c.id, c.height, c.id))
}

// ApplyTimeScale styles the time axis.
func (c *Chart) ApplyTimeScale(opts TimeScaleOptions) error {
	return c.RunScript(c.id + `.chart.applyOptions({timeScale: ` + jsJSON(opts) + `})`)
}

// ApplyLayout styles the chart background and text.
func (c *Chart) ApplyLayout(opts LayoutOptions) error {
	layout := map[string]any{
		"background": map[string]any{"color": opts.BackgroundColor},
	}
	if opts.TextColor != "" {
		layout["textColor"] = opts.TextColor
	}
	if opts.FontSize != 0 {
		layout["fontSize"] = opts.FontSize
	}
	if opts.FontFamily != "" {
		layout["fontFamily"] = opts.FontFamily
	}
	return c.RunScript(`document.getElementById('container').style.backgroundColor = ` + jsString(opts.BackgroundColor) + `
` + c.id + `.chart.applyOptions({layout: ` + jsJSON(layout) + `})`)
}

// ApplyGrid styles the grid lines.
func (c *Chart) ApplyGrid(opts GridOptions) error {
	style, err := opts.Style.jsEnum()
	if err != nil {
		return err
	}
	vert := map[string]any{"visible": opts.VertEnabled, "color": opts.Color, "style": style}
	horz := map[string]any{"visible": opts.HorzEnabled, "color": opts.Color, "style": style}
	payload := map[string]any{"vertLines": vert, "horzLines": horz}
	return c.RunScript(c.id + `.chart.applyOptions({grid: ` + jsJSON(payload) + `})`)
}

// ApplyCrosshair styles the crosshair axes.
func (c *Chart) ApplyCrosshair(opts CrosshairOptions) error {
	mode, err := opts.Mode.jsEnum()
	if err != nil {
		return err
	}
	vertStyle, err := opts.VertStyle.jsEnum()
	if err != nil {
		return err
	}
	horzStyle, err := opts.HorzStyle.jsEnum()
	if err != nil {
		return err
	}
	vert := map[string]any{
		"visible":              opts.VertVisible,
		"width":                opts.VertWidth,
		"style":                vertStyle,
		"labelBackgroundColor": opts.VertLabelBackgroundColor,
	}
	if opts.VertColor != "" {
		vert["color"] = opts.VertColor
	}
	horz := map[string]any{
		"visible":              opts.HorzVisible,
		"width":                opts.HorzWidth,
		"style":                horzStyle,
		"labelBackgroundColor": opts.HorzLabelBackgroundColor,
	}
	if opts.HorzColor != "" {
		horz["color"] = opts.HorzColor
	}
	payload := map[string]any{"mode": mode, "vertLine": vert, "horzLine": horz}
	return c.RunScript(c.id + `.chart.applyOptions({crosshair: ` + jsJSON(payload) + `})`)
}

// ApplyWatermark places centered text behind the series.
func (c *Chart) ApplyWatermark(opts WatermarkOptions) error {
	payload := map[string]any{
		"visible":   true,
		"horzAlign": "center",
		"vertAlign": "center",
		"text":      opts.Text,
		"fontSize":  opts.FontSize,
		"color":     opts.Color,
	}
	return c.RunScript(c.id + `.chart.applyOptions({watermark: ` + jsJSON(payload) + `})`)
}

// ApplyLegend configures the in-chart legend.
func (c *Chart) ApplyLegend(opts LegendOptions) error {
	legend := c.id + `.legend`
	if !opts.Visible {
		return c.RunScript(legend + `.div.style.display = "none"
` + legend + `.ohlcEnabled = false
` + legend + `.percentEnabled = false
` + legend + `.linesEnabled = false`)
	}
	return c.RunScript(legend + `.div.style.display = 'flex'
` + legend + `.ohlcEnabled = ` + jsBool(opts.OHLC) + `
` + legend + `.percentEnabled = ` + jsBool(opts.Percent) + `
` + legend + `.linesEnabled = ` + jsBool(opts.Lines) + `
` + legend + `.colorBasedOnCandle = ` + jsBool(opts.ColorBasedOnCandle) + `
` + legend + `.div.style.color = ` + jsString(opts.Color) + `
` + legend + `.color = ` + jsString(opts.Color) + `
` + legend + `.div.style.fontSize = ` + jsString(fmt.Sprintf("%dpx", opts.FontSize)) + `
` + legend + `.div.style.fontFamily = ` + jsString(opts.FontFamily) + `
` + legend + `.text.innerText = ` + jsString(opts.Text))
}

// Spinner toggles the chart's loading spinner.
func (c *Chart) Spinner(visible bool) error {
	display := "none"
	if visible {
		display = "block"
	}
	return c.RunScript(c.id + `.spinner.style.display = '` + display + `'`)
}

// Screenshot captures the chart and returns the PNG bytes. The window must
// be visible.
func (c *Chart) Screenshot(ctx context.Context) ([]byte, error) {
	res, err := c.win.EvaluateAndWait(ctx, c.id+`.chart.takeScreenshot().toDataURL()`)
	if err != nil {
		return nil, err
	}
	i := strings.Index(res, ",")
	if i < 0 {
		return nil, newError(CodeEvalFailure, "screenshot did not return a data url", nil)
	}
	data, err := base64.StdEncoding.DecodeString(res[i+1:])
	if err != nil {
		return nil, newError(CodeEvalFailure, "screenshot payload is not base64", err)
	}
	return data, nil
}

// hotkeyToken builds the deterministic routing key for one binding.
func hotkeyToken(modifier, key string) string {
	if modifier == "" {
		return "hotkey:" + key
	}
	return "hotkey:" + modifier + "+" + key
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return len(s) > 0
}

// Hotkey binds fn to one or more keys, optionally requiring a modifier
// (ctrl, alt, shift or meta). The page intercepts the combination, prevents
// its default action, and posts the key back; fn receives the key pressed.
func (c *Chart) Hotkey(modifier string, keys []string, fn func(key string)) error {
	switch modifier {
	case "", "ctrl", "alt", "shift", "meta":
	default:
		return newError(CodeValidation, fmt.Sprintf("unknown modifier key %q", modifier), nil)
	}
	if len(keys) == 0 {
		return newError(CodeValidation, "no keys given", nil)
	}
	for _, key := range keys {
		var condition string
		if len(key) == 1 && isAlnum(key) {
			code := "Key" + strings.ToUpper(key)
			if key >= "0" && key <= "9" {
				code = "Digit" + key
			}
			condition = `event.code === ` + jsString(code)
		} else {
			condition = `event.key === ` + jsString(key)
		}
		if modifier != "" {
			condition += ` && event.` + modifier + `Key`
		}
		token := hotkeyToken(modifier, key)
		script := c.id + `.commandFunctions.unshift((event) => {
    if (` + condition + `) {
        event.preventDefault()
        window.callbackFunction(` + jsString(token+callbackDelim+key) + `)
        return true
    }
    else return false
})`
		if err := c.RunScript(script); err != nil {
			return err
		}
		c.win.channel.RegisterHandler(token, fn)
		c.hotkeyTokens = append(c.hotkeyTokens, token)
	}
	return nil
}

// ReleaseHotkeys unregisters every key binding the chart installed. The
// page-side interceptors stay in place but their callbacks stop routing.
func (c *Chart) ReleaseHotkeys() {
	for _, token := range c.hotkeyTokens {
		c.win.channel.UnregisterHandler(token)
	}
	c.hotkeyTokens = nil
}

// CreateSubChart adds another chart to the window. A non-empty SyncID ties
// the subchart's time scale (or just the crosshair) to that chart once the
// page has loaded everything else.
func (c *Chart) CreateSubChart(opts SubChartOptions) (*Chart, error) {
	sub, err := newChart(c.win, ChartOptions{
		Width:            opts.Width,
		Height:           opts.Height,
		Position:         opts.Position,
		Autosize:         true,
		ScaleCandlesOnly: opts.ScaleCandlesOnly,
	})
	if err != nil {
		return nil, err
	}
	if opts.SyncID == "" {
		return sub, nil
	}
	err = c.win.RunScriptLast(fmt.Sprintf(`Lib.Handler.syncCharts(
    %s,
    %s,
    %s
)`, sub.ID(), opts.SyncID, jsBool(opts.SyncCrosshairsOnly)))
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateTable adds a floating table widget through the owning window.
func (c *Chart) CreateTable(opts TableOptions) (*Table, error) {
	return c.win.CreateTable(opts)
}

// CreateSynchronizedTooltip shows a crosshair-following tooltip over this
// chart and, when given, the listed extra charts. Returns the tooltip's id.
func (c *Chart) CreateSynchronizedTooltip(charts []*Chart, opts TooltipOptions) (string, error) {
	id := c.win.ids.Generate()
	payload := map[string]any{"showOHLC": opts.ShowOHLC}
	if opts.BackgroundColor != "" {
		payload["backgroundColor"] = opts.BackgroundColor
	}
	if opts.TextColor != "" {
		payload["textColor"] = opts.TextColor
	}
	if err := c.RunScript(id + ` = new Lib.SynchronizedTooltip(` + c.id + `.chart, ` + jsJSON(payload) + `);`); err != nil {
		return "", err
	}

	for _, child := range c.children {
		if err := c.RunScript(id + `.addSeries(` + c.id + `.chart, ` + child.id + `.series, ` + jsString(child.name) + `)`); err != nil {
			return "", err
		}
	}
	if err := c.RunScript(id + `.addSeries(` + c.id + `.chart, ` + c.id + `.series, "Price")`); err != nil {
		return "", err
	}
	for _, other := range charts {
		if err := c.RunScript(id + `.addSeries(` + other.id + `.chart, ` + other.id + `.series, "Main")`); err != nil {
			return "", err
		}
		for _, child := range other.children {
			if err := c.RunScript(id + `.addSeries(` + other.id + `.chart, ` + child.id + `.series, ` + jsString(child.name) + `)`); err != nil {
				return "", err
			}
		}
	}

	if opts.TriggerKey != "" {
		var script string
		if opts.ToggleMode {
			script = `document.addEventListener('keydown', function(e) {
    if (e.key === ` + jsString(opts.TriggerKey) + `) {
        ` + id + `.toggleVisibility();
    }
});`
		} else {
			script = `document.addEventListener('keydown', function(e) {
    if (e.key === ` + jsString(opts.TriggerKey) + `) {
        ` + id + `.setEnabled(true);
    }
});
document.addEventListener('keyup', function(e) {
    if (e.key === ` + jsString(opts.TriggerKey) + `) {
        ` + id + `.setEnabled(false);
    }
});`
		}
		if err := c.RunScript(script); err != nil {
			return "", err
		}
	}

	if opts.TriggerClick {
		var script string
		if opts.ToggleMode {
			script = c.id + `.chart.subscribeClick(function(param) {
    ` + id + `.toggleVisibility();
});`
		} else {
			script = c.id + `.chart.subscribeClick(function(param) {
    ` + id + `.setEnabled(true);
    setTimeout(function() { ` + id + `.setEnabled(false); }, 3000);
});`
		}
		if err := c.RunScript(script); err != nil {
			return "", err
		}
	}
	return id, nil
}
