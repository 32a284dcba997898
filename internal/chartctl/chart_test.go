package chartctl

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestHotkeyRoutesStructuredToken(t *testing.T) {
	chart, f := newTestChart(t)

	var pressed []string
	err := chart.Hotkey("ctrl", []string{"1", "s"}, func(key string) {
		pressed = append(pressed, key)
	})
	if err != nil {
		t.Fatalf("Hotkey: %v", err)
	}

	bindings := f.withSubstring("commandFunctions.unshift")
	if len(bindings) != 2 {
		t.Fatalf("bindings = %d, want 2", len(bindings))
	}
	if !strings.Contains(bindings[0], `event.code === "Digit1"`) || !strings.Contains(bindings[0], "event.ctrlKey") {
		t.Fatalf("digit binding = %q", bindings[0])
	}
	if !strings.Contains(bindings[1], `event.code === "KeyS"`) {
		t.Fatalf("letter binding = %q", bindings[1])
	}

	chart.win.HandleCallback("hotkey:ctrl+1" + callbackDelim + "1")
	chart.win.HandleCallback("hotkey:ctrl+s" + callbackDelim + "s")
	if len(pressed) != 2 || pressed[0] != "1" || pressed[1] != "s" {
		t.Fatalf("pressed = %v", pressed)
	}
}

func TestHotkeyRejectsUnknownModifier(t *testing.T) {
	chart, _ := newTestChart(t)
	err := chart.Hotkey("hyper", []string{"x"}, func(string) {})
	assertCode(t, err, CodeValidation)
}

func TestScreenshotDecodesDataURL(t *testing.T) {
	chart, _ := newTestChart(t)
	f := chart.win.channel

	inner := f.exec
	f.exec = func(script string) error {
		if err := inner(script); err != nil {
			return err
		}
		if strings.Contains(script, "takeScreenshot") {
			// "fakepng" in base64.
			f.HandleCallback(evalReply(script, "data:image/png;base64,ZmFrZXBuZw=="))
		}
		return nil
	}

	data, err := chart.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if string(data) != "fakepng" {
		t.Fatalf("decoded = %q", data)
	}
}

func TestScreenshotRejectsNonDataURL(t *testing.T) {
	chart, _ := newTestChart(t)
	ch := chart.win.channel

	inner := ch.exec
	ch.exec = func(script string) error {
		if err := inner(script); err != nil {
			return err
		}
		if strings.Contains(script, "takeScreenshot") {
			ch.HandleCallback(evalReply(script, "undefined"))
		}
		return nil
	}

	_, err := chart.Screenshot(context.Background())
	assertCode(t, err, CodeEvalFailure)
}

func TestTimeScaleGolden(t *testing.T) {
	chart, f := newTestChart(t)
	if err := chart.ApplyTimeScale(DefaultTimeScaleOptions()); err != nil {
		t.Fatalf("ApplyTimeScale: %v", err)
	}
	got := f.scripts[len(f.scripts)-1]
	want := chart.ID() + `.chart.applyOptions({timeScale: {"rightOffset":0,"minBarSpacing":0.5,"visible":true,"timeVisible":true,"secondsVisible":false,"borderVisible":true}})`
	if got != want {
		t.Fatalf("script = %q\nwant %q", got, want)
	}
}

func TestOptionAppliers(t *testing.T) {
	chart, f := newTestChart(t)

	if err := chart.ApplyLayout(DefaultLayoutOptions()); err != nil {
		t.Fatalf("ApplyLayout: %v", err)
	}
	if len(f.withSubstring(`style.backgroundColor = "#000000"`)) == 0 {
		t.Fatal("layout did not set the container background")
	}

	if err := chart.ApplyGrid(DefaultGridOptions()); err != nil {
		t.Fatalf("ApplyGrid: %v", err)
	}
	if len(f.withSubstring(`"vertLines"`)) == 0 {
		t.Fatal("grid payload missing vertLines")
	}

	opts := DefaultCrosshairOptions()
	opts.Mode = CrosshairMagnet
	if err := chart.ApplyCrosshair(opts); err != nil {
		t.Fatalf("ApplyCrosshair: %v", err)
	}
	if len(f.withSubstring(`"mode":1`)) == 0 {
		t.Fatal("crosshair magnet mode not serialized")
	}

	if err := chart.ApplyWatermark(DefaultWatermarkOptions("DEMO")); err != nil {
		t.Fatalf("ApplyWatermark: %v", err)
	}
	if len(f.withSubstring(`"text":"DEMO"`)) == 0 {
		t.Fatal("watermark text missing")
	}

	legend := DefaultLegendOptions()
	legend.Visible = true
	if err := chart.ApplyLegend(legend); err != nil {
		t.Fatalf("ApplyLegend: %v", err)
	}
	if len(f.withSubstring(`.legend.div.style.display = 'flex'`)) == 0 {
		t.Fatal("legend not shown")
	}
	if err := chart.ApplyLegend(DefaultLegendOptions()); err != nil {
		t.Fatalf("ApplyLegend hide: %v", err)
	}
	if len(f.withSubstring(`.legend.div.style.display = "none"`)) == 0 {
		t.Fatal("legend not hidden")
	}
}

func TestFitResizeAndVisibleRange(t *testing.T) {
	chart, f := newTestChart(t)

	if err := chart.Fit(); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(f.withSubstring("fitContent()")) == 0 {
		t.Fatal("fit script not sent")
	}

	if err := chart.Resize(0.5, 0); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	wantResize := chart.ID() + ".scale.width = 0.5\n" +
		chart.ID() + ".scale.height = 1\n" +
		chart.ID() + ".reSize()"
	if got := f.scripts[len(f.scripts)-1]; got != wantResize {
		t.Fatalf("resize script = %q\nwant %q", got, wantResize)
	}

	if err := chart.SetVisibleRange("2023-06-01", "2023-06-02"); err != nil {
		t.Fatalf("SetVisibleRange: %v", err)
	}
	from := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	if len(f.withSubstring("setVisibleRange")) == 0 {
		t.Fatal("range script not sent")
	}
	found := false
	for _, s := range f.withSubstring("setVisibleRange") {
		if strings.Contains(s, "from: "+strconv.FormatInt(from, 10)) {
			found = true
		}
	}
	if !found {
		t.Fatalf("range start %d missing from scripts", from)
	}
}

func TestSubChartSyncRunsLast(t *testing.T) {
	chart, f := newTestChart(t)

	opts := DefaultSubChartOptions()
	opts.SyncID = chart.ID()
	sub, err := chart.CreateSubChart(opts)
	if err != nil {
		t.Fatalf("CreateSubChart: %v", err)
	}
	if sub.ID() == chart.ID() {
		t.Fatal("subchart shares the parent id")
	}
	syncs := f.withSubstring("Lib.Handler.syncCharts")
	if len(syncs) != 1 || !strings.Contains(syncs[0], chart.ID()) {
		t.Fatalf("sync scripts = %v", syncs)
	}
}

func TestSynchronizedTooltip(t *testing.T) {
	chart, f := newTestChart(t)
	if _, err := chart.CreateLine(DefaultLineOptions("sma")); err != nil {
		t.Fatalf("CreateLine: %v", err)
	}

	opts := DefaultTooltipOptions()
	opts.TriggerKey = "t"
	id, err := chart.CreateSynchronizedTooltip(nil, opts)
	if err != nil {
		t.Fatalf("CreateSynchronizedTooltip: %v", err)
	}
	if id == "" {
		t.Fatal("empty tooltip id")
	}
	if len(f.withSubstring("new Lib.SynchronizedTooltip")) != 1 {
		t.Fatal("tooltip not constructed")
	}
	// One line plus the main series.
	if got := len(f.withSubstring(id + ".addSeries(")); got != 2 {
		t.Fatalf("addSeries calls = %d, want 2", got)
	}
	if len(f.withSubstring("keydown")) == 0 {
		t.Fatal("trigger key listener missing")
	}
}

func TestWindowStyle(t *testing.T) {
	w, f := newTestWindow(t)
	if err := w.Style(DefaultRootStyleOptions()); err != nil {
		t.Fatalf("Style: %v", err)
	}
	if len(f.withSubstring("Lib.Handler.setRootStyles(")) != 1 {
		t.Fatal("root style script not sent")
	}
}

func TestSpinner(t *testing.T) {
	chart, f := newTestChart(t)
	if err := chart.Spinner(true); err != nil {
		t.Fatalf("Spinner: %v", err)
	}
	if len(f.withSubstring(".spinner.style.display = 'block'")) == 0 {
		t.Fatal("spinner show script not sent")
	}
}

func TestTableLifecycle(t *testing.T) {
	w, f := newTestWindow(t)

	opts := DefaultTableOptions("Symbol", "Price")
	opts.ReturnClickedCells = true
	table, err := w.CreateTable(opts)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	assertCode(t, table.NewRow("r1", []string{"only-one"}), CodeValidation)

	if err := table.NewRow("r1", []string{"AAPL", "190.1"}); err != nil {
		t.Fatalf("NewRow: %v", err)
	}
	assertCode(t, table.UpdateCell("r1", "Nope", "x"), CodeNoSuchColumn)
	if err := table.UpdateCell("r1", "Price", "191.0"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	var clicked [2]string
	table.OnClick(func(rowID, column string) { clicked = [2]string{rowID, column} })
	w.HandleCallback("table:" + table.ID() + callbackDelim + "r1;;;Price")
	if clicked != [2]string{"r1", "Price"} {
		t.Fatalf("click routed as %v", clicked)
	}

	if err := table.DeleteRow("ghost"); err != nil {
		t.Fatalf("DeleteRow unknown: %v", err)
	}
	if err := table.DeleteRow("r1"); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if len(table.Rows()) != 0 {
		t.Fatalf("rows left: %v", table.Rows())
	}

	if err := table.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := table.Delete(); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if len(f.withSubstring("delete "+table.ID())) != 1 {
		t.Fatal("table delete script count wrong")
	}
}

func TestDrawings(t *testing.T) {
	chart, f := newTestChart(t)
	if err := chart.SetData(minuteBars(3, "")); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	main := &chart.Main().SeriesBase

	hline, err := main.HorizontalLine(DefaultHorizontalLineOptions(101.5))
	if err != nil {
		t.Fatalf("HorizontalLine: %v", err)
	}
	if err := hline.Update(103.25); err != nil {
		t.Fatalf("hline Update: %v", err)
	}
	if len(f.withSubstring(hline.ID()+".updatePrice(103.25)")) != 1 {
		t.Fatal("hline update script not sent")
	}
	if err := hline.Delete(); err != nil {
		t.Fatalf("hline Delete: %v", err)
	}
	if err := hline.Delete(); err != nil {
		t.Fatalf("second hline Delete: %v", err)
	}
	assertCode(t, hline.Update(99.0), CodePrecondition)

	trend := DefaultTrendLineOptions()
	trend.StartTime = testBase.Add(10 * time.Second)
	trend.EndTime = testBase.Add(2 * time.Minute)
	trend.Round = true
	if _, err := main.TrendLine(trend); err != nil {
		t.Fatalf("TrendLine: %v", err)
	}
	// Round snaps the ragged start onto the minute grid.
	if len(f.withSubstring("{time: "+strconv.FormatInt(testBase.Unix(), 10))) == 0 {
		t.Fatal("trend start not aligned")
	}

	span := DefaultVerticalSpanOptions()
	span.StartTime = testBase
	if _, err := main.VerticalSpan(span); err != nil {
		t.Fatalf("VerticalSpan: %v", err)
	}
	spans := f.withSubstring("new Lib.VerticalSpan")
	if len(spans) != 1 || !strings.Contains(spans[0], "null") {
		t.Fatalf("span scripts = %v", spans)
	}

	box := DefaultBoxOptions()
	box.StartTime = testBase
	box.EndTime = testBase.Add(time.Minute)
	if _, err := main.Box(box); err != nil {
		t.Fatalf("Box: %v", err)
	}
	ray := DefaultRayLineOptions()
	ray.StartTime = testBase
	if _, err := main.RayLine(ray); err != nil {
		t.Fatalf("RayLine: %v", err)
	}
	vline := DefaultVerticalLineOptions(testBase.Add(time.Minute))
	if _, err := main.VerticalLine(vline); err != nil {
		t.Fatalf("VerticalLine: %v", err)
	}
}
