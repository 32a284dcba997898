package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/idgen"
	"github.com/dgnsrekt/lwc_agent/internal/snapshot"
	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// fakePage stands in for the web view: it records executed scripts and
// answers the sync-path probes the channel sends.
type fakePage struct {
	ch      *chartctl.Channel
	mu      sync.Mutex
	scripts []string
}

func (f *fakePage) exec(script string) error {
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	f.mu.Unlock()

	if strings.Contains(script, `document.readyState == "complete"`) {
		f.ch.HandleCallback(evalReply(script, "true"))
	} else if strings.Contains(script, "toDataURL") {
		f.ch.HandleCallback(evalReply(script, "data:image/png;base64,aW1hZ2U="))
	}
	return nil
}

// evalReply echoes a tagged evaluation script's return prefix back with the
// given value, the way the page posts results.
func evalReply(script, value string) string {
	start := strings.Index(script, `("`)
	if start < 0 {
		return ""
	}
	start += 2
	end := strings.Index(script[start:], `"`)
	if end < 0 {
		return ""
	}
	return script[start:start+end] + value
}

func (f *fakePage) count(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.scripts {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *fakePage) {
	t.Helper()
	page := &fakePage{}
	ch := chartctl.NewChannel(page.exec, 2*time.Second)
	page.ch = ch
	if err := ch.OnReady(); err != nil {
		t.Fatalf("OnReady() error = %v", err)
	}
	win := chartctl.NewWindow(ch, idgen.New("obj"))

	snaps, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return NewService(win, snaps), page
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *chartctl.CodedError
	if !errors.As(err, &coded) {
		t.Fatalf("expected *CodedError, got %v (%T)", err, err)
	}
	if coded.Code != code {
		t.Fatalf("error code = %s; want %s", coded.Code, code)
	}
}

func candleRows(n int) []timeseries.Record {
	base := time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC)
	rows := make([]timeseries.Record, 0, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		rows = append(rows, timeseries.Record{
			"time":   ts.Format("2006-01-02 15:04:05"),
			"open":   100.0 + float64(i),
			"high":   101.0 + float64(i),
			"low":    99.0 + float64(i),
			"close":  100.5 + float64(i),
			"volume": 1000.0,
			"sma":    100.2 + float64(i),
		})
	}
	return rows
}

func TestChartLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	info, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if info.ID == "" || info.Position != "left" {
		t.Fatalf("CreateChart() = %+v", info)
	}

	charts := svc.ListCharts()
	if len(charts) != 1 || charts[0].ID != info.ID {
		t.Fatalf("ListCharts() = %+v", charts)
	}

	got, err := svc.GetChart(info.ID)
	if err != nil || got.ID != info.ID {
		t.Fatalf("GetChart() = %+v, %v", got, err)
	}

	if _, err := svc.GetChart("nope"); err == nil {
		t.Fatal("GetChart(unknown) = nil; want error")
	} else {
		assertCode(t, err, chartctl.CodeValidation)
	}

	if err := svc.DeleteChart(info.ID); err != nil {
		t.Fatalf("DeleteChart() error = %v", err)
	}
	if err := svc.DeleteChart(info.ID); err != nil {
		t.Fatalf("DeleteChart() second call error = %v", err)
	}
	if len(svc.ListCharts()) != 0 {
		t.Fatal("chart still registered after delete")
	}
}

func TestDataPathThroughRegistry(t *testing.T) {
	svc, page := newTestService(t)

	info, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}

	rows := candleRows(3)
	if err := svc.SetData(info.ID, rows); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if page.count(".series.setData(") == 0 {
		t.Fatal("setData never reached the page")
	}

	next := candleRows(4)[3]
	if err := svc.Update(info.ID, next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	tick := timeseries.Record{"time": next["time"], "price": 130.0, "volume": 10.0}
	if err := svc.UpdateFromTick(info.ID, tick, false); err != nil {
		t.Fatalf("UpdateFromTick() error = %v", err)
	}

	if err := svc.SetData("nope", rows); err == nil {
		t.Fatal("SetData(unknown chart) = nil; want error")
	}
}

func TestSeriesRegistry(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}

	if _, err := svc.CreateLine(chart.ID, chartctl.LineOptions{}); err == nil {
		t.Fatal("CreateLine without name = nil; want validation error")
	}

	line, err := svc.CreateLine(chart.ID, chartctl.DefaultLineOptions("sma"))
	if err != nil {
		t.Fatalf("CreateLine() error = %v", err)
	}
	if line.Kind != "line" || line.ChartID != chart.ID {
		t.Fatalf("CreateLine() = %+v", line)
	}

	hist, err := svc.CreateHistogram(chart.ID, chartctl.DefaultHistogramOptions("vol"))
	if err != nil {
		t.Fatalf("CreateHistogram() error = %v", err)
	}

	listed, err := svc.ListSeries(chart.ID)
	if err != nil {
		t.Fatalf("ListSeries() error = %v", err)
	}
	if len(listed) != 2 || listed[0].ID != line.ID || listed[1].ID != hist.ID {
		t.Fatalf("ListSeries() = %+v; want creation order [line hist]", listed)
	}

	rows := []timeseries.Record{
		{"time": "2023-06-01 09:30:00", "sma": 100.1},
		{"time": "2023-06-01 09:31:00", "sma": 100.4},
	}
	if err := svc.SeriesSetData(line.ID, rows); err != nil {
		t.Fatalf("SeriesSetData() error = %v", err)
	}
	if err := svc.SeriesUpdate(line.ID, timeseries.Record{"time": "2023-06-01 09:32:00", "sma": 100.9}); err != nil {
		t.Fatalf("SeriesUpdate() error = %v", err)
	}

	if err := svc.DeleteSeries(line.ID); err != nil {
		t.Fatalf("DeleteSeries() error = %v", err)
	}
	if err := svc.DeleteSeries(line.ID); err != nil {
		t.Fatalf("DeleteSeries() repeat error = %v", err)
	}

	// Deleting the chart sweeps remaining series.
	if err := svc.DeleteChart(chart.ID); err != nil {
		t.Fatalf("DeleteChart() error = %v", err)
	}
	if err := svc.SeriesSetData(hist.ID, rows); err == nil {
		t.Fatal("series survived chart delete")
	}
}

func TestMarkersThroughService(t *testing.T) {
	svc, page := newTestService(t)

	chart, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if err := svc.SetData(chart.ID, candleRows(3)); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}

	id, err := svc.CreateMarker(chart.ID, "", chartctl.DefaultMarkerOptions())
	if err != nil {
		t.Fatalf("CreateMarker() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateMarker() returned empty id")
	}

	ids, err := svc.CreateMarkers(chart.ID, "", []chartctl.MarkerOptions{
		chartctl.DefaultMarkerOptions(),
		chartctl.DefaultMarkerOptions(),
	})
	if err != nil {
		t.Fatalf("CreateMarkers() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("CreateMarkers() ids = %v", ids)
	}

	markers, err := svc.ListMarkers(chart.ID, "")
	if err != nil {
		t.Fatalf("ListMarkers() error = %v", err)
	}
	if len(markers) != 3 {
		t.Fatalf("ListMarkers() len = %d; want 3", len(markers))
	}

	before := page.count("setMarkers(")
	if err := svc.RemoveMarker(chart.ID, "", id); err != nil {
		t.Fatalf("RemoveMarker() error = %v", err)
	}
	if page.count("setMarkers(") != before+1 {
		t.Fatal("RemoveMarker did not resend markers")
	}

	if err := svc.ClearMarkers(chart.ID, ""); err != nil {
		t.Fatalf("ClearMarkers() error = %v", err)
	}
	if _, err := svc.CreateMarkers(chart.ID, "", nil); err == nil {
		t.Fatal("CreateMarkers(empty) = nil; want validation error")
	}
}

func TestDrawingRegistry(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if err := svc.SetData(chart.ID, candleRows(3)); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}

	hline, err := svc.CreateHorizontalLine(chart.ID, chartctl.DefaultHorizontalLineOptions(101.5))
	if err != nil {
		t.Fatalf("CreateHorizontalLine() error = %v", err)
	}
	if hline.Kind != "horizontal_line" {
		t.Fatalf("drawing kind = %q", hline.Kind)
	}
	if err := svc.UpdateHorizontalLine(hline.ID, 102.25); err != nil {
		t.Fatalf("UpdateHorizontalLine() error = %v", err)
	}

	trend, err := svc.CreateTrendLine(chart.ID, func() chartctl.TrendLineOptions {
		o := chartctl.DefaultTrendLineOptions()
		o.StartTime = "2023-06-01 09:30:00"
		o.StartValue = 100
		o.EndTime = "2023-06-01 09:32:00"
		o.EndValue = 102
		return o
	}())
	if err != nil {
		t.Fatalf("CreateTrendLine() error = %v", err)
	}
	if err := svc.UpdateHorizontalLine(trend.ID, 1); err == nil {
		t.Fatal("UpdateHorizontalLine on trend line = nil; want validation error")
	}

	listed, err := svc.ListDrawings(chart.ID)
	if err != nil {
		t.Fatalf("ListDrawings() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("ListDrawings() len = %d; want 2", len(listed))
	}

	if err := svc.DeleteDrawing(hline.ID); err != nil {
		t.Fatalf("DeleteDrawing() error = %v", err)
	}
	if err := svc.DeleteDrawing(hline.ID); err != nil {
		t.Fatalf("DeleteDrawing() repeat error = %v", err)
	}
	if err := svc.UpdateHorizontalLine(hline.ID, 99); err == nil {
		t.Fatal("UpdateHorizontalLine after delete = nil; want error")
	}
}

func TestTableRegistry(t *testing.T) {
	svc, _ := newTestService(t)

	table, err := svc.CreateTable(chartctl.DefaultTableOptions("Ticker", "Price"))
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if len(table.Headings) != 2 {
		t.Fatalf("headings = %v", table.Headings)
	}

	if err := svc.TableNewRow(table.ID, "r1", []string{"SPY", "430.10"}); err != nil {
		t.Fatalf("TableNewRow() error = %v", err)
	}
	if err := svc.TableUpdateCell(table.ID, "r1", "Price", "431.00"); err != nil {
		t.Fatalf("TableUpdateCell() error = %v", err)
	}
	if err := svc.TableUpdateCell(table.ID, "r1", "Nope", "1"); err == nil {
		t.Fatal("TableUpdateCell unknown column = nil; want error")
	} else {
		assertCode(t, err, chartctl.CodeNoSuchColumn)
	}
	if err := svc.TableDeleteRow(table.ID, "r1"); err != nil {
		t.Fatalf("TableDeleteRow() error = %v", err)
	}
	if err := svc.TableClear(table.ID); err != nil {
		t.Fatalf("TableClear() error = %v", err)
	}
	if err := svc.DeleteTable(table.ID); err != nil {
		t.Fatalf("DeleteTable() error = %v", err)
	}
	if err := svc.DeleteTable(table.ID); err != nil {
		t.Fatalf("DeleteTable() repeat error = %v", err)
	}
}

func TestSnapshotFlow(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}

	meta, err := svc.TakeSnapshot(context.Background(), chart.ID, "pre-open look")
	if err != nil {
		t.Fatalf("TakeSnapshot() error = %v", err)
	}
	if meta.ChartID != chart.ID || meta.Format != "png" || meta.SizeBytes == 0 {
		t.Fatalf("TakeSnapshot() meta = %+v", meta)
	}

	listed, err := svc.ListSnapshots()
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListSnapshots() = %+v, %v", listed, err)
	}

	data, format, err := svc.ReadSnapshotImage(meta.ID)
	if err != nil {
		t.Fatalf("ReadSnapshotImage() error = %v", err)
	}
	if format != "png" || string(data) != "image" {
		t.Fatalf("ReadSnapshotImage() = %q (%s)", data, format)
	}

	if err := svc.DeleteSnapshot(meta.ID); err != nil {
		t.Fatalf("DeleteSnapshot() error = %v", err)
	}
	_, err = svc.GetSnapshot(meta.ID)
	assertCode(t, err, chartctl.CodeSnapshotNotFound)
}

func TestHealthCounts(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if _, err := svc.CreateLine(chart.ID, chartctl.DefaultLineOptions("sma")); err != nil {
		t.Fatalf("CreateLine() error = %v", err)
	}

	h := svc.Health()
	if !h.PageReady || h.Charts != 1 || h.Series != 1 {
		t.Fatalf("Health() = %+v", h)
	}
}

func TestDeleteChartSweepsChildren(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.CreateChart(chartctl.DefaultChartOptions())
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if err := svc.SetData(chart.ID, candleRows(3)); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if _, err := svc.CreateLine(chart.ID, chartctl.DefaultLineOptions("sma")); err != nil {
		t.Fatalf("CreateLine() error = %v", err)
	}
	if _, err := svc.CreateHorizontalLine(chart.ID, chartctl.DefaultHorizontalLineOptions(101.5)); err != nil {
		t.Fatalf("CreateHorizontalLine() error = %v", err)
	}

	if err := svc.DeleteChart(chart.ID); err != nil {
		t.Fatalf("DeleteChart() error = %v", err)
	}

	h := svc.Health()
	if h.Charts != 0 || h.Series != 0 || h.Drawings != 0 {
		t.Fatalf("Health() after delete = %+v", h)
	}
}
