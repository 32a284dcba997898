package controller

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/snapshot"
	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// ChartInfo describes a registered chart.
type ChartInfo struct {
	ID       string  `json:"id"`
	Position string  `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Autosize bool    `json:"autosize"`
	ParentID string  `json:"parent_id,omitempty"`
}

// SeriesInfo describes a registered child series.
type SeriesInfo struct {
	ID      string `json:"id"`
	ChartID string `json:"chart_id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
}

// DrawingInfo describes a registered drawing primitive.
type DrawingInfo struct {
	ID      string `json:"id"`
	ChartID string `json:"chart_id"`
	Kind    string `json:"kind"`
}

// TableInfo describes a registered table widget.
type TableInfo struct {
	ID       string   `json:"id"`
	Headings []string `json:"headings"`
}

// Health summarizes bridge state for the health endpoint.
type Health struct {
	PageReady bool `json:"page_ready"`
	Charts    int  `json:"charts"`
	Series    int  `json:"series"`
	Drawings  int  `json:"drawings"`
	Tables    int  `json:"tables"`
}

type seriesUpdater interface {
	Update(timeseries.Record) error
}

type chartEntry struct {
	chart *chartctl.Chart
	info  ChartInfo
}

type seriesEntry struct {
	base    *chartctl.SeriesBase
	updater seriesUpdater
	info    SeriesInfo
}

type deleter interface {
	Delete() error
	Deleted() bool
}

type drawingEntry struct {
	del   deleter
	hline *chartctl.HorizontalLine // set only for horizontal lines
	info  DrawingInfo
}

// Service owns the object registry behind the control API. Every chart,
// child series, drawing, and table is addressable by the id minted when it
// was created.
type Service struct {
	win   *chartctl.Window
	snaps *snapshot.Store

	mu       sync.Mutex
	charts   map[string]*chartEntry
	series   map[string]*seriesEntry
	drawings map[string]*drawingEntry
	tables   map[string]*chartctl.Table
}

func NewService(win *chartctl.Window, snaps *snapshot.Store) *Service {
	return &Service{
		win:      win,
		snaps:    snaps,
		charts:   make(map[string]*chartEntry),
		series:   make(map[string]*seriesEntry),
		drawings: make(map[string]*drawingEntry),
		tables:   make(map[string]*chartctl.Table),
	}
}

func validationError(msg string) error {
	return &chartctl.CodedError{Code: chartctl.CodeValidation, Message: msg}
}

func (s *Service) chartByID(id string) (*chartEntry, error) {
	entry, ok := s.charts[strings.TrimSpace(id)]
	if !ok {
		return nil, validationError("unknown chart id " + id)
	}
	return entry, nil
}

func (s *Service) seriesByID(id string) (*seriesEntry, error) {
	entry, ok := s.series[strings.TrimSpace(id)]
	if !ok {
		return nil, validationError("unknown series id " + id)
	}
	return entry, nil
}

// --- Chart lifecycle ---

func (s *Service) CreateChart(opts chartctl.ChartOptions) (ChartInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chart, err := s.win.CreateChart(opts)
	if err != nil {
		return ChartInfo{}, err
	}
	info := ChartInfo{
		ID:       chart.ID(),
		Position: opts.Position,
		Width:    opts.Width,
		Height:   opts.Height,
		Autosize: opts.Autosize,
	}
	if info.Position == "" {
		info.Position = "left"
	}
	s.charts[info.ID] = &chartEntry{chart: chart, info: info}
	return info, nil
}

func (s *Service) CreateSubChart(parentID string, opts chartctl.SubChartOptions) (ChartInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, err := s.chartByID(parentID)
	if err != nil {
		return ChartInfo{}, err
	}
	sub, err := parent.chart.CreateSubChart(opts)
	if err != nil {
		return ChartInfo{}, err
	}
	info := ChartInfo{
		ID:       sub.ID(),
		Position: opts.Position,
		Width:    opts.Width,
		Height:   opts.Height,
		Autosize: true,
		ParentID: parent.info.ID,
	}
	if info.Position == "" {
		info.Position = "left"
	}
	s.charts[info.ID] = &chartEntry{chart: sub, info: info}
	return info, nil
}

func (s *Service) ListCharts() []ChartInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChartInfo, 0, len(s.charts))
	for _, entry := range s.charts {
		out = append(out, entry.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) GetChart(id string) (ChartInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(id)
	if err != nil {
		return ChartInfo{}, err
	}
	return entry.info, nil
}

// DeleteChart removes the chart and every series and drawing registered
// under it. Deleting an unknown id is a no-op.
func (s *Service) DeleteChart(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	entry, ok := s.charts[id]
	if !ok {
		return nil
	}

	for sid, se := range s.series {
		if se.info.ChartID != id {
			continue
		}
		if err := se.base.Delete(); err != nil {
			return err
		}
		delete(s.series, sid)
	}
	for did, de := range s.drawings {
		if de.info.ChartID != id {
			continue
		}
		if err := de.del.Delete(); err != nil {
			return err
		}
		delete(s.drawings, did)
	}
	entry.chart.ReleaseHotkeys()
	if err := entry.chart.Main().Delete(); err != nil {
		return err
	}
	delete(s.charts, id)
	return nil
}

// --- Candle data path ---

func (s *Service) SetData(chartID string, rows []timeseries.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return err
	}
	return entry.chart.SetData(rows)
}

func (s *Service) Update(chartID string, row timeseries.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return err
	}
	return entry.chart.Update(row)
}

func (s *Service) UpdateFromTick(chartID string, row timeseries.Record, cumulative bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return err
	}
	return entry.chart.UpdateFromTick(row, cumulative)
}

// --- Child series ---

func (s *Service) registerSeries(base *chartctl.SeriesBase, updater seriesUpdater, chartID, kind, name string) SeriesInfo {
	info := SeriesInfo{ID: base.ID(), ChartID: chartID, Kind: kind, Name: name}
	s.series[info.ID] = &seriesEntry{base: base, updater: updater, info: info}
	return info
}

func (s *Service) CreateLine(chartID string, opts chartctl.LineOptions) (SeriesInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return SeriesInfo{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return SeriesInfo{}, validationError("series name is required")
	}
	line, err := entry.chart.CreateLine(opts)
	if err != nil {
		return SeriesInfo{}, err
	}
	return s.registerSeries(&line.SeriesBase, line, entry.info.ID, "line", opts.Name), nil
}

func (s *Service) CreateHistogram(chartID string, opts chartctl.HistogramOptions) (SeriesInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return SeriesInfo{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return SeriesInfo{}, validationError("series name is required")
	}
	hist, err := entry.chart.CreateHistogram(opts)
	if err != nil {
		return SeriesInfo{}, err
	}
	return s.registerSeries(&hist.SeriesBase, hist, entry.info.ID, "histogram", opts.Name), nil
}

func (s *Service) CreateArea(chartID string, opts chartctl.AreaOptions) (SeriesInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return SeriesInfo{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return SeriesInfo{}, validationError("series name is required")
	}
	area, err := entry.chart.CreateArea(opts)
	if err != nil {
		return SeriesInfo{}, err
	}
	return s.registerSeries(&area.SeriesBase, area, entry.info.ID, "area", opts.Name), nil
}

func (s *Service) CreateBar(chartID string, opts chartctl.BarOptions) (SeriesInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return SeriesInfo{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return SeriesInfo{}, validationError("series name is required")
	}
	bar, err := entry.chart.CreateBar(opts)
	if err != nil {
		return SeriesInfo{}, err
	}
	return s.registerSeries(&bar.SeriesBase, bar, entry.info.ID, "bar", opts.Name), nil
}

func (s *Service) ListSeries(chartID string) ([]SeriesInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return nil, err
	}
	out := []SeriesInfo{}
	for _, base := range entry.chart.Children() {
		if se, ok := s.series[base.ID()]; ok {
			out = append(out, se.info)
		}
	}
	return out, nil
}

func (s *Service) SeriesSetData(seriesID string, rows []timeseries.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.seriesByID(seriesID)
	if err != nil {
		return err
	}
	return entry.base.SetData(rows)
}

func (s *Service) SeriesUpdate(seriesID string, row timeseries.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.seriesByID(seriesID)
	if err != nil {
		return err
	}
	return entry.updater.Update(row)
}

// DeleteSeries removes the child series from the page and the registry.
// Unknown ids and repeated deletes are no-ops.
func (s *Service) DeleteSeries(seriesID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seriesID = strings.TrimSpace(seriesID)
	entry, ok := s.series[seriesID]
	if !ok {
		return nil
	}
	if err := entry.base.Delete(); err != nil {
		return err
	}
	delete(s.series, seriesID)
	return nil
}

// --- Markers ---

// markerTarget resolves a marker operation to the main candle series when
// seriesID is empty, or to the named child series otherwise.
func (s *Service) markerTarget(chartID, seriesID string) (*chartctl.SeriesBase, error) {
	if strings.TrimSpace(seriesID) != "" {
		entry, err := s.seriesByID(seriesID)
		if err != nil {
			return nil, err
		}
		return entry.base, nil
	}
	entry, err := s.chartByID(chartID)
	if err != nil {
		return nil, err
	}
	return &entry.chart.Main().SeriesBase, nil
}

func (s *Service) CreateMarker(chartID, seriesID string, opts chartctl.MarkerOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.markerTarget(chartID, seriesID)
	if err != nil {
		return "", err
	}
	return target.Marker(opts)
}

func (s *Service) CreateMarkers(chartID, seriesID string, opts []chartctl.MarkerOptions) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(opts) == 0 {
		return nil, validationError("markers must not be empty")
	}
	target, err := s.markerTarget(chartID, seriesID)
	if err != nil {
		return nil, err
	}
	return target.MarkerList(opts)
}

func (s *Service) ListMarkers(chartID, seriesID string) ([]timeseries.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.markerTarget(chartID, seriesID)
	if err != nil {
		return nil, err
	}
	return target.Markers(), nil
}

func (s *Service) RemoveMarker(chartID, seriesID, markerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.markerTarget(chartID, seriesID)
	if err != nil {
		return err
	}
	return target.RemoveMarker(strings.TrimSpace(markerID))
}

func (s *Service) ClearMarkers(chartID, seriesID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.markerTarget(chartID, seriesID)
	if err != nil {
		return err
	}
	return target.ClearMarkers()
}

// --- Drawings ---

func (s *Service) registerDrawing(del deleter, hline *chartctl.HorizontalLine, id, chartID, kind string) DrawingInfo {
	info := DrawingInfo{ID: id, ChartID: chartID, Kind: kind}
	s.drawings[info.ID] = &drawingEntry{del: del, hline: hline, info: info}
	return info
}

func (s *Service) mainSeries(chartID string) (*chartEntry, *chartctl.SeriesBase, error) {
	entry, err := s.chartByID(chartID)
	if err != nil {
		return nil, nil, err
	}
	return entry, &entry.chart.Main().SeriesBase, nil
}

func (s *Service) CreateHorizontalLine(chartID string, opts chartctl.HorizontalLineOptions) (DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, base, err := s.mainSeries(chartID)
	if err != nil {
		return DrawingInfo{}, err
	}
	hline, err := base.HorizontalLine(opts)
	if err != nil {
		return DrawingInfo{}, err
	}
	return s.registerDrawing(hline, hline, hline.ID(), entry.info.ID, "horizontal_line"), nil
}

func (s *Service) UpdateHorizontalLine(drawingID string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.drawings[strings.TrimSpace(drawingID)]
	if !ok {
		return validationError("unknown drawing id " + drawingID)
	}
	if entry.hline == nil {
		return validationError("drawing " + drawingID + " is not a horizontal line")
	}
	return entry.hline.Update(price)
}

func (s *Service) CreateVerticalLine(chartID string, opts chartctl.VerticalLineOptions) (DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, base, err := s.mainSeries(chartID)
	if err != nil {
		return DrawingInfo{}, err
	}
	d, err := base.VerticalLine(opts)
	if err != nil {
		return DrawingInfo{}, err
	}
	return s.registerDrawing(d, nil, d.ID(), entry.info.ID, "vertical_line"), nil
}

func (s *Service) CreateTrendLine(chartID string, opts chartctl.TrendLineOptions) (DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, base, err := s.mainSeries(chartID)
	if err != nil {
		return DrawingInfo{}, err
	}
	d, err := base.TrendLine(opts)
	if err != nil {
		return DrawingInfo{}, err
	}
	return s.registerDrawing(d, nil, d.ID(), entry.info.ID, "trend_line"), nil
}

func (s *Service) CreateBox(chartID string, opts chartctl.BoxOptions) (DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, base, err := s.mainSeries(chartID)
	if err != nil {
		return DrawingInfo{}, err
	}
	d, err := base.Box(opts)
	if err != nil {
		return DrawingInfo{}, err
	}
	return s.registerDrawing(d, nil, d.ID(), entry.info.ID, "box"), nil
}

func (s *Service) CreateRayLine(chartID string, opts chartctl.RayLineOptions) (DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, base, err := s.mainSeries(chartID)
	if err != nil {
		return DrawingInfo{}, err
	}
	d, err := base.RayLine(opts)
	if err != nil {
		return DrawingInfo{}, err
	}
	return s.registerDrawing(d, nil, d.ID(), entry.info.ID, "ray_line"), nil
}

func (s *Service) CreateVerticalSpan(chartID string, opts chartctl.VerticalSpanOptions) (DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, base, err := s.mainSeries(chartID)
	if err != nil {
		return DrawingInfo{}, err
	}
	d, err := base.VerticalSpan(opts)
	if err != nil {
		return DrawingInfo{}, err
	}
	return s.registerDrawing(d, nil, d.ID(), entry.info.ID, "vertical_span"), nil
}

func (s *Service) ListDrawings(chartID string) ([]DrawingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return nil, err
	}
	out := []DrawingInfo{}
	for _, de := range s.drawings {
		if de.info.ChartID == entry.info.ID {
			out = append(out, de.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteDrawing removes the drawing. Unknown ids are no-ops.
func (s *Service) DeleteDrawing(drawingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drawingID = strings.TrimSpace(drawingID)
	entry, ok := s.drawings[drawingID]
	if !ok {
		return nil
	}
	if err := entry.del.Delete(); err != nil {
		return err
	}
	delete(s.drawings, drawingID)
	return nil
}

// --- Option appliers and view operations ---

func (s *Service) withChart(chartID string, fn func(*chartctl.Chart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.chartByID(chartID)
	if err != nil {
		return err
	}
	return fn(entry.chart)
}

func (s *Service) ApplyTimeScale(chartID string, opts chartctl.TimeScaleOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.ApplyTimeScale(opts) })
}

func (s *Service) ApplyLayout(chartID string, opts chartctl.LayoutOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.ApplyLayout(opts) })
}

func (s *Service) ApplyGrid(chartID string, opts chartctl.GridOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.ApplyGrid(opts) })
}

func (s *Service) ApplyCrosshair(chartID string, opts chartctl.CrosshairOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.ApplyCrosshair(opts) })
}

func (s *Service) ApplyWatermark(chartID string, opts chartctl.WatermarkOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.ApplyWatermark(opts) })
}

func (s *Service) ApplyLegend(chartID string, opts chartctl.LegendOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.ApplyLegend(opts) })
}

func (s *Service) ApplyPriceScale(chartID string, opts chartctl.PriceScaleOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.Main().PriceScale(opts) })
}

func (s *Service) ApplyCandleStyle(chartID string, opts chartctl.CandleStyleOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.Main().CandleStyle(opts) })
}

func (s *Service) ApplyVolumeConfig(chartID string, opts chartctl.VolumeConfigOptions) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.Main().VolumeConfig(opts) })
}

func (s *Service) Fit(chartID string) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.Fit() })
}

func (s *Service) Resize(chartID string, width, height float64) error {
	if width <= 0 && height <= 0 {
		return validationError("width or height must be positive")
	}
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.Resize(width, height) })
}

func (s *Service) SetVisibleRange(chartID string, from, to any) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.SetVisibleRange(from, to) })
}

func (s *Service) Spinner(chartID string, visible bool) error {
	return s.withChart(chartID, func(c *chartctl.Chart) error { return c.Spinner(visible) })
}

// --- Tables ---

func (s *Service) CreateTable(opts chartctl.TableOptions) (TableInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.win.CreateTable(opts)
	if err != nil {
		return TableInfo{}, err
	}
	s.tables[table.ID()] = table
	return TableInfo{ID: table.ID(), Headings: table.Headings()}, nil
}

func (s *Service) tableByID(id string) (*chartctl.Table, error) {
	table, ok := s.tables[strings.TrimSpace(id)]
	if !ok {
		return nil, validationError("unknown table id " + id)
	}
	return table, nil
}

func (s *Service) TableNewRow(tableID, rowID string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.tableByID(tableID)
	if err != nil {
		return err
	}
	return table.NewRow(rowID, values)
}

func (s *Service) TableUpdateCell(tableID, rowID, column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.tableByID(tableID)
	if err != nil {
		return err
	}
	return table.UpdateCell(rowID, column, value)
}

func (s *Service) TableDeleteRow(tableID, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.tableByID(tableID)
	if err != nil {
		return err
	}
	return table.DeleteRow(rowID)
}

func (s *Service) TableClear(tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.tableByID(tableID)
	if err != nil {
		return err
	}
	return table.Clear()
}

// DeleteTable removes the table widget. Unknown ids are no-ops.
func (s *Service) DeleteTable(tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tableID = strings.TrimSpace(tableID)
	table, ok := s.tables[tableID]
	if !ok {
		return nil
	}
	if err := table.Delete(); err != nil {
		return err
	}
	delete(s.tables, tableID)
	return nil
}

// --- Snapshots ---

func (s *Service) TakeSnapshot(ctx context.Context, chartID, notes string) (snapshot.Meta, error) {
	s.mu.Lock()
	entry, err := s.chartByID(chartID)
	s.mu.Unlock()
	if err != nil {
		return snapshot.Meta{}, err
	}

	// Screenshot round-trips through the page; do not hold the registry
	// lock while waiting.
	imageData, err := entry.chart.Screenshot(ctx)
	if err != nil {
		return snapshot.Meta{}, err
	}

	meta := snapshot.Meta{
		ID:      uuid.New().String(),
		ChartID: entry.info.ID,
		Format:  "png",
		Notes:   strings.TrimSpace(notes),
	}
	return s.snaps.Save(meta, imageData)
}

func (s *Service) ListSnapshots() ([]snapshot.Meta, error) {
	return s.snaps.List()
}

func (s *Service) GetSnapshot(id string) (snapshot.Meta, error) {
	return s.snaps.Get(strings.TrimSpace(id))
}

func (s *Service) ReadSnapshotImage(id string) ([]byte, string, error) {
	return s.snaps.ReadImage(strings.TrimSpace(id))
}

func (s *Service) DeleteSnapshot(id string) error {
	return s.snaps.Delete(strings.TrimSpace(id))
}

// --- Health ---

func (s *Service) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Health{
		PageReady: s.win.Channel().Loaded(),
		Charts:    len(s.charts),
		Series:    len(s.series),
		Drawings:  len(s.drawings),
		Tables:    len(s.tables),
	}
}
