package chartctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// SeriesBase is the host-side mirror of one page-side series: the ordered
// rows last sent, a cache of the newest bar, the marker set, and the
// normalizer that keeps update timestamps on the series' time grid.
type SeriesBase struct {
	Pane
	chart *Chart
	name  string
	norm  *timeseries.Normalizer

	rows    []timeseries.Record
	lastRow timeseries.Record

	markers     map[string]timeseries.Record
	markerOrder []string

	deleted bool
}

func newSeriesBase(chart *Chart, name string) SeriesBase {
	norm := timeseries.NewNormalizer()
	if chart != nil && chart.main != nil {
		norm.Interval = chart.main.norm.Interval
	}
	return SeriesBase{
		Pane:    chart.win.newPane(),
		chart:   chart,
		name:    name,
		norm:    norm,
		markers: make(map[string]timeseries.Record),
	}
}

// Name returns the value column this series reads, empty for OHLC series.
func (s *SeriesBase) Name() string { return s.name }

// Rows returns a copy of the mirrored rows.
func (s *SeriesBase) Rows() []timeseries.Record {
	out := make([]timeseries.Record, len(s.rows))
	copy(out, s.rows)
	return out
}

// LastRow returns the newest bar, or nil before any data was set.
func (s *SeriesBase) LastRow() timeseries.Record { return s.lastRow }

// Normalizer exposes the series' time grid.
func (s *SeriesBase) Normalizer() *timeseries.Normalizer { return s.norm }

func hasTimeColumn(rec timeseries.Record) bool {
	for k := range rec {
		switch strings.ToLower(k) {
		case timeseries.TimeKey, "date":
			return true
		}
	}
	return false
}

// formatRecords normalizes labels, re-derives the time grid from the batch,
// aligns every timestamp onto it, and renames the series' value column.
func (s *SeriesBase) formatRecords(recs []timeseries.Record) ([]timeseries.Record, error) {
	var exclude []string
	if s.name != "" {
		exclude = []string{s.name}
	}
	recs = timeseries.NormalizeLabels(recs, exclude)

	times := make([]time.Time, len(recs))
	for i, rec := range recs {
		t, err := timeseries.ParseTime(rec[timeseries.TimeKey])
		if err != nil {
			return nil, newError(CodeValidation, "unparseable time value", err)
		}
		times[i] = t
	}
	s.norm.InferFrom(times)
	for i := range recs {
		recs[i][timeseries.TimeKey] = s.norm.Align(times[i])
	}

	if s.name != "" {
		for _, rec := range recs {
			v, ok := rec[s.name]
			if !ok {
				return nil, newError(CodeNoSuchColumn, fmt.Sprintf("no column named %q", s.name), nil)
			}
			delete(rec, s.name)
			rec["value"] = v
		}
	}
	return recs, nil
}

// formatRecord normalizes a single row against the existing time grid
// without re-deriving it.
func (s *SeriesBase) formatRecord(rec timeseries.Record) (timeseries.Record, error) {
	if !hasTimeColumn(rec) {
		return nil, newError(CodeValidation, "record has no time column", nil)
	}
	var exclude []string
	if s.name != "" {
		exclude = []string{s.name}
	}
	rec = timeseries.NormalizeLabels([]timeseries.Record{rec}, exclude)[0]

	t, err := timeseries.ParseTime(rec[timeseries.TimeKey])
	if err != nil {
		return nil, newError(CodeValidation, "unparseable time value", err)
	}
	rec[timeseries.TimeKey] = s.norm.Align(t)

	if s.name != "" {
		if v, ok := rec[s.name]; ok {
			delete(rec, s.name)
			rec["value"] = v
		}
	}
	return rec, nil
}

// SetData replaces the series data. Nil or empty input clears the page-side
// series and the mirror without touching the time grid.
func (s *SeriesBase) SetData(recs []timeseries.Record) error {
	if len(recs) == 0 {
		s.rows = nil
		s.lastRow = nil
		return s.RunScript(s.id + `.series.setData([])`)
	}
	formatted, err := s.formatRecords(recs)
	if err != nil {
		return err
	}
	s.rows = formatted
	s.lastRow = formatted[len(formatted)-1]
	return s.RunScript(s.id + `.series.setData(` + jsJSON(formatted) + `);`)
}

// setFormatted stores and sends rows that are already on the time grid.
func (s *SeriesBase) setFormatted(recs []timeseries.Record) error {
	if len(recs) == 0 {
		s.rows = nil
		s.lastRow = nil
		return s.RunScript(s.id + `.series.setData([])`)
	}
	s.rows = recs
	s.lastRow = recs[len(recs)-1]
	return s.RunScript(s.id + `.series.setData(` + jsJSON(recs) + `)`)
}

// Update sends one bar. A bar on the newest time overwrites it; a later time
// opens a new bar. Requires data to have been set.
func (s *SeriesBase) Update(rec timeseries.Record) error {
	if s.lastRow == nil {
		return newError(CodePrecondition, "series updated before data was set", nil)
	}
	formatted, err := s.formatRecord(rec)
	if err != nil {
		return err
	}
	s.applyBar(formatted)
	return s.RunScript(s.id + `.series.update(` + jsJSON(formatted) + `)`)
}

// applyBar folds a formatted bar into the mirror and reports whether it
// opened a new bar.
func (s *SeriesBase) applyBar(rec timeseries.Record) bool {
	newBar := rec[timeseries.TimeKey] != s.lastRow[timeseries.TimeKey]
	if newBar {
		if len(s.rows) > 0 {
			s.rows[len(s.rows)-1] = s.lastRow
		}
		s.rows = append(s.rows, rec)
	}
	s.lastRow = rec
	return newBar
}

// MarkerOptions describes one series marker. A nil Time places the marker on
// the newest bar.
type MarkerOptions struct {
	Time     any
	Position MarkerPosition
	Shape    MarkerShape
	Color    string
	Text     string
	Size     float64
}

// DefaultMarkerOptions returns a blue below-bar arrow on the newest bar.
func DefaultMarkerOptions() MarkerOptions {
	return MarkerOptions{Position: MarkerBelow, Shape: MarkerArrowUp, Color: "#2196F3"}
}

func (s *SeriesBase) buildMarker(opts MarkerOptions) (timeseries.Record, error) {
	var stamp int64
	if opts.Time == nil {
		if s.lastRow == nil {
			return nil, newError(CodePrecondition, "marker created before data was set", nil)
		}
		stamp, _ = s.lastRow[timeseries.TimeKey].(int64)
	} else {
		t, err := timeseries.ParseTime(opts.Time)
		if err != nil {
			return nil, newError(CodeValidation, "unparseable marker time", err)
		}
		stamp = s.norm.Align(t)
	}
	position, err := opts.Position.jsValue()
	if err != nil {
		return nil, err
	}
	shape, err := opts.Shape.jsValue()
	if err != nil {
		return nil, err
	}
	color := opts.Color
	if color == "" {
		color = "#2196F3"
	}
	m := timeseries.Record{
		"time":     stamp,
		"position": position,
		"color":    color,
		"shape":    shape,
	}
	if opts.Text != "" {
		m["text"] = opts.Text
	}
	if opts.Size != 0 {
		m["size"] = opts.Size
	}
	return m, nil
}

// resendMarkers pushes the full marker set; the page API has no incremental
// marker call.
func (s *SeriesBase) resendMarkers() error {
	all := make([]timeseries.Record, 0, len(s.markerOrder))
	for _, id := range s.markerOrder {
		all = append(all, s.markers[id])
	}
	return s.RunScript(s.id + `.series.setMarkers(` + jsJSON(all) + `)`)
}

// Marker places one marker and returns its id.
func (s *SeriesBase) Marker(opts MarkerOptions) (string, error) {
	m, err := s.buildMarker(opts)
	if err != nil {
		return "", err
	}
	id := s.win.ids.Generate()
	s.markers[id] = m
	s.markerOrder = append(s.markerOrder, id)
	if err := s.resendMarkers(); err != nil {
		return "", err
	}
	return id, nil
}

// MarkerList places several markers in one resend and returns their ids.
func (s *SeriesBase) MarkerList(opts []MarkerOptions) ([]string, error) {
	ids := make([]string, 0, len(opts))
	for _, o := range opts {
		m, err := s.buildMarker(o)
		if err != nil {
			return nil, err
		}
		id := s.win.ids.Generate()
		s.markers[id] = m
		s.markerOrder = append(s.markerOrder, id)
		ids = append(ids, id)
	}
	if err := s.resendMarkers(); err != nil {
		return nil, err
	}
	return ids, nil
}

// RemoveMarker deletes one marker. Unknown ids are a no-op.
func (s *SeriesBase) RemoveMarker(id string) error {
	if _, ok := s.markers[id]; !ok {
		return nil
	}
	delete(s.markers, id)
	for i, mid := range s.markerOrder {
		if mid == id {
			s.markerOrder = append(s.markerOrder[:i], s.markerOrder[i+1:]...)
			break
		}
	}
	return s.resendMarkers()
}

// ClearMarkers removes every marker.
func (s *SeriesBase) ClearMarkers() error {
	s.markers = make(map[string]timeseries.Record)
	s.markerOrder = nil
	return s.resendMarkers()
}

// Markers returns the marker payloads in placement order.
func (s *SeriesBase) Markers() []timeseries.Record {
	out := make([]timeseries.Record, 0, len(s.markerOrder))
	for _, id := range s.markerOrder {
		out = append(out, s.markers[id])
	}
	return out
}

// PriceLine toggles the last-value label and price line.
func (s *SeriesBase) PriceLine(labelVisible, lineVisible bool, title string) error {
	return s.RunScript(s.id + `.series.applyOptions({
    lastValueVisible: ` + jsBool(labelVisible) + `,
    priceLineVisible: ` + jsBool(lineVisible) + `,
    title: ` + jsString(title) + `,
})`)
}

// Precision sets the number of decimals and the matching minimum move.
func (s *SeriesBase) Precision(precision int) error {
	minMove := 1.0
	for i := 0; i < precision; i++ {
		minMove /= 10
	}
	return s.RunScript(fmt.Sprintf(`%s.series.applyOptions({
    priceFormat: {precision: %d, minMove: %v}
})`, s.id, precision, minMove))
}

// HideData hides the series without removing it.
func (s *SeriesBase) HideData() error { return s.toggleData(false) }

// ShowData makes a hidden series visible again.
func (s *SeriesBase) ShowData() error { return s.toggleData(true) }

func (s *SeriesBase) toggleData(visible bool) error {
	return s.RunScript(s.id + `.series.applyOptions({visible: ` + jsBool(visible) + `})
if ('volumeSeries' in ` + s.id + `) ` + s.id + `.volumeSeries.applyOptions({visible: ` + jsBool(visible) + `})`)
}

// deleteScript removes the series from the page together with its legend row
// and the global bindings holding it.
func deleteScript(chartID, seriesID string) string {
	return seriesID + `legendItem = ` + chartID + `.legend._lines.find((line) => line.series == ` + seriesID + `.series)
` + chartID + `.legend._lines = ` + chartID + `.legend._lines.filter((item) => item != ` + seriesID + `legendItem)
if (` + seriesID + `legendItem) {
    ` + chartID + `.legend.div.removeChild(` + seriesID + `legendItem.row)
}
` + chartID + `.chart.removeSeries(` + seriesID + `.series)
delete ` + seriesID + `legendItem
delete ` + seriesID
}

// Delete removes the series from the chart and the page. Safe to call more
// than once.
func (s *SeriesBase) Delete() error {
	if s.deleted {
		return nil
	}
	s.deleted = true
	if s.chart == nil {
		return nil
	}
	s.chart.removeChildByID(s.id)
	return s.RunScript(deleteScript(s.chart.ID(), s.id))
}

// Deleted reports whether Delete already ran.
func (s *SeriesBase) Deleted() bool { return s.deleted }
