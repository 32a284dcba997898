package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
	"github.com/dgnsrekt/lwc_agent/internal/snapshot"
	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// Service is the controller surface the HTTP layer drives.
type Service interface {
	CreateChart(opts chartctl.ChartOptions) (controller.ChartInfo, error)
	CreateSubChart(parentID string, opts chartctl.SubChartOptions) (controller.ChartInfo, error)
	ListCharts() []controller.ChartInfo
	GetChart(id string) (controller.ChartInfo, error)
	DeleteChart(id string) error

	SetData(chartID string, rows []timeseries.Record) error
	Update(chartID string, row timeseries.Record) error
	UpdateFromTick(chartID string, row timeseries.Record, cumulative bool) error

	CreateLine(chartID string, opts chartctl.LineOptions) (controller.SeriesInfo, error)
	CreateHistogram(chartID string, opts chartctl.HistogramOptions) (controller.SeriesInfo, error)
	CreateArea(chartID string, opts chartctl.AreaOptions) (controller.SeriesInfo, error)
	CreateBar(chartID string, opts chartctl.BarOptions) (controller.SeriesInfo, error)
	ListSeries(chartID string) ([]controller.SeriesInfo, error)
	SeriesSetData(seriesID string, rows []timeseries.Record) error
	SeriesUpdate(seriesID string, row timeseries.Record) error
	DeleteSeries(seriesID string) error

	CreateMarker(chartID, seriesID string, opts chartctl.MarkerOptions) (string, error)
	CreateMarkers(chartID, seriesID string, opts []chartctl.MarkerOptions) ([]string, error)
	ListMarkers(chartID, seriesID string) ([]timeseries.Record, error)
	RemoveMarker(chartID, seriesID, markerID string) error
	ClearMarkers(chartID, seriesID string) error

	CreateHorizontalLine(chartID string, opts chartctl.HorizontalLineOptions) (controller.DrawingInfo, error)
	UpdateHorizontalLine(drawingID string, price float64) error
	CreateVerticalLine(chartID string, opts chartctl.VerticalLineOptions) (controller.DrawingInfo, error)
	CreateTrendLine(chartID string, opts chartctl.TrendLineOptions) (controller.DrawingInfo, error)
	CreateBox(chartID string, opts chartctl.BoxOptions) (controller.DrawingInfo, error)
	CreateRayLine(chartID string, opts chartctl.RayLineOptions) (controller.DrawingInfo, error)
	CreateVerticalSpan(chartID string, opts chartctl.VerticalSpanOptions) (controller.DrawingInfo, error)
	ListDrawings(chartID string) ([]controller.DrawingInfo, error)
	DeleteDrawing(drawingID string) error

	ApplyTimeScale(chartID string, opts chartctl.TimeScaleOptions) error
	ApplyLayout(chartID string, opts chartctl.LayoutOptions) error
	ApplyGrid(chartID string, opts chartctl.GridOptions) error
	ApplyCrosshair(chartID string, opts chartctl.CrosshairOptions) error
	ApplyWatermark(chartID string, opts chartctl.WatermarkOptions) error
	ApplyLegend(chartID string, opts chartctl.LegendOptions) error
	ApplyPriceScale(chartID string, opts chartctl.PriceScaleOptions) error
	ApplyCandleStyle(chartID string, opts chartctl.CandleStyleOptions) error
	ApplyVolumeConfig(chartID string, opts chartctl.VolumeConfigOptions) error
	Fit(chartID string) error
	Resize(chartID string, width, height float64) error
	SetVisibleRange(chartID string, from, to any) error
	Spinner(chartID string, visible bool) error

	CreateTable(opts chartctl.TableOptions) (controller.TableInfo, error)
	TableNewRow(tableID, rowID string, values []string) error
	TableUpdateCell(tableID, rowID, column, value string) error
	TableDeleteRow(tableID, rowID string) error
	TableClear(tableID string) error
	DeleteTable(tableID string) error

	TakeSnapshot(ctx context.Context, chartID, notes string) (snapshot.Meta, error)
	ListSnapshots() ([]snapshot.Meta, error)
	GetSnapshot(id string) (snapshot.Meta, error)
	ReadSnapshotImage(id string) ([]byte, string, error)
	DeleteSnapshot(id string) error

	Health() controller.Health
}

type chartIDInput struct {
	ChartID string `path:"chart_id"`
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func okStatus() *statusOutput {
	out := &statusOutput{}
	out.Body.Status = "ok"
	return out
}

func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Chart Bridge API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	// Raw image bytes bypass huma's JSON serialization.
	router.Get("/api/v1/snapshots/{snapshot_id}/image", func(w http.ResponseWriter, r *http.Request) {
		data, format, err := svc.ReadSnapshotImage(chi.URLParam(r, "snapshot_id"))
		if err != nil {
			writeRawError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/"+format)
		if _, err := w.Write(data); err != nil {
			slog.Debug("snapshot image write failed", "error", err)
		}
	})

	registerChartHandlers(api, svc)
	registerSeriesHandlers(api, svc)
	registerMarkerHandlers(api, svc)
	registerDrawingHandlers(api, svc)
	registerTableHandlers(api, svc)
	registerSnapshotHandlers(api, svc)

	return router
}

// mapErr translates coded bridge errors into HTTP problems.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *chartctl.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case chartctl.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case chartctl.CodeSnapshotNotFound:
			return huma.Error404NotFound(coded.Message)
		case chartctl.CodePrecondition:
			return huma.Error409Conflict(coded.Message)
		case chartctl.CodeOrderViolation, chartctl.CodeNoSuchColumn:
			return huma.Error422UnprocessableEntity(coded.Message)
		case chartctl.CodeEvalTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case chartctl.CodeEvalFailure, chartctl.CodeWebviewUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

func writeRawError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var coded *chartctl.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case chartctl.CodeValidation:
			status = http.StatusBadRequest
		case chartctl.CodeSnapshotNotFound:
			status = http.StatusNotFound
		}
	}
	http.Error(w, err.Error(), status)
}

// Pointer-field request bodies override library defaults only when set.

func orStr(p *string, d string) string {
	if p != nil {
		return *p
	}
	return d
}

func orInt(p *int, d int) int {
	if p != nil {
		return *p
	}
	return d
}

func orFloat(p *float64, d float64) float64 {
	if p != nil {
		return *p
	}
	return d
}

func orBool(p *bool, d bool) bool {
	if p != nil {
		return *p
	}
	return d
}
