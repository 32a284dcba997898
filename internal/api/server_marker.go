package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

// markerBody is the wire form of one marker. A nil time targets the newest bar.
type markerBody struct {
	Time     any      `json:"time,omitempty" doc:"Bar time (epoch seconds, epoch ms, or date string). Omit for the newest bar."`
	Position *string  `json:"position,omitempty" enum:"above,below,inside"`
	Shape    *string  `json:"shape,omitempty" enum:"arrow_up,arrow_down,circle,square"`
	Color    *string  `json:"color,omitempty"`
	Text     *string  `json:"text,omitempty"`
	Size     *float64 `json:"size,omitempty"`
}

func (b markerBody) toOptions() chartctl.MarkerOptions {
	opts := chartctl.DefaultMarkerOptions()
	opts.Time = b.Time
	if b.Position != nil {
		opts.Position = chartctl.MarkerPosition(*b.Position)
	}
	if b.Shape != nil {
		opts.Shape = chartctl.MarkerShape(*b.Shape)
	}
	opts.Color = orStr(b.Color, opts.Color)
	opts.Text = orStr(b.Text, opts.Text)
	opts.Size = orFloat(b.Size, opts.Size)
	return opts
}

func registerMarkerHandlers(api huma.API, svc Service) {
	type createMarkerInput struct {
		ChartID  string     `path:"chart_id"`
		SeriesID string     `query:"series_id" doc:"Target a child series instead of the main candle series."`
		Body     markerBody
	}
	type createMarkerOutput struct {
		Body struct {
			ID string `json:"id"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-marker", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/markers", Summary: "Place one marker", Tags: []string{"Markers"}},
		func(ctx context.Context, input *createMarkerInput) (*createMarkerOutput, error) {
			id, err := svc.CreateMarker(input.ChartID, input.SeriesID, input.Body.toOptions())
			if err != nil {
				return nil, mapErr(err)
			}
			out := &createMarkerOutput{}
			out.Body.ID = id
			return out, nil
		})

	type createMarkersInput struct {
		ChartID  string `path:"chart_id"`
		SeriesID string `query:"series_id"`
		Body     struct {
			Markers []markerBody `json:"markers" required:"true"`
		}
	}
	type createMarkersOutput struct {
		Body struct {
			IDs []string `json:"ids"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-markers-bulk", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/markers/bulk", Summary: "Place several markers in one round trip", Tags: []string{"Markers"}},
		func(ctx context.Context, input *createMarkersInput) (*createMarkersOutput, error) {
			opts := make([]chartctl.MarkerOptions, len(input.Body.Markers))
			for i, m := range input.Body.Markers {
				opts[i] = m.toOptions()
			}
			ids, err := svc.CreateMarkers(input.ChartID, input.SeriesID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &createMarkersOutput{}
			out.Body.IDs = ids
			return out, nil
		})

	type listMarkersInput struct {
		ChartID  string `path:"chart_id"`
		SeriesID string `query:"series_id"`
	}
	type listMarkersOutput struct {
		Body struct {
			Markers []timeseries.Record `json:"markers"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-markers", Method: http.MethodGet, Path: "/api/v1/charts/{chart_id}/markers", Summary: "List the series' markers", Tags: []string{"Markers"}},
		func(ctx context.Context, input *listMarkersInput) (*listMarkersOutput, error) {
			markers, err := svc.ListMarkers(input.ChartID, input.SeriesID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listMarkersOutput{}
			out.Body.Markers = markers
			return out, nil
		})

	type removeMarkerInput struct {
		ChartID  string `path:"chart_id"`
		MarkerID string `path:"marker_id"`
		SeriesID string `query:"series_id"`
	}
	huma.Register(api, huma.Operation{OperationID: "remove-marker", Method: http.MethodDelete, Path: "/api/v1/charts/{chart_id}/markers/{marker_id}", Summary: "Remove one marker", Tags: []string{"Markers"}},
		func(ctx context.Context, input *removeMarkerInput) (*statusOutput, error) {
			if err := svc.RemoveMarker(input.ChartID, input.SeriesID, input.MarkerID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-markers", Method: http.MethodDelete, Path: "/api/v1/charts/{chart_id}/markers", Summary: "Remove all markers from the series", Tags: []string{"Markers"}},
		func(ctx context.Context, input *listMarkersInput) (*statusOutput, error) {
			if err := svc.ClearMarkers(input.ChartID, input.SeriesID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})
}
