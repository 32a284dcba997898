package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
)

func registerDrawingHandlers(api huma.API, svc Service) {
	type drawingOutput struct {
		Body controller.DrawingInfo
	}

	type horizontalLineInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Price            float64 `json:"price" required:"true"`
			Color            *string `json:"color,omitempty"`
			Width            *int    `json:"width,omitempty"`
			Style            *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
			Text             *string `json:"text,omitempty"`
			AxisLabelVisible *bool   `json:"axis_label_visible,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-horizontal-line", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/drawings/horizontal-line", Summary: "Draw a horizontal price line", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *horizontalLineInput) (*drawingOutput, error) {
			opts := chartctl.DefaultHorizontalLineOptions(input.Body.Price)
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.Width = orInt(input.Body.Width, opts.Width)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			opts.Text = orStr(input.Body.Text, opts.Text)
			opts.AxisLabelVisible = orBool(input.Body.AxisLabelVisible, opts.AxisLabelVisible)
			info, err := svc.CreateHorizontalLine(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: info}, nil
		})

	type updatePriceInput struct {
		DrawingID string `path:"drawing_id"`
		Body      struct {
			Price float64 `json:"price" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "update-horizontal-line", Method: http.MethodPut, Path: "/api/v1/drawings/{drawing_id}/price", Summary: "Move a horizontal line to a new price", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *updatePriceInput) (*statusOutput, error) {
			if err := svc.UpdateHorizontalLine(input.DrawingID, input.Body.Price); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type verticalLineInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Time  any     `json:"time" required:"true"`
			Color *string `json:"color,omitempty"`
			Width *int    `json:"width,omitempty"`
			Style *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
			Text  *string `json:"text,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-vertical-line", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/drawings/vertical-line", Summary: "Draw a vertical line at one time", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *verticalLineInput) (*drawingOutput, error) {
			opts := chartctl.DefaultVerticalLineOptions(input.Body.Time)
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.Width = orInt(input.Body.Width, opts.Width)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			opts.Text = orStr(input.Body.Text, opts.Text)
			info, err := svc.CreateVerticalLine(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: info}, nil
		})

	type trendLineInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			StartTime  any     `json:"start_time" required:"true"`
			StartValue float64 `json:"start_value" required:"true"`
			EndTime    any     `json:"end_time" required:"true"`
			EndValue   float64 `json:"end_value" required:"true"`
			Round      *bool   `json:"round,omitempty"`
			LineColor  *string `json:"line_color,omitempty"`
			Width      *int    `json:"width,omitempty"`
			Style      *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-trend-line", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/drawings/trend-line", Summary: "Draw a line between two time/value points", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *trendLineInput) (*drawingOutput, error) {
			opts := chartctl.DefaultTrendLineOptions()
			opts.StartTime = input.Body.StartTime
			opts.StartValue = input.Body.StartValue
			opts.EndTime = input.Body.EndTime
			opts.EndValue = input.Body.EndValue
			opts.Round = orBool(input.Body.Round, opts.Round)
			opts.LineColor = orStr(input.Body.LineColor, opts.LineColor)
			opts.Width = orInt(input.Body.Width, opts.Width)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			info, err := svc.CreateTrendLine(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: info}, nil
		})

	type boxInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			StartTime  any     `json:"start_time" required:"true"`
			StartValue float64 `json:"start_value" required:"true"`
			EndTime    any     `json:"end_time" required:"true"`
			EndValue   float64 `json:"end_value" required:"true"`
			Round      *bool   `json:"round,omitempty"`
			Color      *string `json:"color,omitempty"`
			FillColor  *string `json:"fill_color,omitempty"`
			Width      *int    `json:"width,omitempty"`
			Style      *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-box", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/drawings/box", Summary: "Draw a filled rectangle between two corners", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *boxInput) (*drawingOutput, error) {
			opts := chartctl.DefaultBoxOptions()
			opts.StartTime = input.Body.StartTime
			opts.StartValue = input.Body.StartValue
			opts.EndTime = input.Body.EndTime
			opts.EndValue = input.Body.EndValue
			opts.Round = orBool(input.Body.Round, opts.Round)
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.FillColor = orStr(input.Body.FillColor, opts.FillColor)
			opts.Width = orInt(input.Body.Width, opts.Width)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			info, err := svc.CreateBox(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: info}, nil
		})

	type rayLineInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			StartTime any     `json:"start_time" required:"true"`
			Value     float64 `json:"value" required:"true"`
			Round     *bool   `json:"round,omitempty"`
			Color     *string `json:"color,omitempty"`
			Width     *int    `json:"width,omitempty"`
			Style     *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
			Text      *string `json:"text,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-ray-line", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/drawings/ray-line", Summary: "Draw a horizontal ray from a start time to the right edge", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *rayLineInput) (*drawingOutput, error) {
			opts := chartctl.DefaultRayLineOptions()
			opts.StartTime = input.Body.StartTime
			opts.Value = input.Body.Value
			opts.Round = orBool(input.Body.Round, opts.Round)
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.Width = orInt(input.Body.Width, opts.Width)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			opts.Text = orStr(input.Body.Text, opts.Text)
			info, err := svc.CreateRayLine(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: info}, nil
		})

	type verticalSpanInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			StartTime any     `json:"start_time" required:"true"`
			EndTime   any     `json:"end_time,omitempty"`
			Color     *string `json:"color,omitempty"`
			Round     *bool   `json:"round,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-vertical-span", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/drawings/vertical-span", Summary: "Shade the chart between two times", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *verticalSpanInput) (*drawingOutput, error) {
			opts := chartctl.DefaultVerticalSpanOptions()
			opts.StartTime = input.Body.StartTime
			opts.EndTime = input.Body.EndTime
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.Round = orBool(input.Body.Round, opts.Round)
			info, err := svc.CreateVerticalSpan(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: info}, nil
		})

	type drawingListOutput struct {
		Body struct {
			ChartID  string                   `json:"chart_id"`
			Drawings []controller.DrawingInfo `json:"drawings"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-drawings", Method: http.MethodGet, Path: "/api/v1/charts/{chart_id}/drawings", Summary: "List the chart's drawings", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *chartIDInput) (*drawingListOutput, error) {
			drawings, err := svc.ListDrawings(input.ChartID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &drawingListOutput{}
			out.Body.ChartID = input.ChartID
			out.Body.Drawings = drawings
			return out, nil
		})

	type drawingIDInput struct {
		DrawingID string `path:"drawing_id"`
	}
	huma.Register(api, huma.Operation{OperationID: "delete-drawing", Method: http.MethodDelete, Path: "/api/v1/drawings/{drawing_id}", Summary: "Delete a drawing", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *drawingIDInput) (*statusOutput, error) {
			if err := svc.DeleteDrawing(input.DrawingID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})
}
