package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

func registerSeriesHandlers(api huma.API, svc Service) {
	type seriesOutput struct {
		Body controller.SeriesInfo
	}

	type createLineInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Name         string  `json:"name" required:"true"`
			Color        *string `json:"color,omitempty"`
			Style        *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
			Width        *int    `json:"width,omitempty"`
			PriceLine    *bool   `json:"price_line,omitempty"`
			PriceLabel   *bool   `json:"price_label,omitempty"`
			Group        *string `json:"group,omitempty"`
			LegendSymbol *string `json:"legend_symbol,omitempty"`
			PriceScaleID *string `json:"price_scale_id,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-line-series", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/series/line", Summary: "Add a line series", Tags: []string{"Series"}},
		func(ctx context.Context, input *createLineInput) (*seriesOutput, error) {
			opts := chartctl.DefaultLineOptions(input.Body.Name)
			opts.Color = orStr(input.Body.Color, opts.Color)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			opts.Width = orInt(input.Body.Width, opts.Width)
			opts.PriceLine = orBool(input.Body.PriceLine, opts.PriceLine)
			opts.PriceLabel = orBool(input.Body.PriceLabel, opts.PriceLabel)
			opts.Group = orStr(input.Body.Group, opts.Group)
			opts.LegendSymbol = orStr(input.Body.LegendSymbol, opts.LegendSymbol)
			opts.PriceScaleID = orStr(input.Body.PriceScaleID, opts.PriceScaleID)
			info, err := svc.CreateLine(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &seriesOutput{Body: info}, nil
		})

	type createHistogramInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Name              string   `json:"name" required:"true"`
			Color             *string  `json:"color,omitempty"`
			PriceLine         *bool    `json:"price_line,omitempty"`
			PriceLabel        *bool    `json:"price_label,omitempty"`
			Group             *string  `json:"group,omitempty"`
			LegendSymbol      *string  `json:"legend_symbol,omitempty"`
			ScaleMarginTop    *float64 `json:"scale_margin_top,omitempty"`
			ScaleMarginBottom *float64 `json:"scale_margin_bottom,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-histogram-series", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/series/histogram", Summary: "Add a histogram series", Tags: []string{"Series"}},
		func(ctx context.Context, input *createHistogramInput) (*seriesOutput, error) {
			opts := chartctl.DefaultHistogramOptions(input.Body.Name)
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.PriceLine = orBool(input.Body.PriceLine, opts.PriceLine)
			opts.PriceLabel = orBool(input.Body.PriceLabel, opts.PriceLabel)
			opts.Group = orStr(input.Body.Group, opts.Group)
			opts.LegendSymbol = orStr(input.Body.LegendSymbol, opts.LegendSymbol)
			opts.ScaleMarginTop = orFloat(input.Body.ScaleMarginTop, opts.ScaleMarginTop)
			opts.ScaleMarginBottom = orFloat(input.Body.ScaleMarginBottom, opts.ScaleMarginBottom)
			info, err := svc.CreateHistogram(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &seriesOutput{Body: info}, nil
		})

	type createAreaInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Name         string  `json:"name" required:"true"`
			TopColor     *string `json:"top_color,omitempty"`
			BottomColor  *string `json:"bottom_color,omitempty"`
			Invert       *bool   `json:"invert,omitempty"`
			LineColor    *string `json:"line_color,omitempty"`
			Style        *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
			Width        *int    `json:"width,omitempty"`
			PriceLine    *bool   `json:"price_line,omitempty"`
			PriceLabel   *bool   `json:"price_label,omitempty"`
			Group        *string `json:"group,omitempty"`
			LegendSymbol *string `json:"legend_symbol,omitempty"`
			PriceScaleID *string `json:"price_scale_id,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-area-series", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/series/area", Summary: "Add an area series", Tags: []string{"Series"}},
		func(ctx context.Context, input *createAreaInput) (*seriesOutput, error) {
			opts := chartctl.DefaultAreaOptions(input.Body.Name)
			opts.TopColor = orStr(input.Body.TopColor, opts.TopColor)
			opts.BottomColor = orStr(input.Body.BottomColor, opts.BottomColor)
			opts.Invert = orBool(input.Body.Invert, opts.Invert)
			opts.LineColor = orStr(input.Body.LineColor, opts.LineColor)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			opts.Width = orInt(input.Body.Width, opts.Width)
			opts.PriceLine = orBool(input.Body.PriceLine, opts.PriceLine)
			opts.PriceLabel = orBool(input.Body.PriceLabel, opts.PriceLabel)
			opts.Group = orStr(input.Body.Group, opts.Group)
			opts.LegendSymbol = orStr(input.Body.LegendSymbol, opts.LegendSymbol)
			opts.PriceScaleID = orStr(input.Body.PriceScaleID, opts.PriceScaleID)
			info, err := svc.CreateArea(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &seriesOutput{Body: info}, nil
		})

	type createBarInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Name         string    `json:"name" required:"true"`
			UpColor      *string   `json:"up_color,omitempty"`
			DownColor    *string   `json:"down_color,omitempty"`
			OpenVisible  *bool     `json:"open_visible,omitempty"`
			ThinBars     *bool     `json:"thin_bars,omitempty"`
			PriceLine    *bool     `json:"price_line,omitempty"`
			PriceLabel   *bool     `json:"price_label,omitempty"`
			Group        *string   `json:"group,omitempty"`
			Symbols      *[]string `json:"legend_symbols,omitempty" minItems:"2" maxItems:"2"`
			PriceScaleID *string   `json:"price_scale_id,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-bar-series", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/series/bar", Summary: "Add an OHLC bar series", Tags: []string{"Series"}},
		func(ctx context.Context, input *createBarInput) (*seriesOutput, error) {
			opts := chartctl.DefaultBarOptions(input.Body.Name)
			opts.UpColor = orStr(input.Body.UpColor, opts.UpColor)
			opts.DownColor = orStr(input.Body.DownColor, opts.DownColor)
			opts.OpenVisible = orBool(input.Body.OpenVisible, opts.OpenVisible)
			opts.ThinBars = orBool(input.Body.ThinBars, opts.ThinBars)
			opts.PriceLine = orBool(input.Body.PriceLine, opts.PriceLine)
			opts.PriceLabel = orBool(input.Body.PriceLabel, opts.PriceLabel)
			opts.Group = orStr(input.Body.Group, opts.Group)
			if input.Body.Symbols != nil && len(*input.Body.Symbols) == 2 {
				opts.LegendSymbols = [2]string{(*input.Body.Symbols)[0], (*input.Body.Symbols)[1]}
			}
			opts.PriceScaleID = orStr(input.Body.PriceScaleID, opts.PriceScaleID)
			info, err := svc.CreateBar(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &seriesOutput{Body: info}, nil
		})

	type seriesListOutput struct {
		Body struct {
			ChartID string                  `json:"chart_id"`
			Series  []controller.SeriesInfo `json:"series"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-series", Method: http.MethodGet, Path: "/api/v1/charts/{chart_id}/series", Summary: "List the chart's child series in creation order", Tags: []string{"Series"}},
		func(ctx context.Context, input *chartIDInput) (*seriesListOutput, error) {
			series, err := svc.ListSeries(input.ChartID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &seriesListOutput{}
			out.Body.ChartID = input.ChartID
			out.Body.Series = series
			return out, nil
		})

	type seriesIDInput struct {
		SeriesID string `path:"series_id"`
	}

	type seriesDataInput struct {
		SeriesID string `path:"series_id"`
		Body     struct {
			Rows []timeseries.Record `json:"rows" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-series-data", Method: http.MethodPut, Path: "/api/v1/series/{series_id}/data", Summary: "Replace a series' data", Tags: []string{"Series"}},
		func(ctx context.Context, input *seriesDataInput) (*statusOutput, error) {
			if err := svc.SeriesSetData(input.SeriesID, input.Body.Rows); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type seriesUpdateInput struct {
		SeriesID string `path:"series_id"`
		Body     struct {
			Row timeseries.Record `json:"row" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "update-series", Method: http.MethodPost, Path: "/api/v1/series/{series_id}/update", Summary: "Append or amend the series' newest point", Tags: []string{"Series"}},
		func(ctx context.Context, input *seriesUpdateInput) (*statusOutput, error) {
			if err := svc.SeriesUpdate(input.SeriesID, input.Body.Row); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-series", Method: http.MethodDelete, Path: "/api/v1/series/{series_id}", Summary: "Delete a series", Tags: []string{"Series"}},
		func(ctx context.Context, input *seriesIDInput) (*statusOutput, error) {
			if err := svc.DeleteSeries(input.SeriesID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})
}
