package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
	"github.com/dgnsrekt/lwc_agent/internal/timeseries"
)

func registerChartHandlers(api huma.API, svc Service) {
	// --- Chart lifecycle ---

	type createChartInput struct {
		Body struct {
			Width            *float64 `json:"width,omitempty"`
			Height           *float64 `json:"height,omitempty"`
			Position         *string  `json:"position,omitempty" enum:"left,right,top,bottom"`
			Autosize         *bool    `json:"autosize,omitempty"`
			ScaleCandlesOnly *bool    `json:"scale_candles_only,omitempty"`
		}
	}
	type chartOutput struct {
		Body controller.ChartInfo
	}
	huma.Register(api, huma.Operation{OperationID: "create-chart", Method: http.MethodPost, Path: "/api/v1/charts", Summary: "Create a chart", Tags: []string{"Charts"}},
		func(ctx context.Context, input *createChartInput) (*chartOutput, error) {
			opts := chartctl.DefaultChartOptions()
			opts.Width = orFloat(input.Body.Width, opts.Width)
			opts.Height = orFloat(input.Body.Height, opts.Height)
			opts.Position = orStr(input.Body.Position, opts.Position)
			opts.Autosize = orBool(input.Body.Autosize, opts.Autosize)
			opts.ScaleCandlesOnly = orBool(input.Body.ScaleCandlesOnly, opts.ScaleCandlesOnly)
			info, err := svc.CreateChart(opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartOutput{Body: info}, nil
		})

	type createSubChartInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Width              *float64 `json:"width,omitempty"`
			Height             *float64 `json:"height,omitempty"`
			Position           *string  `json:"position,omitempty" enum:"left,right,top,bottom"`
			SyncID             *string  `json:"sync_id,omitempty"`
			SyncCrosshairsOnly *bool    `json:"sync_crosshairs_only,omitempty"`
			ScaleCandlesOnly   *bool    `json:"scale_candles_only,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-subchart", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/subcharts", Summary: "Create a subchart inside an existing chart's window", Tags: []string{"Charts"}},
		func(ctx context.Context, input *createSubChartInput) (*chartOutput, error) {
			opts := chartctl.DefaultSubChartOptions()
			opts.Width = orFloat(input.Body.Width, opts.Width)
			opts.Height = orFloat(input.Body.Height, opts.Height)
			opts.Position = orStr(input.Body.Position, opts.Position)
			opts.SyncID = orStr(input.Body.SyncID, opts.SyncID)
			opts.SyncCrosshairsOnly = orBool(input.Body.SyncCrosshairsOnly, opts.SyncCrosshairsOnly)
			opts.ScaleCandlesOnly = orBool(input.Body.ScaleCandlesOnly, opts.ScaleCandlesOnly)
			info, err := svc.CreateSubChart(input.ChartID, opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartOutput{Body: info}, nil
		})

	type chartListOutput struct {
		Body struct {
			Charts []controller.ChartInfo `json:"charts"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-charts", Method: http.MethodGet, Path: "/api/v1/charts", Summary: "List charts", Tags: []string{"Charts"}},
		func(ctx context.Context, input *struct{}) (*chartListOutput, error) {
			out := &chartListOutput{}
			out.Body.Charts = svc.ListCharts()
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-chart", Method: http.MethodGet, Path: "/api/v1/charts/{chart_id}", Summary: "Get chart by id", Tags: []string{"Charts"}},
		func(ctx context.Context, input *chartIDInput) (*chartOutput, error) {
			info, err := svc.GetChart(input.ChartID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-chart", Method: http.MethodDelete, Path: "/api/v1/charts/{chart_id}", Summary: "Delete a chart and its children", Tags: []string{"Charts"}},
		func(ctx context.Context, input *chartIDInput) (*statusOutput, error) {
			if err := svc.DeleteChart(input.ChartID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	// --- Data path ---

	type setDataInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Rows []timeseries.Record `json:"rows" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-chart-data", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/data", Summary: "Replace the chart's candle data", Tags: []string{"Data"}},
		func(ctx context.Context, input *setDataInput) (*statusOutput, error) {
			if err := svc.SetData(input.ChartID, input.Body.Rows); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type updateInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Row timeseries.Record `json:"row" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "update-chart", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/update", Summary: "Append or amend the newest bar", Tags: []string{"Data"}},
		func(ctx context.Context, input *updateInput) (*statusOutput, error) {
			if err := svc.Update(input.ChartID, input.Body.Row); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type tickInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Tick             timeseries.Record `json:"tick" required:"true"`
			CumulativeVolume bool              `json:"cumulative_volume,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "update-chart-from-tick", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/tick", Summary: "Fold a trade tick into the current bar", Tags: []string{"Data"}},
		func(ctx context.Context, input *tickInput) (*statusOutput, error) {
			if err := svc.UpdateFromTick(input.ChartID, input.Body.Tick, input.Body.CumulativeVolume); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	// --- View controls ---

	huma.Register(api, huma.Operation{OperationID: "fit-chart", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/fit", Summary: "Fit the visible range to the data", Tags: []string{"View"}},
		func(ctx context.Context, input *chartIDInput) (*statusOutput, error) {
			if err := svc.Fit(input.ChartID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type resizeInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "resize-chart", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/resize", Summary: "Resize the chart's window fraction", Tags: []string{"View"}},
		func(ctx context.Context, input *resizeInput) (*statusOutput, error) {
			if err := svc.Resize(input.ChartID, input.Body.Width, input.Body.Height); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type visibleRangeInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			From any `json:"from" required:"true"`
			To   any `json:"to" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-visible-range", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/visible-range", Summary: "Set the visible time range", Tags: []string{"View"}},
		func(ctx context.Context, input *visibleRangeInput) (*statusOutput, error) {
			if err := svc.SetVisibleRange(input.ChartID, input.Body.From, input.Body.To); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type spinnerInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Visible bool `json:"visible"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-spinner", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/spinner", Summary: "Show or hide the loading spinner", Tags: []string{"View"}},
		func(ctx context.Context, input *spinnerInput) (*statusOutput, error) {
			if err := svc.Spinner(input.ChartID, input.Body.Visible); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	registerStyleHandlers(api, svc)
}

func registerStyleHandlers(api huma.API, svc Service) {
	type timeScaleInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			RightOffset    *int     `json:"right_offset,omitempty"`
			MinBarSpacing  *float64 `json:"min_bar_spacing,omitempty"`
			Visible        *bool    `json:"visible,omitempty"`
			TimeVisible    *bool    `json:"time_visible,omitempty"`
			SecondsVisible *bool    `json:"seconds_visible,omitempty"`
			BorderVisible  *bool    `json:"border_visible,omitempty"`
			BorderColor    *string  `json:"border_color,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-time-scale", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/time-scale", Summary: "Style the time axis", Tags: []string{"Style"}},
		func(ctx context.Context, input *timeScaleInput) (*statusOutput, error) {
			opts := chartctl.DefaultTimeScaleOptions()
			opts.RightOffset = orInt(input.Body.RightOffset, opts.RightOffset)
			opts.MinBarSpacing = orFloat(input.Body.MinBarSpacing, opts.MinBarSpacing)
			opts.Visible = orBool(input.Body.Visible, opts.Visible)
			opts.TimeVisible = orBool(input.Body.TimeVisible, opts.TimeVisible)
			opts.SecondsVisible = orBool(input.Body.SecondsVisible, opts.SecondsVisible)
			opts.BorderVisible = orBool(input.Body.BorderVisible, opts.BorderVisible)
			opts.BorderColor = orStr(input.Body.BorderColor, opts.BorderColor)
			if err := svc.ApplyTimeScale(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type layoutInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			BackgroundColor *string `json:"background_color,omitempty"`
			TextColor       *string `json:"text_color,omitempty"`
			FontSize        *int    `json:"font_size,omitempty"`
			FontFamily      *string `json:"font_family,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-layout", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/layout", Summary: "Style the chart background and text", Tags: []string{"Style"}},
		func(ctx context.Context, input *layoutInput) (*statusOutput, error) {
			opts := chartctl.DefaultLayoutOptions()
			opts.BackgroundColor = orStr(input.Body.BackgroundColor, opts.BackgroundColor)
			opts.TextColor = orStr(input.Body.TextColor, opts.TextColor)
			opts.FontSize = orInt(input.Body.FontSize, opts.FontSize)
			opts.FontFamily = orStr(input.Body.FontFamily, opts.FontFamily)
			if err := svc.ApplyLayout(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type gridInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			VertEnabled *bool   `json:"vert_enabled,omitempty"`
			HorzEnabled *bool   `json:"horz_enabled,omitempty"`
			Color       *string `json:"color,omitempty"`
			Style       *string `json:"style,omitempty" enum:"solid,dotted,dashed,large_dashed,sparse_dotted"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-grid", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/grid", Summary: "Style the grid lines", Tags: []string{"Style"}},
		func(ctx context.Context, input *gridInput) (*statusOutput, error) {
			opts := chartctl.DefaultGridOptions()
			opts.VertEnabled = orBool(input.Body.VertEnabled, opts.VertEnabled)
			opts.HorzEnabled = orBool(input.Body.HorzEnabled, opts.HorzEnabled)
			opts.Color = orStr(input.Body.Color, opts.Color)
			if input.Body.Style != nil {
				opts.Style = chartctl.LineStyle(*input.Body.Style)
			}
			if err := svc.ApplyGrid(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type crosshairInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Mode                     *string `json:"mode,omitempty" enum:"normal,magnet"`
			VertVisible              *bool   `json:"vert_visible,omitempty"`
			VertWidth                *int    `json:"vert_width,omitempty"`
			VertColor                *string `json:"vert_color,omitempty"`
			VertLabelBackgroundColor *string `json:"vert_label_background_color,omitempty"`
			HorzVisible              *bool   `json:"horz_visible,omitempty"`
			HorzWidth                *int    `json:"horz_width,omitempty"`
			HorzColor                *string `json:"horz_color,omitempty"`
			HorzLabelBackgroundColor *string `json:"horz_label_background_color,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-crosshair", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/crosshair", Summary: "Style the crosshair", Tags: []string{"Style"}},
		func(ctx context.Context, input *crosshairInput) (*statusOutput, error) {
			opts := chartctl.DefaultCrosshairOptions()
			if input.Body.Mode != nil {
				opts.Mode = chartctl.CrosshairMode(*input.Body.Mode)
			}
			opts.VertVisible = orBool(input.Body.VertVisible, opts.VertVisible)
			opts.VertWidth = orInt(input.Body.VertWidth, opts.VertWidth)
			opts.VertColor = orStr(input.Body.VertColor, opts.VertColor)
			opts.VertLabelBackgroundColor = orStr(input.Body.VertLabelBackgroundColor, opts.VertLabelBackgroundColor)
			opts.HorzVisible = orBool(input.Body.HorzVisible, opts.HorzVisible)
			opts.HorzWidth = orInt(input.Body.HorzWidth, opts.HorzWidth)
			opts.HorzColor = orStr(input.Body.HorzColor, opts.HorzColor)
			opts.HorzLabelBackgroundColor = orStr(input.Body.HorzLabelBackgroundColor, opts.HorzLabelBackgroundColor)
			if err := svc.ApplyCrosshair(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type watermarkInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Text     string  `json:"text" required:"true"`
			FontSize *int    `json:"font_size,omitempty"`
			Color    *string `json:"color,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-watermark", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/watermark", Summary: "Place watermark text behind the series", Tags: []string{"Style"}},
		func(ctx context.Context, input *watermarkInput) (*statusOutput, error) {
			opts := chartctl.DefaultWatermarkOptions(input.Body.Text)
			opts.FontSize = orInt(input.Body.FontSize, opts.FontSize)
			opts.Color = orStr(input.Body.Color, opts.Color)
			if err := svc.ApplyWatermark(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type legendInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Visible            *bool   `json:"visible,omitempty"`
			OHLC               *bool   `json:"ohlc,omitempty"`
			Percent            *bool   `json:"percent,omitempty"`
			Lines              *bool   `json:"lines,omitempty"`
			Color              *string `json:"color,omitempty"`
			FontSize           *int    `json:"font_size,omitempty"`
			FontFamily         *string `json:"font_family,omitempty"`
			Text               *string `json:"text,omitempty"`
			ColorBasedOnCandle *bool   `json:"color_based_on_candle,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-legend", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/legend", Summary: "Configure the in-chart legend", Tags: []string{"Style"}},
		func(ctx context.Context, input *legendInput) (*statusOutput, error) {
			opts := chartctl.DefaultLegendOptions()
			opts.Visible = orBool(input.Body.Visible, opts.Visible)
			opts.OHLC = orBool(input.Body.OHLC, opts.OHLC)
			opts.Percent = orBool(input.Body.Percent, opts.Percent)
			opts.Lines = orBool(input.Body.Lines, opts.Lines)
			opts.Color = orStr(input.Body.Color, opts.Color)
			opts.FontSize = orInt(input.Body.FontSize, opts.FontSize)
			opts.FontFamily = orStr(input.Body.FontFamily, opts.FontFamily)
			opts.Text = orStr(input.Body.Text, opts.Text)
			opts.ColorBasedOnCandle = orBool(input.Body.ColorBasedOnCandle, opts.ColorBasedOnCandle)
			if err := svc.ApplyLegend(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type priceScaleInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			AutoScale         *bool    `json:"auto_scale,omitempty"`
			Mode              *string  `json:"mode,omitempty" enum:"normal,logarithmic,percentage,indexed_to_100"`
			InvertScale       *bool    `json:"invert_scale,omitempty"`
			AlignLabels       *bool    `json:"align_labels,omitempty"`
			ScaleMarginTop    *float64 `json:"scale_margin_top,omitempty"`
			ScaleMarginBottom *float64 `json:"scale_margin_bottom,omitempty"`
			BorderVisible     *bool    `json:"border_visible,omitempty"`
			BorderColor       *string  `json:"border_color,omitempty"`
			TextColor         *string  `json:"text_color,omitempty"`
			EntireTextOnly    *bool    `json:"entire_text_only,omitempty"`
			Visible           *bool    `json:"visible,omitempty"`
			TicksVisible      *bool    `json:"ticks_visible,omitempty"`
			MinimumWidth      *int     `json:"minimum_width,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-price-scale", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/price-scale", Summary: "Style the main series price scale", Tags: []string{"Style"}},
		func(ctx context.Context, input *priceScaleInput) (*statusOutput, error) {
			opts := chartctl.DefaultPriceScaleOptions()
			opts.AutoScale = orBool(input.Body.AutoScale, opts.AutoScale)
			if input.Body.Mode != nil {
				opts.Mode = chartctl.PriceScaleMode(*input.Body.Mode)
			}
			opts.InvertScale = orBool(input.Body.InvertScale, opts.InvertScale)
			opts.AlignLabels = orBool(input.Body.AlignLabels, opts.AlignLabels)
			opts.ScaleMarginTop = orFloat(input.Body.ScaleMarginTop, opts.ScaleMarginTop)
			opts.ScaleMarginBottom = orFloat(input.Body.ScaleMarginBottom, opts.ScaleMarginBottom)
			opts.BorderVisible = orBool(input.Body.BorderVisible, opts.BorderVisible)
			opts.BorderColor = orStr(input.Body.BorderColor, opts.BorderColor)
			opts.TextColor = orStr(input.Body.TextColor, opts.TextColor)
			opts.EntireTextOnly = orBool(input.Body.EntireTextOnly, opts.EntireTextOnly)
			opts.Visible = orBool(input.Body.Visible, opts.Visible)
			opts.TicksVisible = orBool(input.Body.TicksVisible, opts.TicksVisible)
			opts.MinimumWidth = orInt(input.Body.MinimumWidth, opts.MinimumWidth)
			if err := svc.ApplyPriceScale(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type candleStyleInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			UpColor         *string `json:"up_color,omitempty"`
			DownColor       *string `json:"down_color,omitempty"`
			WickVisible     *bool   `json:"wick_visible,omitempty"`
			BorderVisible   *bool   `json:"border_visible,omitempty"`
			BorderUpColor   *string `json:"border_up_color,omitempty"`
			BorderDownColor *string `json:"border_down_color,omitempty"`
			WickUpColor     *string `json:"wick_up_color,omitempty"`
			WickDownColor   *string `json:"wick_down_color,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-candle-style", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/candle-style", Summary: "Color the candle bodies, borders and wicks", Tags: []string{"Style"}},
		func(ctx context.Context, input *candleStyleInput) (*statusOutput, error) {
			opts := chartctl.DefaultCandleStyleOptions()
			opts.UpColor = orStr(input.Body.UpColor, opts.UpColor)
			opts.DownColor = orStr(input.Body.DownColor, opts.DownColor)
			opts.WickVisible = orBool(input.Body.WickVisible, opts.WickVisible)
			opts.BorderVisible = orBool(input.Body.BorderVisible, opts.BorderVisible)
			opts.BorderUpColor = orStr(input.Body.BorderUpColor, opts.BorderUpColor)
			opts.BorderDownColor = orStr(input.Body.BorderDownColor, opts.BorderDownColor)
			opts.WickUpColor = orStr(input.Body.WickUpColor, opts.WickUpColor)
			opts.WickDownColor = orStr(input.Body.WickDownColor, opts.WickDownColor)
			if err := svc.ApplyCandleStyle(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type volumeConfigInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			ScaleMarginTop    *float64 `json:"scale_margin_top,omitempty"`
			ScaleMarginBottom *float64 `json:"scale_margin_bottom,omitempty"`
			UpColor           *string  `json:"up_color,omitempty"`
			DownColor         *string  `json:"down_color,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "apply-volume-config", Method: http.MethodPut, Path: "/api/v1/charts/{chart_id}/options/volume", Summary: "Place and color the volume sub-series", Tags: []string{"Style"}},
		func(ctx context.Context, input *volumeConfigInput) (*statusOutput, error) {
			opts := chartctl.DefaultVolumeConfigOptions()
			opts.ScaleMarginTop = orFloat(input.Body.ScaleMarginTop, opts.ScaleMarginTop)
			opts.ScaleMarginBottom = orFloat(input.Body.ScaleMarginBottom, opts.ScaleMarginBottom)
			opts.UpColor = orStr(input.Body.UpColor, opts.UpColor)
			opts.DownColor = orStr(input.Body.DownColor, opts.DownColor)
			if err := svc.ApplyVolumeConfig(input.ChartID, opts); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})
}
