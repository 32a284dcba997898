package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
)

func registerTableHandlers(api huma.API, svc Service) {
	type createTableInput struct {
		Body struct {
			Headings                []string   `json:"headings" required:"true" minItems:"1"`
			Width                   *float64   `json:"width,omitempty"`
			Height                  *float64   `json:"height,omitempty"`
			Widths                  *[]float64 `json:"widths,omitempty"`
			Alignments              *[]string  `json:"alignments,omitempty"`
			Position                *string    `json:"position,omitempty" enum:"left,right,top,bottom"`
			Draggable               *bool      `json:"draggable,omitempty"`
			BackgroundColor         *string    `json:"background_color,omitempty"`
			BorderColor             *string    `json:"border_color,omitempty"`
			BorderWidth             *int       `json:"border_width,omitempty"`
			HeadingTextColors       *[]string  `json:"heading_text_colors,omitempty"`
			HeadingBackgroundColors *[]string  `json:"heading_background_colors,omitempty"`
			ReturnClickedCells      *bool      `json:"return_clicked_cells,omitempty"`
		}
	}
	type tableOutput struct {
		Body controller.TableInfo
	}
	huma.Register(api, huma.Operation{OperationID: "create-table", Method: http.MethodPost, Path: "/api/v1/tables", Summary: "Create a floating table widget", Tags: []string{"Tables"}},
		func(ctx context.Context, input *createTableInput) (*tableOutput, error) {
			opts := chartctl.DefaultTableOptions(input.Body.Headings...)
			opts.Width = orFloat(input.Body.Width, opts.Width)
			opts.Height = orFloat(input.Body.Height, opts.Height)
			if input.Body.Widths != nil {
				opts.Widths = *input.Body.Widths
			}
			if input.Body.Alignments != nil {
				opts.Alignments = *input.Body.Alignments
			}
			opts.Position = orStr(input.Body.Position, opts.Position)
			opts.Draggable = orBool(input.Body.Draggable, opts.Draggable)
			opts.BackgroundColor = orStr(input.Body.BackgroundColor, opts.BackgroundColor)
			opts.BorderColor = orStr(input.Body.BorderColor, opts.BorderColor)
			opts.BorderWidth = orInt(input.Body.BorderWidth, opts.BorderWidth)
			if input.Body.HeadingTextColors != nil {
				opts.HeadingTextColors = *input.Body.HeadingTextColors
			}
			if input.Body.HeadingBackgroundColors != nil {
				opts.HeadingBackgroundColors = *input.Body.HeadingBackgroundColors
			}
			opts.ReturnClickedCells = orBool(input.Body.ReturnClickedCells, opts.ReturnClickedCells)
			info, err := svc.CreateTable(opts)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tableOutput{Body: info}, nil
		})

	type newRowInput struct {
		TableID string `path:"table_id"`
		RowID   string `path:"row_id"`
		Body    struct {
			Values []string `json:"values" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "table-new-row", Method: http.MethodPut, Path: "/api/v1/tables/{table_id}/rows/{row_id}", Summary: "Insert or replace a row", Tags: []string{"Tables"}},
		func(ctx context.Context, input *newRowInput) (*statusOutput, error) {
			if err := svc.TableNewRow(input.TableID, input.RowID, input.Body.Values); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type updateCellInput struct {
		TableID string `path:"table_id"`
		RowID   string `path:"row_id"`
		Body    struct {
			Column string `json:"column" required:"true"`
			Value  string `json:"value" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "table-update-cell", Method: http.MethodPatch, Path: "/api/v1/tables/{table_id}/rows/{row_id}", Summary: "Update one cell of a row", Tags: []string{"Tables"}},
		func(ctx context.Context, input *updateCellInput) (*statusOutput, error) {
			if err := svc.TableUpdateCell(input.TableID, input.RowID, input.Body.Column, input.Body.Value); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type rowIDInput struct {
		TableID string `path:"table_id"`
		RowID   string `path:"row_id"`
	}
	huma.Register(api, huma.Operation{OperationID: "table-delete-row", Method: http.MethodDelete, Path: "/api/v1/tables/{table_id}/rows/{row_id}", Summary: "Delete a row", Tags: []string{"Tables"}},
		func(ctx context.Context, input *rowIDInput) (*statusOutput, error) {
			if err := svc.TableDeleteRow(input.TableID, input.RowID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type tableIDInput struct {
		TableID string `path:"table_id"`
	}
	huma.Register(api, huma.Operation{OperationID: "table-clear", Method: http.MethodDelete, Path: "/api/v1/tables/{table_id}/rows", Summary: "Delete all rows", Tags: []string{"Tables"}},
		func(ctx context.Context, input *tableIDInput) (*statusOutput, error) {
			if err := svc.TableClear(input.TableID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-table", Method: http.MethodDelete, Path: "/api/v1/tables/{table_id}", Summary: "Delete a table", Tags: []string{"Tables"}},
		func(ctx context.Context, input *tableIDInput) (*statusOutput, error) {
			if err := svc.DeleteTable(input.TableID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})
}
