package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/lwc_agent/internal/controller"
	"github.com/dgnsrekt/lwc_agent/internal/snapshot"
)

func registerSnapshotHandlers(api huma.API, svc Service) {
	type takeSnapshotInput struct {
		ChartID string `path:"chart_id"`
		Body    struct {
			Notes string `json:"notes,omitempty"`
		}
	}
	type snapshotOutput struct {
		Body snapshot.Meta
	}
	huma.Register(api, huma.Operation{OperationID: "take-snapshot", Method: http.MethodPost, Path: "/api/v1/charts/{chart_id}/snapshot", Summary: "Capture the chart as a PNG", Tags: []string{"Snapshots"}},
		func(ctx context.Context, input *takeSnapshotInput) (*snapshotOutput, error) {
			meta, err := svc.TakeSnapshot(ctx, input.ChartID, input.Body.Notes)
			if err != nil {
				return nil, mapErr(err)
			}
			return &snapshotOutput{Body: meta}, nil
		})

	type snapshotListOutput struct {
		Body struct {
			Snapshots []snapshot.Meta `json:"snapshots"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-snapshots", Method: http.MethodGet, Path: "/api/v1/snapshots", Summary: "List snapshots newest first", Tags: []string{"Snapshots"}},
		func(ctx context.Context, input *struct{}) (*snapshotListOutput, error) {
			metas, err := svc.ListSnapshots()
			if err != nil {
				return nil, mapErr(err)
			}
			out := &snapshotListOutput{}
			out.Body.Snapshots = metas
			return out, nil
		})

	type snapshotIDInput struct {
		SnapshotID string `path:"snapshot_id"`
	}
	huma.Register(api, huma.Operation{OperationID: "get-snapshot", Method: http.MethodGet, Path: "/api/v1/snapshots/{snapshot_id}", Summary: "Get snapshot metadata", Tags: []string{"Snapshots"}},
		func(ctx context.Context, input *snapshotIDInput) (*snapshotOutput, error) {
			meta, err := svc.GetSnapshot(input.SnapshotID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &snapshotOutput{Body: meta}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-snapshot", Method: http.MethodDelete, Path: "/api/v1/snapshots/{snapshot_id}", Summary: "Delete a snapshot and its metadata", Tags: []string{"Snapshots"}},
		func(ctx context.Context, input *snapshotIDInput) (*statusOutput, error) {
			if err := svc.DeleteSnapshot(input.SnapshotID); err != nil {
				return nil, mapErr(err)
			}
			return okStatus(), nil
		})

	type healthOutput struct {
		Body controller.Health
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Bridge health and registry counts", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			return &healthOutput{Body: svc.Health()}, nil
		})
}
