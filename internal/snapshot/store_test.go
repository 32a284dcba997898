package snapshot

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/google/uuid"
)

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

func TestSaveGetReadImageDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	id := uuid.NewString()
	image := []byte("not-really-a-png")
	saved, err := store.Save(Meta{ID: id, ChartID: "chart_1", Notes: "pre-open"}, image)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Format != "png" {
		t.Fatalf("Format = %q; want png default", saved.Format)
	}
	if saved.SizeBytes != len(image) {
		t.Fatalf("SizeBytes = %d; want %d", saved.SizeBytes, len(image))
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ChartID != "chart_1" || got.Notes != "pre-open" {
		t.Fatalf("Get() = %+v", got)
	}

	data, format, err := store.ReadImage(id)
	if err != nil {
		t.Fatalf("ReadImage() error = %v", err)
	}
	if format != "png" || !bytes.Equal(data, image) {
		t.Fatalf("ReadImage() = %q bytes, format %q", data, format)
	}

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err = store.Get(id)
	assertCode(t, err, chartctl.CodeSnapshotNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	older := Meta{ID: uuid.NewString(), ChartID: "chart_1", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := Meta{ID: uuid.NewString(), ChartID: "chart_2", CreatedAt: time.Now().UTC()}
	if _, err := store.Save(older, []byte("a")); err != nil {
		t.Fatalf("Save(older) error = %v", err)
	}
	if _, err := store.Save(newer, []byte("b")); err != nil {
		t.Fatalf("Save(newer) error = %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List() len = %d; want 2", len(metas))
	}
	if metas[0].ID != newer.ID || metas[1].ID != older.ID {
		t.Fatalf("List() order = [%s %s]; want newest first", metas[0].ID, metas[1].ID)
	}
}

func TestInvalidIDRejected(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	for _, id := range []string{"", "abc", "../../etc/passwd", "123E4567-E89B-12D3-A456-426614174000x"} {
		if _, err := store.Get(id); err == nil {
			t.Fatalf("Get(%q) = nil; want validation error", id)
		} else {
			assertCode(t, err, chartctl.CodeValidation)
		}
	}
}

func TestMissingSnapshotNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	id := uuid.NewString()
	_, err = store.Get(id)
	assertCode(t, err, chartctl.CodeSnapshotNotFound)

	_, _, err = store.ReadImage(id)
	assertCode(t, err, chartctl.CodeSnapshotNotFound)

	err = store.Delete(id)
	assertCode(t, err, chartctl.CodeSnapshotNotFound)
}
