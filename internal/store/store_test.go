package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"simpledrive/internal/db"
	"simpledrive/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return New(database)
}

func TestStore_InsertAndGet(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	createdAt := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	meta := BlobMeta{ID: "doc-1", Size: 42, CreatedAt: createdAt, StorageType: "local"}
	if err := st.Insert(context.Background(), meta); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := st.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "doc-1" || got.Size != 42 || got.StorageType != "local" {
		t.Fatalf("Get() = %+v, want %+v", got, meta)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("Get() created_at = %v, want %v", got.CreatedAt, createdAt)
	}
}

func TestStore_InsertDuplicateConflicts(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	first := BlobMeta{ID: "doc-1", Size: 1, CreatedAt: time.Now().UTC(), StorageType: "local"}
	if err := st.Insert(context.Background(), first); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	second := BlobMeta{ID: "doc-1", Size: 99, CreatedAt: time.Now().UTC(), StorageType: "local"}
	if err := st.Insert(context.Background(), second); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("Insert() duplicate error = %v, want ErrConflict", err)
	}

	// The original row is untouched: created_at is immutable after the
	// first successful store.
	got, err := st.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Size != 1 {
		t.Fatalf("Get() size = %d, want original 1", got.Size)
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if _, err := st.Get(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	meta := BlobMeta{ID: "doc-1", Size: 1, CreatedAt: time.Now().UTC(), StorageType: "db"}
	if err := st.Insert(context.Background(), meta); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := st.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := st.Get(context.Background(), "doc-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
