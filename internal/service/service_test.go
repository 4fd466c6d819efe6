package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"simpledrive/internal/storage"
	"simpledrive/internal/store"
)

type fakeBlobStorage struct {
	blobs     map[string][]byte
	putErr    error
	deleteErr error
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStorage) Put(_ context.Context, id string, data []byte) (storage.Metadata, error) {
	if f.putErr != nil {
		return storage.Metadata{}, f.putErr
	}
	f.blobs[id] = append([]byte(nil), data...)
	return storage.Metadata{Size: int64(len(data))}, nil
}

func (f *fakeBlobStorage) Get(_ context.Context, id string) ([]byte, storage.Metadata, error) {
	data, ok := f.blobs[id]
	if !ok {
		return nil, storage.Metadata{}, storage.ErrNotFound
	}
	return data, storage.Metadata{Size: int64(len(data))}, nil
}

func (f *fakeBlobStorage) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.blobs, id)
	return nil
}

type fakeMetaStore struct {
	rows      map[string]store.BlobMeta
	insertErr error
}

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{rows: make(map[string]store.BlobMeta)}
}

func (f *fakeMetaStore) Insert(_ context.Context, meta store.BlobMeta) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.rows[meta.ID]; ok {
		return storage.ErrConflict
	}
	f.rows[meta.ID] = meta
	return nil
}

func (f *fakeMetaStore) Get(_ context.Context, id string) (store.BlobMeta, error) {
	meta, ok := f.rows[id]
	if !ok {
		return store.BlobMeta{}, storage.ErrNotFound
	}
	return meta, nil
}

func (f *fakeMetaStore) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func newTestService(meta MetadataStore, blobs storage.BlobStorage) *Service {
	return New(meta, blobs, "local", 1024, log.New(&bytes.Buffer{}, "", 0))
}

func TestService_CreateAndGetBlob(t *testing.T) {
	t.Parallel()
	blobs := newFakeBlobStorage()
	svc := newTestService(newFakeMetaStore(), blobs)

	payload := []byte("hello service")
	created, err := svc.CreateBlob(context.Background(), "doc-1", payload)
	if err != nil {
		t.Fatalf("CreateBlob() error = %v", err)
	}
	if created.Size != int64(len(payload)) {
		t.Fatalf("CreateBlob() size = %d, want %d", created.Size, len(payload))
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("CreateBlob() created_at is zero")
	}
	if created.StorageType != "local" {
		t.Fatalf("CreateBlob() storage type = %q, want %q", created.StorageType, "local")
	}

	meta, data, err := svc.GetBlob(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("GetBlob() data = %v, want %v", data, payload)
	}
	if !meta.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("GetBlob() created_at = %v, want %v", meta.CreatedAt, created.CreatedAt)
	}
}

func TestService_CreateBlobDuplicateConflicts(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeMetaStore(), newFakeBlobStorage())

	if _, err := svc.CreateBlob(context.Background(), "doc-1", []byte("first")); err != nil {
		t.Fatalf("CreateBlob() error = %v", err)
	}
	if _, err := svc.CreateBlob(context.Background(), "doc-1", []byte("second")); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("CreateBlob() duplicate error = %v, want ErrConflict", err)
	}

	// The original payload survives the rejected write.
	_, data, err := svc.GetBlob(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("GetBlob() data = %q, want %q", data, "first")
	}
}

func TestService_CreateBlobTooLarge(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeMetaStore(), newFakeBlobStorage())

	oversized := bytes.Repeat([]byte{'x'}, 1025)
	if _, err := svc.CreateBlob(context.Background(), "doc-1", oversized); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("CreateBlob() error = %v, want ErrTooLarge", err)
	}
}

func TestService_GetBlobMissing(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeMetaStore(), newFakeBlobStorage())

	if _, _, err := svc.GetBlob(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetBlob() error = %v, want ErrNotFound", err)
	}
}

func TestService_CreateBlobCleansUpOnMetadataFailure(t *testing.T) {
	t.Parallel()
	blobs := newFakeBlobStorage()
	meta := newFakeMetaStore()
	meta.insertErr = errors.New("registry down")
	svc := newTestService(meta, blobs)

	if _, err := svc.CreateBlob(context.Background(), "doc-1", []byte("x")); err == nil {
		t.Fatal("CreateBlob() error = nil, want registry failure")
	}
	if _, ok := blobs.blobs["doc-1"]; ok {
		t.Fatal("payload left behind after failed metadata insert")
	}
}

func TestService_CreateBlobConflictKeepsWinnersPayload(t *testing.T) {
	t.Parallel()
	blobs := newFakeBlobStorage()
	meta := newFakeMetaStore()
	svc := newTestService(meta, blobs)

	// Simulate losing a race: the pre-check sees no metadata, the payload is
	// written, then the insert collides with a concurrent winner.
	meta.insertErr = storage.ErrConflict

	if _, err := svc.CreateBlob(context.Background(), "contested", []byte("winner")); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("CreateBlob() error = %v, want ErrConflict", err)
	}
	if _, ok := blobs.blobs["contested"]; !ok {
		t.Fatal("losing request deleted the payload the winning request stored")
	}
}

func TestService_CreateBlobLogsCleanupFailure(t *testing.T) {
	t.Parallel()
	blobs := newFakeBlobStorage()
	blobs.deleteErr = errors.New("backend gone")
	meta := newFakeMetaStore()
	meta.insertErr = errors.New("registry down")

	var logged bytes.Buffer
	svc := New(meta, blobs, "local", 1024, log.New(&logged, "", 0))

	if _, err := svc.CreateBlob(context.Background(), "doc-1", []byte("x")); err == nil {
		t.Fatal("CreateBlob() error = nil, want registry failure")
	}
	if !strings.Contains(logged.String(), "cleanup after failed metadata insert") {
		t.Fatalf("log output = %q, want cleanup warning", logged.String())
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"plain", "doc-1", false},
		{"dotted", "report.2024.txt", false},
		{"punctuation", "a=b+c_d~e", false},
		{"max length", strings.Repeat("a", 512), false},
		{"empty", "", true},
		{"over max length", strings.Repeat("a", 513), true},
		{"forward slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"traversal", "..secret", true},
		{"space", "a b", true},
		{"control byte", "a\x00b", true},
		{"non-ascii", "café", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateID(tt.id)
			if tt.wantErr {
				if !errors.Is(err, storage.ErrInvalidID) {
					t.Fatalf("ValidateID(%q) error = %v, want ErrInvalidID", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateID(%q) error = %v", tt.id, err)
			}
		})
	}
}
