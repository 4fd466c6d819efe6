package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"simpledrive/internal/storage"
)

// BlobMeta is one row of the metadata registry. created_at is assigned at
// first successful store and never changes afterwards.
type BlobMeta struct {
	ID          string
	Size        int64
	CreatedAt   time.Time
	StorageType string
}

// Store persists blob metadata. Payload bytes live in whichever BlobStorage
// backend is configured; the registry is the source of truth for existence,
// size, and created_at.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert records metadata for a newly stored blob. A duplicate id fails with
// storage.ErrConflict without touching the existing row.
func (s *Store) Insert(ctx context.Context, meta BlobMeta) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs_metadata (id, size, created_at, storage_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, meta.ID, meta.Size, meta.CreatedAt.UTC().UnixMilli(), meta.StorageType)
	if err != nil {
		return fmt.Errorf("insert blob metadata: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert blob metadata: %w", err)
	}
	if affected == 0 {
		return storage.ErrConflict
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (BlobMeta, error) {
	var (
		meta      BlobMeta
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, size, created_at, storage_type
		FROM blobs_metadata
		WHERE id = $1
	`, id).Scan(&meta.ID, &meta.Size, &createdAt, &meta.StorageType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BlobMeta{}, storage.ErrNotFound
		}
		return BlobMeta{}, fmt.Errorf("select blob metadata: %w", err)
	}
	meta.CreatedAt = time.UnixMilli(createdAt).UTC()
	return meta, nil
}

// Delete removes a metadata row. Used when backend cleanup rolls back a
// partially completed store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs_metadata WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blob metadata: %w", err)
	}
	return nil
}
