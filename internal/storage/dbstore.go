package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DBStore keeps blob payloads in the blobs_data table, next to the metadata
// registry. Useful when a separate object store is not worth operating.
type DBStore struct {
	db *sql.DB
}

var _ BlobStorage = (*DBStore)(nil)

func NewDBStore(db *sql.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Put(ctx context.Context, id string, data []byte) (Metadata, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs_data (id, data)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data
	`, id, data)
	if err != nil {
		return Metadata{}, fmt.Errorf("insert blob data: %w", err)
	}
	return Metadata{Size: int64(len(data)), CreatedAt: time.Now().UTC()}, nil
}

func (s *DBStore) Get(ctx context.Context, id string) ([]byte, Metadata, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM blobs_data WHERE id = $1
	`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, Metadata{}, ErrNotFound
		}
		return nil, Metadata{}, fmt.Errorf("select blob data: %w", err)
	}
	return data, Metadata{Size: int64(len(data)), CreatedAt: time.Now().UTC()}, nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs_data WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blob data: %w", err)
	}
	return nil
}
