package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"simpledrive/internal/storage"
	"simpledrive/internal/store"
)

// ErrTooLarge reports a payload over the configured upload ceiling.
var ErrTooLarge = errors.New("payload too large")

const maxIDLength = 512

// MetadataStore is the slice of the metadata registry the service needs.
type MetadataStore interface {
	Insert(ctx context.Context, meta store.BlobMeta) error
	Get(ctx context.Context, id string) (store.BlobMeta, error)
	Delete(ctx context.Context, id string) error
}

// Service applies the blob rules: id validation, the upload size ceiling,
// reject-on-conflict for duplicate ids, and payload cleanup when metadata
// persistence fails. It never retries backend calls; storage.ErrUnavailable
// is the caller's retry signal.
type Service struct {
	meta           MetadataStore
	blobs          storage.BlobStorage
	storageType    string
	maxUploadBytes int64
	logger         *log.Logger
}

func New(meta MetadataStore, blobs storage.BlobStorage, storageType string, maxUploadBytes int64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		meta:           meta,
		blobs:          blobs,
		storageType:    storageType,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// CreateBlob stores data under id. A previously stored id fails with
// storage.ErrConflict; the payload under an id is immutable once written.
func (s *Service) CreateBlob(ctx context.Context, id string, data []byte) (store.BlobMeta, error) {
	if err := ValidateID(id); err != nil {
		return store.BlobMeta{}, err
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return store.BlobMeta{}, fmt.Errorf("%w: max %d bytes", ErrTooLarge, s.maxUploadBytes)
	}

	if _, err := s.meta.Get(ctx, id); err == nil {
		return store.BlobMeta{}, storage.ErrConflict
	} else if !errors.Is(err, storage.ErrNotFound) {
		return store.BlobMeta{}, err
	}

	if _, err := s.blobs.Put(ctx, id, data); err != nil {
		return store.BlobMeta{}, err
	}

	meta := store.BlobMeta{
		ID:          id,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
		StorageType: s.storageType,
	}
	if err := s.meta.Insert(ctx, meta); err != nil {
		// A conflict here means a concurrent CreateBlob won the race after
		// our pre-check; its payload is live, so it must not be deleted.
		if !errors.Is(err, storage.ErrConflict) {
			// Roll the payload back so a failed store leaves nothing behind.
			if cleanupErr := s.blobs.Delete(ctx, id); cleanupErr != nil {
				s.logger.Printf("cleanup after failed metadata insert for %q: %v", id, cleanupErr)
			}
		}
		return store.BlobMeta{}, err
	}
	return meta, nil
}

// GetBlob returns the registry metadata and the payload bytes for id. The
// registry is the source of truth for existence: an id with no metadata is
// storage.ErrNotFound regardless of backend contents.
func (s *Service) GetBlob(ctx context.Context, id string) (store.BlobMeta, []byte, error) {
	if err := ValidateID(id); err != nil {
		return store.BlobMeta{}, nil, err
	}
	meta, err := s.meta.Get(ctx, id)
	if err != nil {
		return store.BlobMeta{}, nil, err
	}
	data, _, err := s.blobs.Get(ctx, id)
	if err != nil {
		return store.BlobMeta{}, nil, err
	}
	return meta, data, nil
}

// ValidateID rejects ids that are unsafe as storage keys before any backend
// sees them: path separators, traversal sequences, control bytes, non-ASCII,
// and anything over maxIDLength bytes.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", storage.ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: longer than %d bytes", storage.ErrInvalidID, maxIDLength)
	}
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: path separators not allowed", storage.ErrInvalidID)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("%w: traversal sequence not allowed", storage.ErrInvalidID)
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= 0x20 || c >= 0x7f {
			return fmt.Errorf("%w: byte %#x not allowed", storage.ErrInvalidID, c)
		}
	}
	return nil
}
