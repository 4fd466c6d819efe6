package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalStore keeps blob payloads as flat files under root. Files are named
// hex(sha256(id)) so a hostile id can never traverse out of the directory.
type LocalStore struct {
	root string
}

var _ BlobStorage = (*LocalStore)(nil)

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(id string) string {
	sum := sha256.Sum256([]byte(id))
	return filepath.Join(s.root, hex.EncodeToString(sum[:]))
}

func (s *LocalStore) Put(_ context.Context, id string, data []byte) (Metadata, error) {
	tmpFile, err := os.CreateTemp(s.root, "blob-*")
	if err != nil {
		return Metadata{}, fmt.Errorf("create tmp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return Metadata{}, fmt.Errorf("write blob: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Metadata{}, fmt.Errorf("close tmp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		return Metadata{}, fmt.Errorf("move blob: %w", err)
	}
	return Metadata{Size: int64(len(data)), CreatedAt: time.Now().UTC()}, nil
}

func (s *LocalStore) Get(_ context.Context, id string) ([]byte, Metadata, error) {
	path := s.path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Metadata{}, ErrNotFound
		}
		return nil, Metadata{}, fmt.Errorf("read blob: %w", err)
	}

	createdAt := time.Now().UTC()
	if info, err := os.Stat(path); err == nil {
		createdAt = info.ModTime().UTC()
	}
	return data, Metadata{Size: int64(len(data)), CreatedAt: createdAt}, nil
}

func (s *LocalStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
