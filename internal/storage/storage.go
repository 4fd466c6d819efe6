package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound reports that no payload is stored under the requested id.
	ErrNotFound = errors.New("blob not found")

	// ErrConflict reports that a payload already exists under the id.
	ErrConflict = errors.New("blob already exists")

	// ErrInvalidID reports an id that is not safe as a storage key.
	ErrInvalidID = errors.New("invalid blob id")

	// ErrUnavailable marks transport-level failures and timeouts, the only
	// error kind callers should retry.
	ErrUnavailable = errors.New("storage backend unavailable")

	// ErrAuthRejected marks a remote signature rejection. Identical inputs
	// reproduce it, so it is never retried.
	ErrAuthRejected = errors.New("backend rejected request signature")
)

// BackendError carries a non-2xx backend response that is neither an auth
// rejection nor a missing object.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

// Metadata describes a stored blob.
type Metadata struct {
	Size      int64
	CreatedAt time.Time
}

// BlobStorage is the uniform contract implemented by the local-filesystem,
// database, and S3 backends. Implementations must be safe for concurrent
// use and must not retry internally; retry policy belongs to the caller.
type BlobStorage interface {
	// Put stores data under id. Backends overwrite silently on re-put; the
	// service layer enforces the reject-on-conflict policy through the
	// metadata registry before any backend is reached.
	Put(ctx context.Context, id string, data []byte) (Metadata, error)

	// Get retrieves the payload stored under id.
	Get(ctx context.Context, id string) ([]byte, Metadata, error)

	// Delete removes the payload stored under id. Used for best-effort
	// cleanup when metadata persistence fails after a successful Put.
	Delete(ctx context.Context, id string) error
}
