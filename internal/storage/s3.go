package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"simpledrive/internal/sigv4"
)

const errorBodyLimit = 32 * 1024

// S3Store talks to an S3-compatible object store over plain HTTP, signing
// every request with SigV4. Objects are addressed path-style:
// <endpoint>/<bucket>/<key>. No retries happen here; a transport failure
// surfaces as ErrUnavailable for the caller to retry.
type S3Store struct {
	endpoint *url.URL
	bucket   string
	signer   *sigv4.Signer
	client   *http.Client
	now      func() time.Time
}

var _ BlobStorage = (*S3Store)(nil)

type S3Options struct {
	Endpoint    string
	Bucket      string
	Region      string
	Credentials sigv4.Credentials
	Timeout     time.Duration
}

func NewS3Store(opts S3Options) (*S3Store, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("s3: endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("s3: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("s3: endpoint scheme must be http or https")
	}
	bucket := strings.Trim(strings.TrimSpace(opts.Bucket), "/")
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-east-1"
	}
	signer, err := sigv4.NewSigner(opts.Credentials, region, "s3")
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &S3Store{
		endpoint: u,
		bucket:   bucket,
		signer:   signer,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, id string, data []byte) (Metadata, error) {
	resp, err := s.do(ctx, http.MethodPut, id, data)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Metadata{}, classify(resp, false)
	}
	return Metadata{Size: int64(len(data)), CreatedAt: s.now().UTC()}, nil
}

func (s *S3Store) Get(ctx context.Context, id string) ([]byte, Metadata, error) {
	resp, err := s.do(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Metadata{}, classify(resp, true)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: read object body: %v", ErrUnavailable, err)
	}

	createdAt := s.now().UTC()
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			createdAt = t.UTC()
		}
	}
	return data, Metadata{Size: int64(len(data)), CreatedAt: createdAt}, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	resp, err := s.do(ctx, http.MethodDelete, id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp, false)
	}
	return nil
}

// do builds, signs, and issues one request for the object named id. The
// payload hash covers the exact body bytes and rides along as
// x-amz-content-sha256 so the remote store can verify it.
func (s *S3Store) do(ctx context.Context, method, id string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(id).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("s3: build request: %w", err)
	}
	if method == http.MethodPut {
		req.Header.Set("Content-Type", "application/octet-stream")
		req.ContentLength = int64(len(body))
	}

	payloadHash := sigv4.PayloadHash(body)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	if err := s.signer.Sign(req, payloadHash, s.now()); err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, id, err)
	}
	return resp, nil
}

// objectURL addresses the object path-style under the configured bucket.
// RawPath carries the SigV4 path encoding so the bytes on the wire match the
// bytes that were signed.
func (s *S3Store) objectURL(id string) *url.URL {
	u := *s.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + "/" + s.bucket + "/" + id
	u.RawPath = sigv4.EncodePath(u.Path)
	return &u
}

// classify maps a non-2xx response to the error taxonomy. 404 means a
// missing object only on reads; on writes it is a generic backend fault
// (e.g. the bucket does not exist).
func classify(resp *http.Response, missingObject bool) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthRejected, strings.TrimSpace(string(body)))
	case resp.StatusCode == http.StatusNotFound && missingObject:
		return ErrNotFound
	default:
		return &BackendError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}
