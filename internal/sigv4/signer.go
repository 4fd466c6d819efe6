// Package sigv4 signs outbound HTTP requests with AWS Signature Version 4.
// It implements the full algorithm from scratch: canonical request
// construction, scoped signing key derivation, and Authorization header
// assembly. No vendor SDK is involved.
package sigv4

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	algorithm   = "AWS4-HMAC-SHA256"
	scopeSuffix = "aws4_request"

	amzDateHeader          = "X-Amz-Date"
	amzSecurityTokenHeader = "X-Amz-Security-Token"
	authorizationHeader    = "Authorization"

	amzTimeFormat = "20060102T150405Z"
	amzDateFormat = "20060102"
)

// ErrMalformedRequest reports a request that cannot be canonicalized. It
// indicates a programming error in the caller, not a transient condition.
var ErrMalformedRequest = errors.New("sigv4: malformed request")

// Credentials identify the caller to the remote object store. They are
// supplied once at configuration time and must never be logged.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Signer produces Authorization headers for requests to a single
// region/service pair. Safe for concurrent use.
type Signer struct {
	creds   Credentials
	region  string
	service string
	keys    keyCache
}

func NewSigner(creds Credentials, region, service string) (*Signer, error) {
	if strings.TrimSpace(creds.AccessKey) == "" || strings.TrimSpace(creds.SecretKey) == "" {
		return nil, fmt.Errorf("sigv4: access key and secret key are required")
	}
	if strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("sigv4: region is required")
	}
	if strings.TrimSpace(service) == "" {
		return nil, fmt.Errorf("sigv4: service is required")
	}
	return &Signer{creds: creds, region: region, service: service}, nil
}

// Sign attaches X-Amz-Date and Authorization headers to req. payloadHash is
// the hex sha256 of the request body (EmptyPayloadSHA256 when there is none)
// and signTime the current UTC instant; the signer applies no clock skew
// adjustment of its own.
//
// The signed header set is host, x-amz-date, and every x-amz-* header
// present on the request.
func (s *Signer) Sign(req *http.Request, payloadHash string, signTime time.Time) error {
	t := signTime.UTC()
	amzDate := t.Format(amzTimeFormat)
	date8 := t.Format(amzDateFormat)

	req.Header.Set(amzDateHeader, amzDate)
	if s.creds.SessionToken != "" {
		req.Header.Set(amzSecurityTokenHeader, s.creds.SessionToken)
	}

	host := req.Host
	if host == "" {
		host = req.URL.Host
	}

	headers := req.Header.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	headers.Set("Host", host)

	signedNames := signedHeaderNames(headers)
	canonical, err := buildCanonicalRequest(req.Method, req.URL.Path, req.URL.Query(), headers, signedNames, payloadHash)
	if err != nil {
		return err
	}

	scope := strings.Join([]string{date8, s.region, s.service, scopeSuffix}, "/")
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonical)),
	}, "\n")

	signingKey := s.keys.get(s.creds.SecretKey, s.region, s.service, date8)
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))

	req.Header.Set(authorizationHeader, fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, s.creds.AccessKey, scope, strings.Join(signedNames, ";"), signature,
	))
	return nil
}

// signedHeaderNames selects the headers covered by the signature: host plus
// every x-amz-* header on the request, sorted. The Authorization header's
// SignedHeaders list must match the canonical request byte for byte, so the
// order cannot be left to map iteration. Authorization itself is never signed.
func signedHeaderNames(headers http.Header) []string {
	names := []string{"host"}
	for name := range headers {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-amz-") {
			names = append(names, lower)
		}
	}
	sort.Strings(names)
	return names
}
