package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const (
	// EmptyPayloadSHA256 is hex(sha256("")), the payload hash for requests
	// with no body.
	EmptyPayloadSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// UnsignedPayload opts a request out of payload signing. Only valid when
	// the remote store explicitly accepts unsigned payloads.
	UnsignedPayload = "UNSIGNED-PAYLOAD"
)

// buildCanonicalRequest serializes a request into the canonical form hashed
// by the SigV4 algorithm. Deterministic for identical inputs: the same
// method, path, query, headers, and payload hash always yield a byte
// identical canonical string.
//
// path is the raw (unescaped) URI path; query holds decoded parameters.
// Every name in signedNames must be present in headers.
func buildCanonicalRequest(method, path string, query url.Values, headers http.Header, signedNames []string, payloadHash string) (string, error) {
	names := make([]string, len(signedNames))
	for i, n := range signedNames {
		names[i] = strings.ToLower(strings.TrimSpace(n))
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	b.WriteString(EncodePath(path))
	b.WriteByte('\n')
	b.WriteString(encodeQuery(query))
	b.WriteByte('\n')

	for _, name := range names {
		values := headers.Values(name)
		if len(values) == 0 {
			return "", fmt.Errorf("%w: signed header %q not present", ErrMalformedRequest, name)
		}
		canonValues := make([]string, len(values))
		for i, v := range values {
			canonValues[i] = strings.Join(strings.Fields(v), " ")
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(canonValues, ","))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(strings.Join(names, ";"))
	b.WriteByte('\n')
	b.WriteString(payloadHash)

	return b.String(), nil
}

// PayloadHash returns the hex sha256 of body, the value signed into the
// request and carried in x-amz-content-sha256.
func PayloadHash(body []byte) string {
	return hashHex(body)
}

// EncodePath percent-encodes each path segment, leaving the separators and
// unreserved characters untouched. An empty path canonicalizes to "/".
// Adapters use the same rule to build object keys, so the path on the wire
// matches the path that was signed.
func EncodePath(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = awsEscape(seg)
	}
	return strings.Join(segments, "/")
}

// encodeQuery percent-encodes keys and values independently, then sorts the
// pairs by encoded key, ties broken by encoded value. Keys and values are
// compared separately: sorting the joined "k=v" strings would misorder keys
// that are prefixes of each other, since '=' outranks unreserved bytes.
func encodeQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	type pair struct {
		key   string
		value string
	}
	pairs := make([]pair, 0, len(query))
	for key, values := range query {
		encodedKey := awsEscape(key)
		for _, v := range values {
			pairs = append(pairs, pair{key: encodedKey, value: awsEscape(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	return b.String()
}

// awsEscape percent-encodes every byte outside the RFC 3986 unreserved set.
// Stricter than url.PathEscape, which leaves sub-delims alone; the remote
// verifier rejects anything looser.
func awsEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return ('A' <= c && c <= 'Z') ||
		('a' <= c && c <= 'z') ||
		('0' <= c && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
