// Package appkey implements credential extraction and validation for the
// gateway's admission flow. The credential is an opaque tenant token carried
// in the x-app-key request header; validation checks it against an immutable
// allow-list fixed at process start.
package appkey

import (
	"net/http"
	"strings"

	"github.com/matchid-dev/appgate/pkg/errors"
)

// HeaderName is the request header carrying the tenant credential.
// Matching is case-insensitive per standard header semantics.
const HeaderName = "x-app-key"

// FromRequest extracts the app key from an HTTP request.
// Returns a MissingCredentialError when the header is absent or empty.
func FromRequest(r *http.Request) (string, error) {
	return FromMetadata(r.Header)
}

// FromMetadata extracts the app key from raw header metadata. The map is
// treated case-insensitively; a multi-valued header deterministically
// yields its first value. Pure function of its input.
func FromMetadata(md map[string][]string) (string, error) {
	// http.Header canonicalizes keys, so try the canonical form first.
	if vals, ok := md[http.CanonicalHeaderKey(HeaderName)]; ok && len(vals) > 0 && vals[0] != "" {
		return vals[0], nil
	}

	// Non-HTTP callers may hand over arbitrary-cased keys.
	for name, vals := range md {
		if strings.EqualFold(name, HeaderName) && len(vals) > 0 && vals[0] != "" {
			return vals[0], nil
		}
	}

	return "", errors.NewMissingCredentialError(HeaderName)
}
