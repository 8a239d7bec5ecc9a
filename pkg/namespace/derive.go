// Package namespace derives the per-tenant storage namespace identifier
// from a validated app key. The derivation is a pure one-way function:
// downstream storage and provisioning address tenants by this exact string,
// so the algorithm is frozen bit-for-bit.
package namespace

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// derivePrefix is the fixed message prefix hashed together with the
	// normalized app key. Changing it would orphan every existing tenant
	// namespace.
	derivePrefix = "matchID_app_"

	// Prefix tags every derived namespace identifier.
	Prefix = "app_"

	// digestSuffixLen is how many trailing hex characters of the digest make
	// up the identifier body.
	digestSuffixLen = 40
)

// Namespace is a derived tenant storage namespace identifier, matching
// app_[0-9a-f]{40}. Consumers treat it as opaque; it is not reversible.
type Namespace string

// Derive maps an app key to its storage namespace identifier.
//
// Hyphens in the key are replaced with underscores, the result is appended
// to the fixed prefix, and the identifier is the last 40 characters of the
// lowercase hex SHA-256 digest of that message, tagged with "app_".
// Deterministic for any input, including non-ASCII; never fails.
func Derive(appKey string) Namespace {
	normalized := strings.ReplaceAll(appKey, "-", "_")
	digest := sha256.Sum256([]byte(derivePrefix + normalized))
	hexDigest := hex.EncodeToString(digest[:])
	return Namespace(Prefix + hexDigest[len(hexDigest)-digestSuffixLen:])
}

// String returns the identifier as a plain string.
func (n Namespace) String() string {
	return string(n)
}

// Valid reports whether n has the derived shape: the "app_" tag followed by
// exactly 40 lowercase hex characters.
func (n Namespace) Valid() bool {
	s := string(n)
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	body := s[len(Prefix):]
	if len(body) != digestSuffixLen {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
