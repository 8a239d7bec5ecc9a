package appkey

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/matchid-dev/appgate/pkg/errors"
)

// Registry is the authorized credential set: an immutable collection of
// valid app keys, built once at startup and injected into the gateway.
// Safe for unsynchronized concurrent reads; there is no mutation path.
//
// Keys are stored as SHA-256 digests and membership scans every entry with
// a constant-time comparison, so lookup behavior is independent of key
// length, shape, and near-miss position. The set is tens of entries, so a
// linear scan is cheap. Plaintext keys are not retained.
type Registry struct {
	digests [][sha256.Size]byte
}

// NewRegistry builds a registry from the configured key list.
func NewRegistry(keys []string) *Registry {
	r := &Registry{
		digests: make([][sha256.Size]byte, 0, len(keys)),
	}
	for _, key := range keys {
		r.digests = append(r.digests, sha256.Sum256([]byte(key)))
	}
	return r
}

// Contains reports whether the candidate key belongs to the authorized set.
// Exact, case-sensitive membership; no side effects.
func (r *Registry) Contains(key string) bool {
	digest := sha256.Sum256([]byte(key))
	match := 0
	for i := range r.digests {
		match |= subtle.ConstantTimeCompare(digest[:], r.digests[i][:])
	}
	return match == 1
}

// Validate returns nil for an authorized key and an InvalidCredentialError
// otherwise.
func (r *Registry) Validate(key string) error {
	if !r.Contains(key) {
		return errors.NewInvalidCredentialError()
	}
	return nil
}

// Size returns the number of authorized keys.
func (r *Registry) Size() int {
	return len(r.digests)
}
