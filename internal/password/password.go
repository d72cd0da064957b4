// Package password wraps bcrypt hashing for stored credentials. The work
// factor is configurable; comparisons are constant-time inside bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// Hasher hashes and verifies passwords. The zero value is not usable; use New.
type Hasher struct {
	cost int
}

// New creates a Hasher with the given bcrypt cost. Costs outside bcrypt's
// supported range fall back to DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the plaintext. The plaintext is never
// logged or returned alongside errors.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the stored hash. Any error
// other than a mismatch (malformed hash, truncated record) is returned.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("bcrypt compare: %w", err)
}
