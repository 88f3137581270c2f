// Package credentials holds the hashing and verification primitives for
// staff PINs. PINs are short numeric secrets, so the bcrypt cost is pinned
// above the library default to keep offline brute force impractical.
package credentials

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt cost factor used for every stored PIN hash.
const Cost = 12

var (
	ErrInvalidPIN    = errors.New("credentials: pin must be 4 to 6 digits")
	ErrMalformedHash = errors.New("credentials: malformed stored hash")
)

// ValidPIN reports whether pin is 4 to 6 ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// HashPIN hashes a PIN for storage. The raw PIN never leaves this function.
func HashPIN(pin string) ([]byte, error) {
	if !ValidPIN(pin) {
		return nil, ErrInvalidPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), Cost)
	if err != nil {
		return nil, fmt.Errorf("hashing pin: %w", err)
	}
	return hash, nil
}

// VerifyPIN compares a submitted PIN against a stored hash. A mismatch is
// (false, nil); only an unreadable stored record yields an error, and the
// caller must still treat it as a failed match, not a fatal condition.
func VerifyPIN(pin string, hash []byte) (bool, error) {
	if len(hash) == 0 {
		return false, ErrMalformedHash
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(pin))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}
