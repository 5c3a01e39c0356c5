// Package authutil hashes and checks account passwords.
package authutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLen is the shortest accepted password.
	MinPasswordLen = 8
	// MaxPasswordLen is bcrypt's input limit in bytes.
	MaxPasswordLen = 72
	// PasswordCost is the bcrypt cost for account passwords.
	PasswordCost = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// ValidatePassword enforces the length rules.
func ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLen {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword validates and bcrypt-hashes pw.
func HashPassword(pw string) (string, error) {
	if err := ValidatePassword(pw); err != nil {
		return "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether pw matches hash. An empty hash never matches.
func CheckPassword(hash, pw string) bool {
	if hash == "" || pw == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// UnusableHash returns a hash of random bytes nobody knows, for accounts
// created through Google sign-in.
func UnusableHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(b)[:MaxPasswordLen-8]), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// dummyHash is compared against when an account does not exist so that
// unknown emails take as long as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), PasswordCost)

// BurnCompare spends one bcrypt comparison.
func BurnCompare(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
