package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kayvinh/messagely/internal/common"
)

// HashPassword generates a salted bcrypt hash of the password using the given
// work factor. Raising the cost for new hashes leaves existing hashes
// verifiable.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword validates the cleartext password against the stored hash.
// A mismatch yields common.ErrorUnauthorized; the comparison is constant time
// (provided by bcrypt itself).
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return common.ErrorUnauthorized
		}
		return err
	}
	return nil
}
