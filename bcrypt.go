package reviews

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt cost used by HashPassword
var PasswordHashCost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

// PasswordFitsHash rejects passwords longer than MaxPasswordBytes. Length
// rules count runes, so multibyte input needs this byte check.
var PasswordFitsHash = validation.By(func(value any) error {
	s, _ := value.(string)
	if len(s) > MaxPasswordBytes {
		return errors.New("must be at most 72 bytes")
	}
	return nil
})

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	return generateHash(password, PasswordHashCost)
}

func generateHash(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// BcryptAuthenticator implements PasswordAuthenticator with a fixed cost
type BcryptAuthenticator struct {
	Cost int
}

func (b BcryptAuthenticator) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	cost := b.Cost
	if cost == 0 {
		cost = PasswordHashCost
	}
	return generateHash(password, cost)
}

func (b BcryptAuthenticator) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}
