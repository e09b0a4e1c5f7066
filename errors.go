package reviews

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken      = "session_invalid_token"
	TextCodeStaleSession      = "session_stale"
	TextCodeWrongEmail        = "auth_wrong_email"
	TextCodeWrongPassword     = "auth_wrong_password"
	TextCodeAuthFailed        = "auth_failed"
	TextCodeNotAuthenticated  = "auth_required"
	TextCodeEmptyPassword     = "password_empty"
	TextCodePasswordTooLong   = "password_too_long"
	TextCodeMismatchedHash    = "password_mismatch"
	TextCodeUserNotFound      = "user_not_found"
	TextCodeArticleNotFound   = "article_not_found"
	TextCodeEmailTaken        = "email_taken"
	TextCodeInvalidIdentifier = "invalid_identifier"
)

// ErrInvalidToken is returned when a token fails signature or payload checks
var ErrInvalidToken = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrStaleSession is returned when a token verifies but is no longer the
// user's stored session token
var ErrStaleSession = errors.New("session is no longer active", errors.CategoryAuth).
	WithTextCode(TextCodeStaleSession).
	WithCode(errors.CodeUnauthorized)

// ErrWrongEmail is the login failure for unknown emails
var ErrWrongEmail = errors.New("Auth failed. Wrong email!", errors.CategoryAuth).
	WithTextCode(TextCodeWrongEmail).
	WithCode(errors.CodeBadRequest)

// ErrWrongPassword is the login failure for a bad password
var ErrWrongPassword = errors.New("Auth failed. Wrong password!", errors.CategoryAuth).
	WithTextCode(TextCodeWrongPassword).
	WithCode(errors.CodeBadRequest)

// ErrAuthFailed replaces ErrWrongEmail and ErrWrongPassword when uniform
// login errors are enabled
var ErrAuthFailed = errors.New("Auth failed.", errors.CategoryAuth).
	WithTextCode(TextCodeAuthFailed).
	WithCode(errors.CodeBadRequest)

// ErrNotAuthenticated is returned by API routes that need a live session
var ErrNotAuthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes", errors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeMismatchedHash).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when a user record does not exist
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrArticleNotFound is returned when an article record does not exist
var ErrArticleNotFound = errors.New("article not found", errors.CategoryNotFound).
	WithTextCode(TextCodeArticleNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailTaken is returned when registering an email that already exists
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrInvalidIdentifier is returned for ids that are not valid UUIDs
var ErrInvalidIdentifier = errors.New("invalid identifier", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidIdentifier).
	WithCode(errors.CodeBadRequest)

// IsUniqueViolation matches unique constraint errors from sqlite and postgres
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
