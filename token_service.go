package reviews

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims is the payload of a session token
type SessionClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid"`
}

// UserID returns the user id bound to the token
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// TokenServiceImpl implements TokenService with HS256 JWTs. Tokens carry no
// expiry: liveness is decided against the stored session token.
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, logger Logger) *TokenServiceImpl {
	return &TokenServiceImpl{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     ensureLogger(logger),
		now:        time.Now,
	}
}

// Issue produces a signed token for userID. Each call yields a distinct
// token, even within the same second.
func (ts *TokenServiceImpl) Issue(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required", errors.CategoryBadInput)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   ts.issuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(ts.now()),
		},
		UID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Verify checks the signature and decodes the user id. It does not check
// liveness.
func (ts *TokenServiceImpl) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, opts...)
	if err != nil {
		ts.logger.Debug("session token rejected", "error", err)
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" || (claims.UID != "" && claims.UID != claims.Subject) {
		return "", ErrInvalidToken
	}

	return claims.UserID(), nil
}
