// Package authware provides a soft authentication middleware for go-router.
//
// The middleware extracts a raw token from the request, hands it to a
// resolver and stores whatever the resolver returns in the request locals.
// It never rejects a request: deciding whether a user is required is left
// to the handlers further down the chain.
package authware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "cookie:auth"
	// ErrTokenMissing is reported by extractors that find no token
	ErrTokenMissing = errors.New("missing or malformed session token")
)

// ResolutionListener is invoked after the state has been attached
type ResolutionListener[S any] func(ctx router.Context, state S)

type Config[S any] struct {
	// Filter skips the middleware when it returns true
	Filter func(router.Context) bool
	// TokenLookup is a comma separated list of "<source>:<name>" pairs,
	// e.g. "cookie:auth,header:Authorization"
	TokenLookup string
	// AuthScheme is the prefix expected in header tokens
	AuthScheme string
	// ContextKey is the locals key the resolved state is stored under
	ContextKey string
	// Resolve maps a raw token to a state. It receives an empty string when
	// no token was found and must not fail.
	Resolve func(ctx context.Context, token string) S
	// ContextEnricher propagates the state to the request context
	ContextEnricher func(ctx context.Context, state S) context.Context
	// Listeners run after the state is attached
	Listeners []ResolutionListener[S]
}

// New returns the middleware
func New[S any](config ...Config[S]) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, _ := ExtractRawToken(ctx, extractors)

			state := cfg.Resolve(ctx.Context(), raw)

			ctx.Locals(cfg.ContextKey, state)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), state))
			}

			for _, listener := range cfg.Listeners {
				if listener != nil {
					listener(ctx, state)
				}
			}

			return ctx.Next()
		}
	}
}

func GetDefaultConfig[S any](config ...Config[S]) (cfg Config[S]) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolve == nil {
		panic("AUTHWARE: middleware configuration: Resolve is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// ExtractRawToken returns the first token any extractor finds
func ExtractRawToken(c router.Context, extractors []Extractor) (string, error) {
	err := ErrTokenMissing
	for _, extractor := range extractors {
		raw, xerr := extractor(c)
		if raw != "" && xerr == nil {
			return raw, nil
		}
		if xerr != nil {
			err = xerr
		}
	}
	return "", err
}

type Extractor func(c router.Context) (string, error)

// GetExtractors parses a lookup string such as
// "cookie:auth,header:Authorization,query:token"
func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	extractors := make([]Extractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if name == "" {
			continue
		}

		switch source {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	return extractors
}

// fromHeader extracts a "<scheme> <token>" value from a request header
func fromHeader(header string, authScheme string) Extractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissing
	}
}

func fromQuery(param string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}
