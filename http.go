package reviews

import (
	"context"
	"net/http"

	"github.com/goliatone/go-reviews/middleware/authware"
	"github.com/goliatone/go-router"
)

// DefaultCookieName is the name of the session cookie
const DefaultCookieName = "auth"

// CookieConfig controls how the session cookie is written and read
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite string
	// TokenLookup lists extra token sources, e.g. "header:Authorization"
	TokenLookup string
}

func (c CookieConfig) normalize() CookieConfig {
	if c.Name == "" {
		c.Name = DefaultCookieName
	}
	if c.SameSite == "" {
		c.SameSite = "Lax"
	}
	return c
}

// RouteAuthenticator wires the session lifecycle into the router: the soft
// session middleware, route guards and the session cookie.
type RouteAuthenticator struct {
	sessions  SessionManager
	cookie    CookieConfig
	Logger    Logger
	LoginPath string
}

func NewHTTPAuthenticator(sessions SessionManager, cfg CookieConfig) *RouteAuthenticator {
	return &RouteAuthenticator{
		sessions:  sessions,
		cookie:    cfg.normalize(),
		Logger:    defLogger{},
		LoginPath: "/login",
	}
}

func (a *RouteAuthenticator) WithLogger(l Logger) *RouteAuthenticator {
	a.Logger = ensureLogger(l)
	return a
}

// CookieName returns the session cookie name
func (a *RouteAuthenticator) CookieName() string {
	return a.cookie.Name
}

// Middleware resolves the session cookie on every request and attaches the
// resulting SessionState. It never halts the chain.
func (a *RouteAuthenticator) Middleware() router.MiddlewareFunc {
	lookup := "cookie:" + a.cookie.Name
	if a.cookie.TokenLookup != "" {
		lookup += "," + a.cookie.TokenLookup
	}

	return authware.New(authware.Config[SessionState]{
		TokenLookup: lookup,
		ContextKey:  SessionLocalsKey,
		Resolve: func(ctx context.Context, token string) SessionState {
			return a.sessions.Resolve(ctx, token)
		},
		ContextEnricher: WithSession,
		Listeners: []authware.ResolutionListener[SessionState]{
			func(ctx router.Context, state SessionState) {
				if anon, ok := state.(Anonymous); ok && anon.Reason != reasonNoToken {
					a.Logger.Debug("request resolved anonymous", "reason", anon.Reason, "error", anon.Cause, "path", ctx.Path())
				}
			},
		},
	})
}

// RequireUser redirects anonymous requests to the login page
func (a *RouteAuthenticator) RequireUser() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if CurrentSession(ctx).IsAuthenticated() {
				return ctx.Next()
			}

			statusCode := http.StatusSeeOther
			if ctx.Method() == http.MethodGet {
				statusCode = http.StatusFound
			}
			return ctx.Redirect(a.LoginPath, statusCode)
		}
	}
}

// RequireUserAPI rejects anonymous API requests with 401
func (a *RouteAuthenticator) RequireUserAPI() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if CurrentSession(ctx).IsAuthenticated() {
				return ctx.Next()
			}
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"message":   ErrNotAuthenticated.Message,
				"text_code": ErrNotAuthenticated.TextCode,
			})
		}
	}
}

// RedirectAuthenticated sends users with a live session to path
func (a *RouteAuthenticator) RedirectAuthenticated(path string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if CurrentSession(ctx).IsAuthenticated() {
				return ctx.Redirect(path, http.StatusFound)
			}
			return ctx.Next()
		}
	}
}

// SetSessionCookie writes the token as a browser session cookie
func (a *RouteAuthenticator) SetSessionCookie(ctx router.Context, token string) {
	ctx.Cookie(&router.Cookie{
		Name:     a.cookie.Name,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: a.cookie.SameSite,
	})
}
