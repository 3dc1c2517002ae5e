package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/yigit/feedsphere/internal/pkg/auth"
	"github.com/yigit/feedsphere/internal/pkg/logger"
)

// Context keys set by the middleware in this package
const (
	ContextKeyEmail     = "email"
	ContextKeyRequestID = "requestID"
)

// TokenCookie is the cookie browsers carry the access token in; HTML form posts
// and websocket upgrades cannot set an Authorization header. It is honoured on
// state-changing requests only when the browser marks them same-origin.
const TokenCookie = "access_token"

// AuthMiddleware for authentication
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// OptionalAuth resolves the caller's identity when a valid token is present and
// otherwise lets the request through anonymously. Handlers decide how to reject.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := m.tokenFromRequest(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Ignoring invalid access token")
			c.Next()
			return
		}

		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// tokenFromRequest looks at the Authorization header, then the token cookie
func (m *AuthMiddleware) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		token, err := auth.ExtractBearerToken(header)
		if err != nil {
			return ""
		}
		return token
	}

	cookie, err := c.Cookie(TokenCookie)
	if err != nil {
		return ""
	}

	if !isSafeMethod(c.Request.Method) && !isSameOrigin(c.Request) {
		logger.Debug().Str("path", c.Request.URL.Path).Msg("Ignoring token cookie on cross-site request")
		return ""
	}

	return cookie
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// isSameOrigin trusts Sec-Fetch-Site when the browser sends it and falls back to
// comparing Origin with Host. A request carrying neither is treated as cross-site.
func isSameOrigin(r *http.Request) bool {
	if site := r.Header.Get("Sec-Fetch-Site"); site != "" {
		return site == "same-origin"
	}

	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return parsed.Host == r.Host
}

// Identity returns the authenticated identity, or "" for anonymous requests
func Identity(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}
