package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Authenticator gates requests on a single static bearer token supplied at
// startup. The token is held in memory only and never logged.
type Authenticator struct {
	token string
}

func NewAuthenticator(token string) (*Authenticator, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("auth token cannot be empty")
	}
	return &Authenticator{token: token}, nil
}

func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return next(c)
	}
}

func extractToken(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
