package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tacc.org/internal/auth"
)

const bearerPrefix = "bearer "

type permission func(*auth.Claims) bool

func canRead(c *auth.Claims) bool  { return c.CanRead() }
func canWrite(c *auth.Claims) bool { return c.CanWrite() }
func canAdmin(c *auth.Claims) bool { return c.IsAdmin() }

// authenticate verifies the bearer token when an issuer is configured.
func (a *API) authenticate(next http.Handler) http.Handler {
	if a.issuer == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}
		claims, err := a.issuer.ParseAndValidate(token)
		if err != nil {
			unauthorized(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
	})
}

// require checks the verified claims. Without an issuer everything passes,
// except token issuance which needs a secret to sign with.
func (a *API) require(allowed permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.issuer == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				unauthorized(w, r, "missing credentials")
				return
			}
			if !allowed(claims) {
				writeError(w, r, http.StatusForbidden, auth.ErrUnauthorized.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tacc"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), bearerPrefix) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
