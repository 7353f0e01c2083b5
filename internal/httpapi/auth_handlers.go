package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tacc.org/internal/auth"
)

const maxTokenTTL = 24 * time.Hour

type tokenRequest struct {
	UserID     string   `json:"user_id"`
	Roles      []string `json:"roles"`
	TTLSeconds int      `json:"ttl_seconds"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// issueToken lets an admin mint tokens for other callers.
func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	if a.issuer == nil {
		writeError(w, r, http.StatusNotFound, "token issuance disabled")
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	for _, role := range req.Roles {
		switch strings.ToLower(strings.TrimSpace(role)) {
		case auth.RoleReader, auth.RoleWriter, auth.RoleAdmin:
		default:
			writeError(w, r, http.StatusBadRequest, "unknown role "+role)
			return
		}
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	if ttl > maxTokenTTL {
		writeError(w, r, http.StatusBadRequest, "ttl_seconds must be <= 86400")
		return
	}

	expires := time.Now().UTC().Add(ttl)
	token, err := a.issuer.GenerateToken(req.UserID, req.Roles, ttl)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	a.audit(r.Context(), "auth.token.issue", "user", req.UserID, map[string]string{
		"roles": strings.Join(req.Roles, ","),
	})
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, ExpiresAt: expires.Truncate(time.Second)})
}
