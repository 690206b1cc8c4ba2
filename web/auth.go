package web

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ecogroup/ecgsite/requests"
	"github.com/ecogroup/ecgsite/responses"
	"github.com/ecogroup/ecgsite/sec"
	"github.com/ecogroup/ecgsite/web/session"
)

const DefaultJWTTTL = 12 * time.Hour

// AdminConf is config/.admin.json
type AdminConf struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"` // bcrypt
	JWTSecret    string `json:"jwt_secret"`
	JWTTTLSec    int    `json:"jwt_ttl_sec"`
	Issuer       string `json:"issuer"`
}

func (c *AdminConf) ttl() time.Duration {
	if c.JWTTTLSec <= 0 {
		return DefaultJWTTTL
	}
	return time.Duration(c.JWTTTLSec) * time.Second
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Subject   string    `json:"subject"`
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := requests.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// the hash is checked even for an unknown user so both failures take as long
	passwordOK := sec.CheckPassword(a.Admin.PasswordHash, req.Password)
	if req.Username != a.Admin.Username || a.Admin.Username == "" || !passwordOK {
		log.Printf("[WARN][ADMIN] failed login for %q from %s", req.Username, requests.GetClientIP(r))
		writeError(w, r, errBadCredentials)
		return
	}

	now := a.now()
	token, err := sec.IssueAdminToken([]byte(a.Admin.JWTSecret), a.Admin.Issuer, req.Username, a.Admin.ttl(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err = a.Sessions.Create(r.Context(), w, req.Username); err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[INFO][ADMIN] %q logged in from %s", req.Username, requests.GetClientIP(r))
	responses.EncodeWriteJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: now.Add(a.Admin.ttl()),
		Subject:   req.Username,
	})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context(), w, r); err != nil {
		log.Printf("[WARN][ADMIN] logout: %v", err)
	}
	responses.WriteOK(w, "logged out")
}

// requireAdmin accepts a Bearer token or a session cookie
func (a *App) requireAdmin(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := sec.ExtractBearerToken(r.Header.Get("Authorization")); token != "" {
			claims, err := sec.ParseAdminToken([]byte(a.Admin.JWTSecret), a.Admin.Issuer, token, a.now())
			if err != nil {
				writeError(w, r, errUnauthenticated)
				return
			}
			info := &session.Info{Subject: claims.Subject, ValidUntil: claims.ExpiresAt.Time}
			if claims.IssuedAt != nil {
				info.CreatedAt = claims.IssuedAt.Time
			}
			inner.ServeHTTP(w, r.WithContext(session.WithInfo(r.Context(), info)))
			return
		}

		info, err := a.Sessions.Lookup(r.Context(), r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				log.Printf("[ERROR][ADMIN] session lookup: %v", err)
			}
			writeError(w, r, errUnauthenticated)
			return
		}
		inner.ServeHTTP(w, r.WithContext(session.WithInfo(r.Context(), info)))
	})
}
