package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/audit"
	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/httputil"
	"github.com/leadflow/ingest-server/internal/util"
)

// OperatorAuthMiddleware guards operator routes with a bearer token checked
// against a bcrypt hash. With no hash configured every request passes.
type OperatorAuthMiddleware struct {
	tokenHash string
	// accepted caches fingerprints of tokens that already passed bcrypt.
	accepted sync.Map
}

func NewOperatorAuthMiddleware(tokenHash string) *OperatorAuthMiddleware {
	if tokenHash == "" {
		log.Warn().Msg("OPERATOR_TOKEN_HASH is not set, operator routes are unauthenticated")
	}
	return &OperatorAuthMiddleware{tokenHash: tokenHash}
}

func (m *OperatorAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.tokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		if !m.verify(token) {
			log.Warn().Str("path", r.URL.Path).Msg("operator auth: invalid token attempt")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			httputil.WriteError(w, apperrors.Unauthorized("Invalid token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *OperatorAuthMiddleware) verify(token string) bool {
	fingerprint := util.HmacSHA256(m.tokenHash, []byte(token))
	if _, ok := m.accepted.Load(fingerprint); ok {
		return true
	}
	if !util.CheckPasswordHash(token, m.tokenHash) {
		return false
	}
	m.accepted.Store(fingerprint, struct{}{})
	return true
}

// extractToken reads the bearer token, falling back to the token query
// parameter for EventSource clients that cannot set headers.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return r.URL.Query().Get("token")
}
