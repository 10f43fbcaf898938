package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/audit"
	"github.com/leadflow/ingest-server/internal/util"
)

const GatewaySignatureHeader = "X-Gateway-Signature"

// GatewaySignatureMiddleware verifies the HMAC-SHA256 hex signature of the
// webhook body. Rejections are answered with 200 so the gateway does not retry.
type GatewaySignatureMiddleware struct {
	secret string
}

func NewGatewaySignatureMiddleware(secret string) *GatewaySignatureMiddleware {
	if secret == "" {
		log.Warn().Msg("gateway signature verification disabled: GATEWAY_WEBHOOK_SECRET is not configured")
	}
	return &GatewaySignatureMiddleware{secret: secret}
}

func (m *GatewaySignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" || r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get(GatewaySignatureHeader)
		if signature == "" {
			log.Warn().Msg("gateway signature middleware: missing signature header")
			m.reject(w, r, "Missing signature")
			return
		}

		body, err := io.ReadAll(r.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Int64("limit", tooLarge.Limit).Msg("gateway signature middleware: body too large")
			rejectWebhookTooLarge(w)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("gateway signature middleware: failed to read body")
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "error",
				"message": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		computed := util.HmacSHA256(m.secret, body)
		if !util.ConstantTimeEqual(computed, signature) {
			log.Warn().Msg("gateway signature middleware: invalid signature")
			m.reject(w, r, "Invalid signature")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *GatewaySignatureMiddleware) reject(w http.ResponseWriter, r *http.Request, message string) {
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventSignatureFailure,
		Details: map[string]interface{}{"reason": message},
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "error",
		"message": message,
	})
}
