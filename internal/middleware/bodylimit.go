package middleware

import (
	"net/http"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/httputil"
)

const (
	DefaultMaxBodySize = 1 << 20 // 1MB

	PayloadTooLargeMessage = "Payload too large"
)

type BodyLimitMiddleware struct {
	maxSize int64
	reject  func(w http.ResponseWriter)
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize, reject: rejectTooLarge}
}

// NewWebhookBodyLimitMiddleware answers oversized deliveries with 200 so the
// gateway does not retry them.
func NewWebhookBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	m := NewBodyLimitMiddleware(maxSize)
	m.reject = rejectWebhookTooLarge
	return m
}

func rejectTooLarge(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
		Error: "Request body too large",
		Code:  apperrors.ErrCodeValidation,
	})
}

func rejectWebhookTooLarge(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": PayloadTooLargeMessage,
	})
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength > m.maxSize {
			m.reject(w)
			return
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		}
		next.ServeHTTP(w, r)
	})
}
