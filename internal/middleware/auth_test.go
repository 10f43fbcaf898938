package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/ingest-server/internal/util"
)

func TestOperatorAuthMiddleware(t *testing.T) {
	const token = "operator-secret-token"
	hash, err := util.HashPassword(token)
	require.NoError(t, err)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes through when no hash is configured", func(t *testing.T) {
		handler := NewOperatorAuthMiddleware("").Handler(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		handler := NewOperatorAuthMiddleware(hash).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		handler := NewOperatorAuthMiddleware(hash).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
		req.Header.Set("Authorization", "Bearer not-the-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts bearer token and caches it", func(t *testing.T) {
		m := NewOperatorAuthMiddleware(hash)
		handler := m.Handler(okHandler)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		_, cached := m.accepted.Load(util.HmacSHA256(hash, []byte(token)))
		assert.True(t, cached)
	})

	t.Run("accepts token query parameter", func(t *testing.T) {
		handler := NewOperatorAuthMiddleware(hash).Handler(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/leads/stream?token="+token, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc"},
		{name: "header wins over query", header: "Bearer abc", query: "xyz", want: "abc"},
		{name: "query fallback", query: "xyz", want: "xyz"},
		{name: "non-bearer header ignored", header: "Basic abc", want: ""},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/leads"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractToken(req))
		})
	}
}
