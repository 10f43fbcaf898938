package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAudienceHandler_Assign(t *testing.T) {
	t.Run("reports added rows", func(t *testing.T) {
		audience := new(mockAudienceAssigner)
		h := NewAudienceHandler(audience)
		audience.On("AssignRandomContacts", mock.Anything, int64(3), 5).Return(5, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/campaigns/3/audience", bytes.NewBufferString(`{"count":5}`))
		rec := httptest.NewRecorder()
		h.Assign(rec, withURLParam(req, "campaignID", "3"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"added":5,"error":null}`, rec.Body.String())
		audience.AssertExpectations(t)
	})

	t.Run("empty pool", func(t *testing.T) {
		audience := new(mockAudienceAssigner)
		h := NewAudienceHandler(audience)
		audience.On("AssignRandomContacts", mock.Anything, int64(3), 5).
			Return(0, apperrors.NoEligibleContacts())

		req := httptest.NewRequest(http.MethodPost, "/api/campaigns/3/audience", bytes.NewBufferString(`{"count":5}`))
		rec := httptest.NewRecorder()
		h.Assign(rec, withURLParam(req, "campaignID", "3"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"added":0,"error":"No eligible contacts left for this campaign"}`, rec.Body.String())
	})

	t.Run("bad campaign id", func(t *testing.T) {
		audience := new(mockAudienceAssigner)
		h := NewAudienceHandler(audience)

		req := httptest.NewRequest(http.MethodPost, "/api/campaigns/x/audience", bytes.NewBufferString(`{"count":5}`))
		rec := httptest.NewRecorder()
		h.Assign(rec, withURLParam(req, "campaignID", "x"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"added":0`)
		audience.AssertNotCalled(t, "AssignRandomContacts", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unexpected error hides details", func(t *testing.T) {
		audience := new(mockAudienceAssigner)
		h := NewAudienceHandler(audience)
		audience.On("AssignRandomContacts", mock.Anything, int64(3), 1).Return(0, assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/api/campaigns/3/audience", bytes.NewBufferString(`{"count":1}`))
		rec := httptest.NewRecorder()
		h.Assign(rec, withURLParam(req, "campaignID", "3"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"added":0,"error":"Internal server error"}`, rec.Body.String())
	})
}
