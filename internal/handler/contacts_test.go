package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/model"
)

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestContactHandler_Import(t *testing.T) {
	t.Run("returns import counts", func(t *testing.T) {
		contacts := new(mockContactImporter)
		h := NewContactHandler(contacts)

		contacts.On("ImportFile", mock.Anything, "kontakti.csv", mock.Anything).Return(&model.ImportResult{
			Total:         3,
			Inserted:      2,
			Updated:       0,
			Errors:        1,
			ErrorMessages: []string{"row 3: no identifying field (email or mobprimarni)"},
		}, nil)

		req := multipartUpload(t, "file", "kontakti.csv", "ime,email\nAna,ana@example.rs\n")
		rec := httptest.NewRecorder()
		h.Import(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp model.ImportResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.Inserted)
		assert.Len(t, resp.ErrorMessages, 1)
		contacts.AssertExpectations(t)
	})

	t.Run("missing file part", func(t *testing.T) {
		contacts := new(mockContactImporter)
		h := NewContactHandler(contacts)

		req := multipartUpload(t, "attachment", "kontakti.csv", "ime\n")
		rec := httptest.NewRecorder()
		h.Import(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_REQUIRED")
	})

	t.Run("not multipart", func(t *testing.T) {
		h := NewContactHandler(new(mockContactImporter))

		req := httptest.NewRequest(http.MethodPost, "/api/contacts/import", bytes.NewBufferString("ime,email"))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()
		h.Import(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unparseable file maps to 400", func(t *testing.T) {
		contacts := new(mockContactImporter)
		h := NewContactHandler(contacts)

		contacts.On("ImportFile", mock.Anything, "kontakti.xlsx", mock.Anything).
			Return(nil, apperrors.ParseError("XLSX file", assert.AnError))

		req := multipartUpload(t, "file", "kontakti.xlsx", "garbage")
		rec := httptest.NewRecorder()
		h.Import(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "PARSE_ERROR")
	})
}
