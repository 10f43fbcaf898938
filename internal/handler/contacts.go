package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/audit"
	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/httputil"
	"github.com/leadflow/ingest-server/internal/model"
)

const importFormMemory = 4 << 20

type contactImporter interface {
	ImportFile(ctx context.Context, filename string, r io.Reader) (*model.ImportResult, error)
}

type ContactHandler struct {
	contacts contactImporter
}

func NewContactHandler(contacts contactImporter) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// POST /api/contacts/import
// Multipart upload with a single "file" part (.csv or .xlsx).
func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(importFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
				Error: "Import file too large",
				Code:  apperrors.ErrCodeValidation,
			})
			return
		}
		writeError(w, apperrors.ValidationError("Expected multipart/form-data with a file field"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.MissingRequired("file"))
		return
	}
	defer file.Close()

	result, err := h.contacts.ImportFile(r.Context(), header.Filename, file)
	if err != nil {
		log.Warn().Err(err).Str("filename", header.Filename).Msg("contact import rejected")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventContactImport,
		Details: map[string]interface{}{
			"filename": header.Filename,
			"total":    result.Total,
			"inserted": result.Inserted,
			"updated":  result.Updated,
			"errors":   result.Errors,
		},
	})

	writeJSON(w, http.StatusOK, result)
}
