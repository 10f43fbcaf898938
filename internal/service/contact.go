package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/config"
	"github.com/leadflow/ingest-server/internal/importer"
	"github.com/leadflow/ingest-server/internal/metrics"
	"github.com/leadflow/ingest-server/internal/model"
	"github.com/leadflow/ingest-server/internal/repository"
)

var errNoIdentity = errors.New("no identifying field (email or mobprimarni)")

type ContactService struct {
	contacts repository.ContactRepository
}

func NewContactService(contacts repository.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

// ImportFile parses an uploaded table and merges its rows into the contact base.
func (s *ContactService) ImportFile(ctx context.Context, filename string, r io.Reader) (*model.ImportResult, error) {
	rows, err := importer.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return s.ImportContacts(ctx, rows), nil
}

// ImportContacts merges rows one at a time. A failing row is counted and
// reported but never aborts the rest.
func (s *ContactService) ImportContacts(ctx context.Context, rows []model.ContactRow) *model.ImportResult {
	result := &model.ImportResult{
		Total:         len(rows),
		ErrorMessages: []string{},
	}

	for _, row := range rows {
		inserted, err := s.importRow(ctx, row)
		switch {
		case err != nil:
			result.Errors++
			if len(result.ErrorMessages) < config.ImportMaxErrorMessages {
				result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("row %d: %v", row.Line, err))
			}
			metrics.ContactsImported.WithLabelValues(metrics.OutcomeError).Inc()
		case inserted:
			result.Inserted++
			metrics.ContactsImported.WithLabelValues(metrics.OutcomeInserted).Inc()
		default:
			result.Updated++
			metrics.ContactsImported.WithLabelValues(metrics.OutcomeUpdated).Inc()
		}
	}

	log.Info().
		Int("total", result.Total).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Msg("contact import finished")

	return result
}

func (s *ContactService) importRow(ctx context.Context, row model.ContactRow) (inserted bool, err error) {
	email := strings.ToLower(strings.TrimSpace(row.Email))
	phone := strings.TrimSpace(row.PhonePrimary)
	if email == "" && phone == "" {
		return false, errNoIdentity
	}

	existing, err := s.findExisting(ctx, email, phone)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, s.update(ctx, existing.ID, row.Fields())
	}

	_, err = s.contacts.Create(ctx, model.CreateContactParams{
		Email:        optionalString(email),
		PhonePrimary: optionalString(phone),
		Fields:       row.Fields(),
	})
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return false, fmt.Errorf("insert contact: %w", err)
	}

	// A concurrent import created the contact between lookup and insert.
	existing, err = s.findExisting(ctx, email, phone)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, errors.New("contact conflicts with an existing record")
	}
	return false, s.update(ctx, existing.ID, row.Fields())
}

func (s *ContactService) findExisting(ctx context.Context, email, phone string) (*model.Contact, error) {
	if email != "" {
		contact, err := s.contacts.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("lookup by email: %w", err)
		}
		if contact != nil {
			return contact, nil
		}
	}
	if phone != "" {
		contact, err := s.contacts.FindByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("lookup by phone: %w", err)
		}
		return contact, nil
	}
	return nil, nil
}

func (s *ContactService) update(ctx context.Context, id int64, fields model.ContactFields) error {
	if err := s.contacts.UpdateFields(ctx, id, fields); err != nil {
		return fmt.Errorf("update contact %d: %w", id, err)
	}
	return nil
}
