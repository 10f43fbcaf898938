package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/ingest-server/internal/model"
)

type ContactRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Contact, error)
	FindByPhone(ctx context.Context, phone string) (*model.Contact, error)
	// Create returns ErrDuplicate when the email or primary phone is already taken.
	Create(ctx context.Context, params model.CreateContactParams) (*model.Contact, error)
	UpdateFields(ctx context.Context, id int64, fields model.ContactFields) error
}

type contactRepo struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) FindByEmail(ctx context.Context, email string) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, `
		SELECT * FROM contacts WHERE lower(email) = lower($1)
	`, email)
	return HandleNotFound(&contact, err)
}

func (r *contactRepo) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, `
		SELECT * FROM contacts WHERE phone_primary = $1
	`, phone)
	return HandleNotFound(&contact, err)
}

func (r *contactRepo) Create(ctx context.Context, params model.CreateContactParams) (*model.Contact, error) {
	var contact model.Contact
	f := params.Fields
	err := r.db.GetContext(ctx, &contact, `
		INSERT INTO contacts
			(email, phone_primary, phone_secondary, name, surname, linkedin_url,
			 country, city, occupation, income_band, is_open)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *
	`, params.Email, params.PhonePrimary, f.PhoneSecondary, f.Name, f.Surname,
		f.LinkedInURL, f.Country, f.City, f.Occupation, f.IncomeBand, params.IsOpen)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &contact, nil
}

func (r *contactRepo) UpdateFields(ctx context.Context, id int64, fields model.ContactFields) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET
			phone_secondary = $2,
			name = $3,
			surname = $4,
			linkedin_url = $5,
			country = $6,
			city = $7,
			occupation = $8,
			income_band = $9,
			updated_at = NOW()
		WHERE id = $1
	`, id, fields.PhoneSecondary, fields.Name, fields.Surname, fields.LinkedInURL,
		fields.Country, fields.City, fields.Occupation, fields.IncomeBand)
	return err
}
