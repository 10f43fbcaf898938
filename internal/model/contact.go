package model

import "time"

type Contact struct {
	ID             int64     `db:"id" json:"id"`
	Email          *string   `db:"email" json:"email"`
	PhonePrimary   *string   `db:"phone_primary" json:"phone_primary"`
	PhoneSecondary string    `db:"phone_secondary" json:"phone_secondary"`
	Name           string    `db:"name" json:"name"`
	Surname        string    `db:"surname" json:"surname"`
	LinkedInURL    string    `db:"linkedin_url" json:"linkedin_url"`
	Country        string    `db:"country" json:"country"`
	City           string    `db:"city" json:"city"`
	Occupation     string    `db:"occupation" json:"occupation"`
	IncomeBand     string    `db:"income_band" json:"income_band"`
	IsOpen         bool      `db:"is_open" json:"is_open"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ContactRow is one parsed line of an imported contact table, before identity checks.
type ContactRow struct {
	Line           int
	Email          string
	PhonePrimary   string
	PhoneSecondary string
	Name           string
	Surname        string
	LinkedInURL    string
	Country        string
	City           string
	Occupation     string
	IncomeBand     string
}

// ContactFields are the mutable attributes overwritten when an import row matches an existing contact.
type ContactFields struct {
	PhoneSecondary string
	Name           string
	Surname        string
	LinkedInURL    string
	Country        string
	City           string
	Occupation     string
	IncomeBand     string
}

func (r ContactRow) Fields() ContactFields {
	return ContactFields{
		PhoneSecondary: r.PhoneSecondary,
		Name:           r.Name,
		Surname:        r.Surname,
		LinkedInURL:    r.LinkedInURL,
		Country:        r.Country,
		City:           r.City,
		Occupation:     r.Occupation,
		IncomeBand:     r.IncomeBand,
	}
}

type CreateContactParams struct {
	Email        *string
	PhonePrimary *string
	Fields       ContactFields
	IsOpen       bool
}

type ImportResult struct {
	Total         int      `json:"total"`
	Inserted      int      `json:"inserted"`
	Updated       int      `json:"updated"`
	Errors        int      `json:"errors"`
	ErrorMessages []string `json:"errorMessages"`
}

type CampaignAudience struct {
	ID         int64     `db:"id" json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	ContactID  int64     `db:"contact_id" json:"contact_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
