// Package models defines the typed records passed between pipeline phases.
package models

import "time"

// EntityKind discriminates the two node types of the ownership graph.
type EntityKind string

const (
	EntityKindBusiness  EntityKind = "business"
	EntityKindPrincipal EntityKind = "principal"
)

// Business is an immutable reference record from the registration import.
// Businesses are linked, never deduplicated against each other.
type Business struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NameNormalized string    `json:"name_normalized" db:"name_normalized"`
	ContactEmail   *string   `json:"contact_email,omitempty" db:"contact_email"`
	MailingAddress *string   `json:"mailing_address,omitempty" db:"mailing_address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// RawPrincipal is one scraped officer/owner row. Many raw rows can describe
// the same real person with spelling or token-order variants.
type RawPrincipal struct {
	ID         string  `json:"id" db:"id"`
	BusinessID string  `json:"business_id" db:"business_id"`
	RawName    string  `json:"raw_name" db:"raw_name"`
	Email      *string `json:"email,omitempty" db:"email"`
	Address    *string `json:"address,omitempty" db:"address"`
}

// CanonicalPrincipal is the deduplicated identity a set of raw principal
// rows resolves to. GroupKey is the clustering key that produced it,
// retained so the clustering decision can be re-derived.
type CanonicalPrincipal struct {
	PrincipalID     string    `json:"principal_id" db:"principal_id"`
	NormalizedName  string    `json:"normalized_name" db:"normalized_name"`
	NormalizedEmail *string   `json:"normalized_email,omitempty" db:"normalized_email"`
	DisplayName     string    `json:"display_name" db:"display_name"`
	BusinessCount   int       `json:"business_count" db:"business_count"`
	GroupKey        string    `json:"group_key" db:"group_key"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// PrincipalBusinessLink records that a canonical principal appears on a
// business's registration. These are the ownership edges of the graph.
type PrincipalBusinessLink struct {
	PrincipalID string `json:"principal_id" db:"principal_id"`
	BusinessID  string `json:"business_id" db:"business_id"`
}
