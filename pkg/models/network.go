package models

import "time"

// Network is one published ownership network: a connected component of
// businesses and principals linked by ownership, contact or address signals.
type Network struct {
	NetworkID      string    `json:"network_id" db:"network_id"`
	PrimaryName    string    `json:"primary_name" db:"primary_name"`
	BusinessCount  int       `json:"business_count" db:"business_count"`
	PrincipalCount int       `json:"principal_count" db:"principal_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NetworkMembership assigns one entity to one network. Membership is a
// partition: an entity appears under at most one network per snapshot.
type NetworkMembership struct {
	NetworkID      string     `json:"network_id" db:"network_id"`
	EntityKind     EntityKind `json:"entity_kind" db:"entity_kind"`
	EntityID       string     `json:"entity_id" db:"entity_id"`
	DisplayName    string     `json:"display_name" db:"display_name"`
	NormalizedName string     `json:"normalized_name" db:"normalized_name"`
}
