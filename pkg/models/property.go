package models

// Property is a parcel record. The link columns are derived: the linker
// clears and recomputes them, nothing else writes them. At most one of
// BusinessID/PrincipalID is set; business resolution wins.
type Property struct {
	ID           string  `json:"id" db:"id"`
	Owner        string  `json:"owner" db:"owner"`
	CoOwner      *string `json:"co_owner,omitempty" db:"co_owner"`
	OwnerAddress *string `json:"owner_address,omitempty" db:"owner_address"`
	BusinessID   *string `json:"business_id,omitempty" db:"business_id"`
	PrincipalID  *string `json:"principal_id,omitempty" db:"principal_id"`
}

// IsLinked reports whether the property resolved to any entity.
func (p *Property) IsLinked() bool {
	return p.BusinessID != nil || p.PrincipalID != nil
}
