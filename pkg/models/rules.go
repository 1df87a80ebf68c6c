package models

// EmailClass partitions email domains by how much shared-contact signal
// they carry.
type EmailClass string

const (
	// EmailClassPublic marks webmail providers shared by unrelated parties.
	EmailClassPublic EmailClass = "public"
	// EmailClassRegistrar marks registered-agent/filing-service domains
	// that must never create edges.
	EmailClassRegistrar EmailClass = "registrar"
	// EmailClassCustom marks private domains where sharing the domain is
	// itself a relationship signal.
	EmailClassCustom EmailClass = "custom"
)

// EmailRule is an operator-maintained domain classification row.
type EmailRule struct {
	Domain string     `json:"domain" db:"domain"`
	Class  EmailClass `json:"class" db:"class"`
}

// IgnoredPrincipal is an operator-maintained normalized principal name
// (registrars, filing agents) excluded from edges and network naming.
type IgnoredPrincipal struct {
	NormalizedName string `json:"normalized_name" db:"normalized_name"`
}

// AgentAddress is an operator-maintained normalized address known to be a
// registered-agent hub; grouped businesses at these addresses get no edges.
type AgentAddress struct {
	NormalizedAddress string `json:"normalized_address" db:"normalized_address"`
}
