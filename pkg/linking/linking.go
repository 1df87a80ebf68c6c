// Package linking resolves property owner strings to business or principal
// records. Matching is exact on normalized forms; there is no fuzzy pass.
package linking

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/normalizers"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// Index holds the normalized lookup tables one link pass resolves against.
// Collisions keep the lexicographically smallest entity ID so repeated runs
// resolve identically.
type Index struct {
	businessByName     map[string]string
	principalByNameKey map[string]string
	businessByAddress  map[string]string
	principalByAddress map[string]string
}

// BuildIndex constructs the lookup tables. rawToPrincipal carries raw
// principal addresses over to their canonical principals. Addresses on the
// agent deny list are excluded: a registered-agent hub address identifies
// the agent, not the owner.
func BuildIndex(
	businesses []models.Business,
	raws []models.RawPrincipal,
	rawToPrincipal map[string]string,
	principals []models.CanonicalPrincipal,
	ruleset *rules.Ruleset,
) *Index {
	idx := &Index{
		businessByName:     map[string]string{},
		principalByNameKey: map[string]string{},
		businessByAddress:  map[string]string{},
		principalByAddress: map[string]string{},
	}

	for _, b := range businesses {
		name := b.NameNormalized
		if name == "" {
			name = normalizers.NormalizeBusinessName(b.Name)
		}
		if name != "" {
			keepSmallest(idx.businessByName, name, b.ID)
		}
		if b.MailingAddress != nil {
			addr := normalizers.NormalizeAddress(*b.MailingAddress)
			if addr != "" && !ruleset.IsAgentAddress(addr) {
				keepSmallest(idx.businessByAddress, addr, b.ID)
			}
		}
	}

	for _, p := range principals {
		key := normalizers.PersonNameKey(p.NormalizedName)
		if key != "" {
			keepSmallest(idx.principalByNameKey, key, p.PrincipalID)
		}
	}

	for _, raw := range raws {
		principalID, ok := rawToPrincipal[raw.ID]
		if !ok || raw.Address == nil {
			continue
		}
		addr := normalizers.NormalizeAddress(*raw.Address)
		if addr != "" && !ruleset.IsAgentAddress(addr) {
			keepSmallest(idx.principalByAddress, addr, principalID)
		}
	}

	return idx
}

func keepSmallest(m map[string]string, key, id string) {
	if existing, ok := m[key]; !ok || id < existing {
		m[key] = id
	}
}

// Outcome is the resolution of one property. At most one of BusinessID and
// PrincipalID is set.
type Outcome struct {
	PropertyID  string
	BusinessID  *string
	PrincipalID *string
}

// Linked reports whether the property resolved to any entity.
func (o Outcome) Linked() bool {
	return o.BusinessID != nil || o.PrincipalID != nil
}

// Linker resolves properties against an Index.
type Linker struct {
	index  *Index
	logger ectologger.Logger
}

// NewLinker creates a linker over a built index.
func NewLinker(index *Index, logger ectologger.Logger) *Linker {
	return &Linker{
		index:  index,
		logger: logger,
	}
}

// Run resolves each property. Per-property misses are not errors; the
// returned outcomes include unresolved properties with both links nil.
func (l *Linker) Run(ctx context.Context, properties []models.Property) []Outcome {
	ctx, span := tracing.StartSpan(ctx, "linking.Linker.Run")
	defer span.End()

	outcomes := make([]Outcome, 0, len(properties))
	linked := 0
	for _, p := range properties {
		outcome := l.resolve(p)
		if outcome.Linked() {
			linked++
		}
		outcomes = append(outcomes, outcome)
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{
		"properties": len(properties),
		"linked":     linked,
		"unlinked":   len(properties) - linked,
	}).Info("Linked properties")

	return outcomes
}

// resolve applies the pass order: business name, principal name, then
// address fallback. First hit wins, and a business hit beats a principal
// hit at every stage.
func (l *Linker) resolve(p models.Property) Outcome {
	outcome := Outcome{PropertyID: p.ID}

	names := []string{p.Owner}
	if p.CoOwner != nil {
		names = append(names, *p.CoOwner)
	}

	for _, name := range names {
		if id, ok := l.index.businessByName[normalizers.NormalizeBusinessName(name)]; ok {
			outcome.BusinessID = &id
			return outcome
		}
	}

	for _, name := range names {
		key := normalizers.PersonNameKey(normalizers.NormalizePersonName(name))
		if id, ok := l.index.principalByNameKey[key]; ok {
			outcome.PrincipalID = &id
			return outcome
		}
	}

	if p.OwnerAddress != nil {
		addr := normalizers.NormalizeAddress(*p.OwnerAddress)
		if id, ok := l.index.businessByAddress[addr]; ok {
			outcome.BusinessID = &id
			return outcome
		}
		if id, ok := l.index.principalByAddress[addr]; ok {
			outcome.PrincipalID = &id
			return outcome
		}
	}

	return outcome
}
