// Package dedupe resolves raw principal rows into canonical principals.
// Clustering is conservative: merges happen on the permutation-invariant
// name key, except that short names carrying a common surname only merge
// on a shared email and otherwise stay per-business singletons.
package dedupe

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/normalizers"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// principalNamespace seeds UUIDv5 principal IDs. IDs are a pure function
// of the group key, so re-running dedupe yields the same principal ID for
// the same cluster and property links stay valid across runs.
var principalNamespace = uuid.MustParse("b3e1a6c2-6f0e-4d3a-9a4b-2f37f6e5a1d9")

// Result is the output of one dedupe pass.
type Result struct {
	Principals []models.CanonicalPrincipal
	Links      []models.PrincipalBusinessLink
	// RawToPrincipal maps each clustered raw row ID to its canonical
	// principal ID. Dropped rows are absent.
	RawToPrincipal map[string]string
	// Dropped counts rows with no usable name. Never an error.
	Dropped int
}

// Deduplicator clusters raw principals under a ruleset.
type Deduplicator struct {
	ruleset *rules.Ruleset
	logger  ectologger.Logger
	now     func() time.Time
}

// NewDeduplicator creates a deduplicator. now supplies canonical row
// timestamps; pass time.Now in production.
func NewDeduplicator(ruleset *rules.Ruleset, logger ectologger.Logger, now func() time.Time) *Deduplicator {
	return &Deduplicator{
		ruleset: ruleset,
		logger:  logger,
		now:     now,
	}
}

type cluster struct {
	groupKey       string
	normalizedName string
	displayName    string
	email          *string
	businessIDs    map[string]bool
	rawIDs         []string
}

// Run clusters the raw rows. Input order decides first-seen display names,
// so callers pass rows ordered by raw principal ID.
func (d *Deduplicator) Run(ctx context.Context, raws []models.RawPrincipal) *Result {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Deduplicator.Run")
	defer span.End()

	result := &Result{RawToPrincipal: map[string]string{}}
	clusters := map[string]*cluster{}

	for _, raw := range raws {
		normName := normalizers.NormalizePersonName(raw.RawName)
		if normName == "" || d.ruleset.IsStopName(normName) {
			result.Dropped++
			continue
		}

		key := d.groupKey(normName, raw)

		c, ok := clusters[key]
		if !ok {
			c = &cluster{
				groupKey:       key,
				normalizedName: normName,
				displayName:    strings.TrimSpace(raw.RawName),
				businessIDs:    map[string]bool{},
			}
			clusters[key] = c
		}
		c.businessIDs[raw.BusinessID] = true
		c.rawIDs = append(c.rawIDs, raw.ID)
		if c.email == nil && raw.Email != nil {
			email := normalizers.NormalizeEmail(*raw.Email)
			if email != "" {
				c.email = &email
			}
		}
	}

	keys := make([]string, 0, len(clusters))
	for key := range clusters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	createdAt := d.now().UTC()
	for _, key := range keys {
		c := clusters[key]
		principalID := uuid.NewSHA1(principalNamespace, []byte(key)).String()
		for _, rawID := range c.rawIDs {
			result.RawToPrincipal[rawID] = principalID
		}

		result.Principals = append(result.Principals, models.CanonicalPrincipal{
			PrincipalID:     principalID,
			NormalizedName:  c.normalizedName,
			NormalizedEmail: c.email,
			DisplayName:     c.displayName,
			BusinessCount:   len(c.businessIDs),
			GroupKey:        c.groupKey,
			CreatedAt:       createdAt,
		})

		businessIDs := make([]string, 0, len(c.businessIDs))
		for id := range c.businessIDs {
			businessIDs = append(businessIDs, id)
		}
		sort.Strings(businessIDs)
		for _, businessID := range businessIDs {
			result.Links = append(result.Links, models.PrincipalBusinessLink{
				PrincipalID: principalID,
				BusinessID:  businessID,
			})
		}
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"raw_rows":   len(raws),
		"principals": len(result.Principals),
		"dropped":    result.Dropped,
	}).Info("Deduplicated principals")

	return result
}

// groupKey picks the clustering key for one raw row. Guarded names need the
// same normalized email address to merge across businesses; a registrar or
// malformed email carries no identity signal, so those rows stay scoped to
// the registering business. Sharing only a domain is a relationship, not an
// identity, and is left to the graph builder's shared-email edges.
func (d *Deduplicator) groupKey(normName string, raw models.RawPrincipal) string {
	nameKey := normalizers.PersonNameKey(normName)

	if !d.ruleset.IsGuardedName(normName) {
		return nameKey
	}

	if raw.Email != nil {
		if _, ok := d.ruleset.ClassifyEmail(*raw.Email); ok {
			return nameKey + "|email:" + normalizers.NormalizeEmail(*raw.Email)
		}
	}
	return nameKey + "|biz:" + raw.BusinessID
}
