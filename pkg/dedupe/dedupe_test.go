package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
)

func strptr(s string) *string { return &s }

func newDeduplicator(t *testing.T) *Deduplicator {
	t.Helper()
	rs := rules.New(
		[]models.EmailRule{
			{Domain: "gmail.com", Class: models.EmailClassPublic},
			{Domain: "registeredagents.example", Class: models.EmailClassRegistrar},
			{Domain: "smith-holdings.example", Class: models.EmailClassCustom},
		},
		nil,
		nil,
	)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	now := func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return NewDeduplicator(rs, logger, now)
}

func TestRunMergesTokenOrderVariants(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "Jane A. Zaleski"},
		{ID: "r2", BusinessID: "b2", RawName: "ZALESKI, JANE A"},
		{ID: "r3", BusinessID: "b3", RawName: "Jane A Zaleski Jr."},
	})

	require.Len(t, result.Principals, 1)
	p := result.Principals[0]
	assert.Equal(t, "Jane A. Zaleski", p.DisplayName, "display name is first-seen raw form")
	assert.Equal(t, 3, p.BusinessCount)
	assert.Len(t, result.Links, 3)
	assert.Zero(t, result.Dropped)
}

func TestRunGuardedSurnameStaysPerBusiness(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "John Smith"},
		{ID: "r2", BusinessID: "b2", RawName: "John Smith"},
	})

	// Common surname, two tokens, no shared email: two distinct people.
	require.Len(t, result.Principals, 2)
	assert.NotEqual(t, result.Principals[0].PrincipalID, result.Principals[1].PrincipalID)
	for _, p := range result.Principals {
		assert.Equal(t, 1, p.BusinessCount)
	}
}

func TestRunGuardedSurnameMergesOnSharedEmail(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "John Smith", Email: strptr("jsmith@gmail.com")},
		{ID: "r2", BusinessID: "b2", RawName: "Smith, John", Email: strptr("JSmith@Gmail.com")},
	})

	require.Len(t, result.Principals, 1)
	p := result.Principals[0]
	assert.Equal(t, 2, p.BusinessCount)
	require.NotNil(t, p.NormalizedEmail)
	assert.Equal(t, "jsmith@gmail.com", *p.NormalizedEmail)
}

func TestRunGuardedSurnameCustomDomainNeedsSameMailbox(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "John Smith", Email: strptr("alice@smith-holdings.example")},
		{ID: "r2", BusinessID: "b2", RawName: "John Smith", Email: strptr("bob@smith-holdings.example")},
		{ID: "r3", BusinessID: "b3", RawName: "Smith, John", Email: strptr("Alice@Smith-Holdings.example")},
	})

	// A shared custom domain is a relationship signal, not an identity:
	// different mailboxes stay distinct people, the same mailbox merges.
	require.Len(t, result.Principals, 2)

	var merged *models.CanonicalPrincipal
	for i := range result.Principals {
		if result.Principals[i].BusinessCount == 2 {
			merged = &result.Principals[i]
		}
	}
	require.NotNil(t, merged)
	require.NotNil(t, merged.NormalizedEmail)
	assert.Equal(t, "alice@smith-holdings.example", *merged.NormalizedEmail)
}

func TestRunGuardedSurnameRegistrarEmailDoesNotMerge(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "John Smith", Email: strptr("filings@registeredagents.example")},
		{ID: "r2", BusinessID: "b2", RawName: "John Smith", Email: strptr("filings@registeredagents.example")},
	})

	// Registrar emails carry no identity signal; the guard holds.
	assert.Len(t, result.Principals, 2)
}

func TestRunThreeTokenNamesSkipTheGuard(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "John Quincy Smith"},
		{ID: "r2", BusinessID: "b2", RawName: "Smith, John Quincy"},
	})

	require.Len(t, result.Principals, 1)
	assert.Equal(t, 2, result.Principals[0].BusinessCount)
}

func TestRunDropsUnusableNames(t *testing.T) {
	d := newDeduplicator(t)

	result := d.Run(context.Background(), []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "UNKNOWN"},
		{ID: "r2", BusinessID: "b1", RawName: "Current Owner"},
		{ID: "r3", BusinessID: "b1", RawName: "   "},
		{ID: "r4", BusinessID: "b1", RawName: "Jane Zaleski"},
	})

	assert.Equal(t, 3, result.Dropped)
	assert.Len(t, result.Principals, 1)
}

func TestRunPrincipalIDsStableAcrossRuns(t *testing.T) {
	d := newDeduplicator(t)

	raws := []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "Jane Zaleski"},
	}

	first := d.Run(context.Background(), raws)
	second := d.Run(context.Background(), raws)

	require.Len(t, first.Principals, 1)
	require.Len(t, second.Principals, 1)
	// Property links written against the first run's principal survive a
	// re-run unchanged.
	assert.Equal(t, first.Principals[0].PrincipalID, second.Principals[0].PrincipalID)
}

func TestRunDeterministicOutputOrder(t *testing.T) {
	d := newDeduplicator(t)

	raws := []models.RawPrincipal{
		{ID: "r1", BusinessID: "b2", RawName: "Pat Rivera"},
		{ID: "r2", BusinessID: "b1", RawName: "Alex Chen"},
		{ID: "r3", BusinessID: "b3", RawName: "Alex Chen"},
	}

	first := d.Run(context.Background(), raws)
	second := d.Run(context.Background(), raws)

	require.Equal(t, len(first.Principals), len(second.Principals))
	for i := range first.Principals {
		assert.Equal(t, first.Principals[i].GroupKey, second.Principals[i].GroupKey)
		assert.Equal(t, first.Principals[i].BusinessCount, second.Principals[i].BusinessCount)
		assert.Equal(t, first.Principals[i].DisplayName, second.Principals[i].DisplayName)
	}
}
