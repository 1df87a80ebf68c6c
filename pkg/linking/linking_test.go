package linking

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
)

func strptr(s string) *string { return &s }

func newTestLinker(t *testing.T) *Linker {
	t.Helper()

	ruleset := rules.New(nil, nil, []models.AgentAddress{
		{NormalizedAddress: "100 AGENT WAY STE 200"},
	})

	businesses := []models.Business{
		{ID: "b1", Name: "Lakeside Holdings, LLC", NameNormalized: "LAKESIDE HOLDINGS LLC", MailingAddress: strptr("42 Elm Street")},
		{ID: "b2", Name: "Agent Shell LLC", NameNormalized: "AGENT SHELL LLC", MailingAddress: strptr("100 Agent Way, Suite 200")},
	}
	principals := []models.CanonicalPrincipal{
		{PrincipalID: "p1", NormalizedName: "JANE A ZALESKI"},
	}
	raws := []models.RawPrincipal{
		{ID: "r1", BusinessID: "b1", RawName: "Jane A. Zaleski", Address: strptr("7 Oak Ave")},
	}
	rawToPrincipal := map[string]string{"r1": "p1"}

	index := BuildIndex(businesses, raws, rawToPrincipal, principals, ruleset)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewLinker(index, logger)
}

func TestRunMatchesBusinessName(t *testing.T) {
	l := newTestLinker(t)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "Lakeside Holdings,  LLC"},
	})

	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].BusinessID)
	assert.Equal(t, "b1", *outcomes[0].BusinessID)
	assert.Nil(t, outcomes[0].PrincipalID)
}

func TestRunMatchesPrincipalNamePermutation(t *testing.T) {
	l := newTestLinker(t)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "ZALESKI, JANE A"},
	})

	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].PrincipalID)
	assert.Equal(t, "p1", *outcomes[0].PrincipalID)
	assert.Nil(t, outcomes[0].BusinessID)
}

func TestRunBusinessBeatsPrincipal(t *testing.T) {
	ruleset := rules.New(nil, nil, nil)
	businesses := []models.Business{
		{ID: "b1", Name: "Jane Zaleski", NameNormalized: "JANE ZALESKI"},
	}
	principals := []models.CanonicalPrincipal{
		{PrincipalID: "p1", NormalizedName: "JANE ZALESKI"},
	}
	index := BuildIndex(businesses, nil, nil, principals, ruleset)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	l := NewLinker(index, logger)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "Jane Zaleski"},
	})

	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].BusinessID)
	assert.Equal(t, "b1", *outcomes[0].BusinessID)
	assert.Nil(t, outcomes[0].PrincipalID)
}

func TestRunCoOwnerConsidered(t *testing.T) {
	l := newTestLinker(t)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "Somebody Unmatched", CoOwner: strptr("Jane A Zaleski")},
	})

	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].PrincipalID)
	assert.Equal(t, "p1", *outcomes[0].PrincipalID)
}

func TestRunAddressFallback(t *testing.T) {
	l := newTestLinker(t)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "Nobody Known", OwnerAddress: strptr("42 Elm St.")},
		{ID: "prop2", Owner: "Nobody Known", OwnerAddress: strptr("7 Oak Avenue")},
	})

	require.Len(t, outcomes, 2)
	require.NotNil(t, outcomes[0].BusinessID)
	assert.Equal(t, "b1", *outcomes[0].BusinessID)
	require.NotNil(t, outcomes[1].PrincipalID)
	assert.Equal(t, "p1", *outcomes[1].PrincipalID)
}

func TestRunAgentAddressNeverLinks(t *testing.T) {
	l := newTestLinker(t)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "Nobody Known", OwnerAddress: strptr("100 Agent Way, Suite 200")},
	})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Linked())
}

func TestRunUnresolvedLeavesBothNil(t *testing.T) {
	l := newTestLinker(t)

	outcomes := l.Run(context.Background(), []models.Property{
		{ID: "prop1", Owner: "Totally Unknown Owner"},
	})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Linked())
	assert.Nil(t, outcomes[0].BusinessID)
	assert.Nil(t, outcomes[0].PrincipalID)
}
