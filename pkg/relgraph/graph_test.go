package relgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
)

func strptr(s string) *string { return &s }

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestArenaInternIsStable(t *testing.T) {
	arena := NewArena()

	i := arena.Intern(models.EntityKindBusiness, "b1")
	j := arena.Intern(models.EntityKindPrincipal, "b1")
	k := arena.Intern(models.EntityKindBusiness, "b1")

	assert.Equal(t, i, k)
	assert.NotEqual(t, i, j, "kind is part of node identity")
	assert.Equal(t, 2, arena.Len())
	assert.Equal(t, NodeRef{Kind: models.EntityKindBusiness, ID: "b1"}, arena.Node(i))
}

func TestAddEdgeDeduplicates(t *testing.T) {
	arena := NewArena()
	g := NewGraph(arena)
	u := arena.Intern(models.EntityKindBusiness, "b1")
	v := arena.Intern(models.EntityKindBusiness, "b2")

	assert.True(t, g.AddEdge(u, v, ReasonSharedEmail))
	assert.False(t, g.AddEdge(v, u, ReasonSharedAddress), "reverse direction is the same edge")
	assert.False(t, g.AddEdge(u, u, ReasonOwnership), "self loops dropped")
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []int{v}, g.Neighbors(u))
}

func TestBuildOwnershipEdges(t *testing.T) {
	rs := rules.New(nil, []models.IgnoredPrincipal{{NormalizedName: "ACME REGISTERED AGENTS"}}, nil)
	b := NewBuilder(rs, 50, 250, testLogger())

	businesses := []models.Business{{ID: "b1", Name: "One LLC"}, {ID: "b2", Name: "Two LLC"}}
	principals := []models.CanonicalPrincipal{
		{PrincipalID: "p1", NormalizedName: "JANE ZALESKI"},
		{PrincipalID: "p2", NormalizedName: "ACME REGISTERED AGENTS"},
	}
	links := []models.PrincipalBusinessLink{
		{PrincipalID: "p1", BusinessID: "b1"},
		{PrincipalID: "p2", BusinessID: "b1"},
		{PrincipalID: "p2", BusinessID: "b2"},
	}

	result := b.Build(context.Background(), businesses, principals, links)

	// Only the non-ignored principal contributes an edge; the registrar
	// would otherwise connect b1 and b2.
	assert.Equal(t, 1, result.Graph.EdgeCount())
	pi, ok := result.Graph.Arena().Lookup(models.EntityKindPrincipal, "p1")
	require.True(t, ok)
	bi, ok := result.Graph.Arena().Lookup(models.EntityKindBusiness, "b1")
	require.True(t, ok)
	assert.Equal(t, []int{bi}, result.Graph.Neighbors(pi))
}

func TestBuildSharedEmailEdges(t *testing.T) {
	rs := rules.New([]models.EmailRule{
		{Domain: "acme-holdings.example", Class: models.EmailClassCustom},
		{Domain: "registeredagents.example", Class: models.EmailClassRegistrar},
	}, nil, nil)
	b := NewBuilder(rs, 50, 250, testLogger())

	businesses := []models.Business{
		{ID: "b1", Name: "One LLC", ContactEmail: strptr("a@acme-holdings.example")},
		{ID: "b2", Name: "Two LLC", ContactEmail: strptr("b@acme-holdings.example")},
		{ID: "b3", Name: "Three LLC", ContactEmail: strptr("x@registeredagents.example")},
		{ID: "b4", Name: "Four LLC", ContactEmail: strptr("y@registeredagents.example")},
	}

	result := b.Build(context.Background(), businesses, nil, nil)

	// The custom-domain pair connects; the registrar pair never does.
	assert.Equal(t, 1, result.Graph.EdgeCount())
}

func TestBuildOversizeEmailGroupDropped(t *testing.T) {
	rs := rules.New([]models.EmailRule{
		{Domain: "bulk.example", Class: models.EmailClassCustom},
	}, nil, nil)
	b := NewBuilder(rs, 3, 250, testLogger())

	var businesses []models.Business
	for i := 0; i < 4; i++ {
		businesses = append(businesses, models.Business{
			ID:           fmt.Sprintf("b%d", i),
			Name:         fmt.Sprintf("Biz %d", i),
			ContactEmail: strptr(fmt.Sprintf("x%d@bulk.example", i)),
		})
	}

	result := b.Build(context.Background(), businesses, nil, nil)

	assert.Equal(t, 0, result.Graph.EdgeCount())
	assert.Equal(t, 1, result.DroppedEmailGroups)
}

func TestBuildSharedAddressEdgesWithDenyList(t *testing.T) {
	rs := rules.New(nil, nil, []models.AgentAddress{
		{NormalizedAddress: "100 AGENT WAY STE 200"},
	})
	b := NewBuilder(rs, 50, 250, testLogger())

	businesses := []models.Business{
		{ID: "b1", Name: "One LLC", MailingAddress: strptr("42 Elm Street")},
		{ID: "b2", Name: "Two LLC", MailingAddress: strptr("42 Elm St")},
		{ID: "b3", Name: "Three LLC", MailingAddress: strptr("100 Agent Way, Suite 200")},
		{ID: "b4", Name: "Four LLC", MailingAddress: strptr("100 Agent Way Ste 200")},
	}

	result := b.Build(context.Background(), businesses, nil, nil)

	// Elm Street pair connects; the agent hub never does.
	assert.Equal(t, 1, result.Graph.EdgeCount())
}

func TestBuildOversizeAddressGroupDropped(t *testing.T) {
	rs := rules.New(nil, nil, nil)
	b := NewBuilder(rs, 50, 100, testLogger())

	var businesses []models.Business
	for i := 0; i < 120; i++ {
		businesses = append(businesses, models.Business{
			ID:             fmt.Sprintf("b%03d", i),
			Name:           fmt.Sprintf("Tenant %d", i),
			MailingAddress: strptr("500 Shared Tower Suite 1"),
		})
	}

	result := b.Build(context.Background(), businesses, nil, nil)

	assert.Equal(t, 0, result.Graph.EdgeCount())
	assert.Equal(t, 1, result.DroppedAddressGroups)
}
