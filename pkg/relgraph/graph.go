package relgraph

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/normalizers"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// EdgeReason records why two nodes are connected. Diagnostics only; the
// traversal treats all edges alike.
type EdgeReason string

const (
	ReasonOwnership     EdgeReason = "ownership"
	ReasonSharedEmail   EdgeReason = "shared_email"
	ReasonSharedAddress EdgeReason = "shared_address"
)

type edgeKey struct {
	lo, hi int
}

// Graph is an undirected graph over arena indexes.
type Graph struct {
	arena *Arena
	adj   map[int][]int
	edges map[edgeKey]EdgeReason
}

// NewGraph creates an empty graph over an arena.
func NewGraph(arena *Arena) *Graph {
	return &Graph{
		arena: arena,
		adj:   map[int][]int{},
		edges: map[edgeKey]EdgeReason{},
	}
}

// Arena returns the node arena.
func (g *Graph) Arena() *Arena {
	return g.arena
}

// AddEdge connects two nodes. Self-loops and duplicate edges are dropped;
// the first reason recorded for a pair wins.
func (g *Graph) AddEdge(u, v int, reason EdgeReason) bool {
	if u == v {
		return false
	}
	key := edgeKey{lo: min(u, v), hi: max(u, v)}
	if _, ok := g.edges[key]; ok {
		return false
	}
	g.edges[key] = reason
	g.adj[u] = append(g.adj[u], v)
	g.adj[v] = append(g.adj[v], u)
	return true
}

// Neighbors returns the adjacency of a node, sorted for deterministic
// traversal order.
func (g *Graph) Neighbors(u int) []int {
	neighbors := g.adj[u]
	sort.Ints(neighbors)
	return neighbors
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Builder assembles the relationship graph from pipeline state.
type Builder struct {
	ruleset         *rules.Ruleset
	emailGroupMax   int
	addressGroupMax int
	logger          ectologger.Logger
}

// NewBuilder creates a graph builder. The group maxima bound how large a
// shared-email or shared-address cohort may grow before it is discarded as
// a service artifact rather than a relationship.
func NewBuilder(ruleset *rules.Ruleset, emailGroupMax, addressGroupMax int, logger ectologger.Logger) *Builder {
	return &Builder{
		ruleset:         ruleset,
		emailGroupMax:   emailGroupMax,
		addressGroupMax: addressGroupMax,
		logger:          logger,
	}
}

// BuildResult carries the graph plus the counts the run summary reports.
type BuildResult struct {
	Graph *Graph
	// DroppedEmailGroups and DroppedAddressGroups count cohorts discarded
	// for exceeding their size bound. Surfaced as run warnings.
	DroppedEmailGroups   int
	DroppedAddressGroups int
}

// Build interns every business and canonical principal and adds ownership,
// shared-email and shared-address edges.
func (b *Builder) Build(
	ctx context.Context,
	businesses []models.Business,
	principals []models.CanonicalPrincipal,
	links []models.PrincipalBusinessLink,
) *BuildResult {
	ctx, span := tracing.StartSpan(ctx, "relgraph.Builder.Build")
	defer span.End()

	arena := NewArena()
	graph := NewGraph(arena)
	result := &BuildResult{Graph: graph}

	for _, biz := range businesses {
		arena.Intern(models.EntityKindBusiness, biz.ID)
	}
	principalByID := make(map[string]models.CanonicalPrincipal, len(principals))
	for _, p := range principals {
		arena.Intern(models.EntityKindPrincipal, p.PrincipalID)
		principalByID[p.PrincipalID] = p
	}

	b.addOwnershipEdges(graph, principalByID, links)
	result.DroppedEmailGroups = b.addSharedEmailEdges(graph, businesses)
	result.DroppedAddressGroups = b.addSharedAddressEdges(graph, businesses)

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"nodes":                  arena.Len(),
		"edges":                  graph.EdgeCount(),
		"dropped_email_groups":   result.DroppedEmailGroups,
		"dropped_address_groups": result.DroppedAddressGroups,
	}).Info("Built relationship graph")

	return result
}

// addOwnershipEdges connects each canonical principal to the businesses it
// registered, skipping ignore-listed principals so registrars never stitch
// unrelated filings together.
func (b *Builder) addOwnershipEdges(graph *Graph, principalByID map[string]models.CanonicalPrincipal, links []models.PrincipalBusinessLink) {
	for _, link := range links {
		principal, ok := principalByID[link.PrincipalID]
		if !ok {
			continue
		}
		if b.ruleset.IsIgnoredPrincipal(principal.NormalizedName) {
			continue
		}
		pi, ok := graph.arena.Lookup(models.EntityKindPrincipal, link.PrincipalID)
		if !ok {
			continue
		}
		bi, ok := graph.arena.Lookup(models.EntityKindBusiness, link.BusinessID)
		if !ok {
			continue
		}
		graph.AddEdge(pi, bi, ReasonOwnership)
	}
}

func (b *Builder) addSharedEmailEdges(graph *Graph, businesses []models.Business) int {
	groups := map[string][]int{}
	for _, biz := range businesses {
		if biz.ContactEmail == nil {
			continue
		}
		key, ok := b.ruleset.ClassifyEmail(*biz.ContactEmail)
		if !ok {
			continue
		}
		if i, found := graph.arena.Lookup(models.EntityKindBusiness, biz.ID); found {
			groups[key] = append(groups[key], i)
		}
	}

	return connectGroups(graph, groups, b.emailGroupMax, ReasonSharedEmail)
}

func (b *Builder) addSharedAddressEdges(graph *Graph, businesses []models.Business) int {
	groups := map[string][]int{}
	for _, biz := range businesses {
		if biz.MailingAddress == nil {
			continue
		}
		addr := normalizers.NormalizeAddress(*biz.MailingAddress)
		if addr == "" || b.ruleset.IsAgentAddress(addr) {
			continue
		}
		if i, found := graph.arena.Lookup(models.EntityKindBusiness, biz.ID); found {
			groups[addr] = append(groups[addr], i)
		}
	}

	return connectGroups(graph, groups, b.addressGroupMax, ReasonSharedAddress)
}

// connectGroups adds clique edges for each group of size 2..max. Oversized
// groups are dropped whole: past the bound the shared value identifies a
// mass service, not a relationship.
func connectGroups(graph *Graph, groups map[string][]int, maxSize int, reason EdgeReason) (dropped int) {
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		if len(members) > maxSize {
			dropped++
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				graph.AddEdge(members[i], members[j], reason)
			}
		}
	}
	return dropped
}
