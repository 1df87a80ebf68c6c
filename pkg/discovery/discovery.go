// Package discovery finds ownership networks: connected components of the
// relationship graph reachable from property-linked seeds, and names them.
package discovery

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/sk123/theyownwhat-sub000/pkg/relgraph"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// Component is one discovered network as arena indexes, sorted by
// (kind, id) for deterministic downstream processing.
type Component struct {
	Members []int
}

// Discoverer walks the relationship graph from seeds.
type Discoverer struct {
	maxDepth int
	logger   ectologger.Logger
}

// NewDiscoverer creates a discoverer. maxDepth bounds how many hops from a
// seed a member may sit; past that, the connection is considered too
// indirect to assert.
func NewDiscoverer(maxDepth int, logger ectologger.Logger) *Discoverer {
	return &Discoverer{
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Run performs a BFS from each seed in order. A global consumed set makes
// membership a partition: a node joins the first network that reaches it
// and no other. Components of size 1 are not networks and are skipped.
// Seeds are processed in sorted order so output is deterministic.
func (d *Discoverer) Run(ctx context.Context, graph *relgraph.Graph, seeds []int) []Component {
	ctx, span := tracing.StartSpan(ctx, "discovery.Discoverer.Run")
	defer span.End()

	sortedSeeds := make([]int, len(seeds))
	copy(sortedSeeds, seeds)
	sort.Slice(sortedSeeds, func(i, j int) bool {
		return nodeLess(graph.Arena(), sortedSeeds[i], sortedSeeds[j])
	})

	consumed := make([]bool, graph.Arena().Len())
	var components []Component

	for _, seed := range sortedSeeds {
		if consumed[seed] {
			continue
		}
		members := d.walk(graph, seed, consumed)
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return nodeLess(graph.Arena(), members[i], members[j])
		})
		components = append(components, Component{Members: members})
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"seeds":    len(seeds),
		"networks": len(components),
	}).Info("Discovered networks")

	return components
}

// walk runs one depth-bounded BFS, consuming every visited node.
func (d *Discoverer) walk(graph *relgraph.Graph, seed int, consumed []bool) []int {
	type item struct {
		node  int
		depth int
	}

	consumed[seed] = true
	queue := []item{{node: seed}}
	members := []int{seed}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth == d.maxDepth {
			continue
		}
		for _, next := range graph.Neighbors(current.node) {
			if consumed[next] {
				continue
			}
			consumed[next] = true
			members = append(members, next)
			queue = append(queue, item{node: next, depth: current.depth + 1})
		}
	}

	return members
}

func nodeLess(arena *relgraph.Arena, i, j int) bool {
	a, b := arena.Node(i), arena.Node(j)
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
