package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/relgraph"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// chainGraph builds b0 - b1 - ... - b(n-1) and returns the node indexes.
func chainGraph(n int) (*relgraph.Graph, []int) {
	arena := relgraph.NewArena()
	graph := relgraph.NewGraph(arena)
	nodes := make([]int, n)
	for i := 0; i < n; i++ {
		nodes[i] = arena.Intern(models.EntityKindBusiness, fmt.Sprintf("b%02d", i))
	}
	for i := 1; i < n; i++ {
		graph.AddEdge(nodes[i-1], nodes[i], relgraph.ReasonSharedAddress)
	}
	return graph, nodes
}

func TestRunFindsConnectedComponent(t *testing.T) {
	graph, nodes := chainGraph(4)
	d := NewDiscoverer(5, testLogger())

	components := d.Run(context.Background(), graph, []int{nodes[0]})

	require.Len(t, components, 1)
	assert.Len(t, components[0].Members, 4)
}

func TestRunDepthBound(t *testing.T) {
	graph, nodes := chainGraph(8)
	d := NewDiscoverer(3, testLogger())

	components := d.Run(context.Background(), graph, []int{nodes[0]})

	// Seed plus three hops.
	require.Len(t, components, 1)
	assert.Len(t, components[0].Members, 4)
}

func TestRunMembershipIsPartition(t *testing.T) {
	graph, nodes := chainGraph(6)
	d := NewDiscoverer(2, testLogger())

	// Both ends seed; the middle nodes must land in exactly one network.
	components := d.Run(context.Background(), graph, []int{nodes[0], nodes[5]})

	seen := map[int]bool{}
	total := 0
	for _, c := range components {
		for _, m := range c.Members {
			assert.False(t, seen[m], "node assigned to two networks")
			seen[m] = true
			total++
		}
	}
	assert.Equal(t, 6, total)
}

func TestRunSkipsSingletons(t *testing.T) {
	arena := relgraph.NewArena()
	graph := relgraph.NewGraph(arena)
	isolated := arena.Intern(models.EntityKindBusiness, "b1")
	d := NewDiscoverer(5, testLogger())

	components := d.Run(context.Background(), graph, []int{isolated})

	assert.Empty(t, components)
}

func TestRunDeterministic(t *testing.T) {
	graph, nodes := chainGraph(6)
	d := NewDiscoverer(5, testLogger())

	// Seed order must not change the result.
	a := d.Run(context.Background(), graph, []int{nodes[3], nodes[0], nodes[5]})
	b := d.Run(context.Background(), graph, []int{nodes[5], nodes[3], nodes[0]})

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Members, b[i].Members)
	}
}
