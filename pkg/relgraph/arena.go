// Package relgraph builds the in-memory relationship graph the discoverer
// walks. Nodes are interned into dense integer indexes up front so the
// traversal works on ints and slices instead of string-keyed maps.
package relgraph

import "github.com/sk123/theyownwhat-sub000/pkg/models"

// NodeRef identifies a graph node by entity kind and ID.
type NodeRef struct {
	Kind models.EntityKind
	ID   string
}

// Arena interns (kind, id) pairs to dense int indexes.
type Arena struct {
	nodes []NodeRef
	index map[NodeRef]int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		index: map[NodeRef]int{},
	}
}

// Intern returns the index for the node, allocating one on first sight.
func (a *Arena) Intern(kind models.EntityKind, id string) int {
	ref := NodeRef{Kind: kind, ID: id}
	if i, ok := a.index[ref]; ok {
		return i
	}
	i := len(a.nodes)
	a.nodes = append(a.nodes, ref)
	a.index[ref] = i
	return i
}

// Lookup returns the index for the node without allocating.
func (a *Arena) Lookup(kind models.EntityKind, id string) (int, bool) {
	i, ok := a.index[NodeRef{Kind: kind, ID: id}]
	return i, ok
}

// Node returns the reference for an index.
func (a *Arena) Node(i int) NodeRef {
	return a.nodes[i]
}

// Len returns the number of interned nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}
