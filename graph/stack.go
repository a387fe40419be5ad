package graph

import "github.com/kbukum/pipegraph/model"

// BuildStackState renders stack resources with an edge from every linked
// resource to the resource that depends on it. Links to unknown identifiers
// are ignored.
func BuildStackState(state *model.StackState) *Graph {
	b := newBuilder()
	if state == nil {
		return b.finish()
	}

	for _, r := range state.Resources {
		if r == nil {
			continue
		}
		b.addNode(&ResourceNode{Base: Base{ID: r.Identifier}, Resource: r})
	}

	for _, r := range state.Resources {
		if r == nil || r.Identifier == "" {
			continue
		}
		for _, link := range r.Links {
			if link == r.Identifier || !b.has(link) {
				continue
			}
			b.addEdge(Edge{ID: link + "->" + r.Identifier, Source: link, Target: r.Identifier, Type: EdgeSmooth})
		}
	}
	return b.finish()
}
