package dag

// BreakCycles returns an acyclic copy of g. Edges closing a cycle during a
// depth-first walk (nodes and edges visited in insertion order) are reversed;
// self-loops are dropped. The second result lists the original edges that were
// reversed.
func BreakCycles(g *Graph) (*Graph, []Edge) {
	out := New()
	for _, id := range g.Nodes {
		out.AddNode(id)
	}

	adj := make(map[string][]int, len(g.Nodes))
	for i, e := range g.Edges {
		adj[e.From] = append(adj[e.From], i)
	}

	const (
		unvisited = iota
		onStack
		done
	)
	mark := make(map[string]int, len(g.Nodes))
	back := make([]bool, len(g.Edges))

	var visit func(id string)
	visit = func(id string) {
		mark[id] = onStack
		for _, i := range adj[id] {
			to := g.Edges[i].To
			switch mark[to] {
			case unvisited:
				visit(to)
			case onStack:
				back[i] = true
			}
		}
		mark[id] = done
	}
	for _, id := range g.Nodes {
		if mark[id] == unvisited {
			visit(id)
		}
	}

	var reversed []Edge
	for i, e := range g.Edges {
		if !g.Has(e.From) || !g.Has(e.To) || e.From == e.To {
			continue
		}
		if back[i] {
			reversed = append(reversed, e)
			out.Edges = append(out.Edges, Edge{From: e.To, To: e.From})
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	return out, reversed
}
