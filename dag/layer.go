package dag

import "fmt"

// Layered is a graph whose edges only join consecutive layers.
type Layered struct {
	// Layers lists node ids per rank, in drawing order.
	Layers [][]string
	// Rank maps every node, dummies included, to its layer.
	Rank map[string]int
	// Edges join a node in layer r to one in layer r+1.
	Edges []Edge
	// Dummy marks the nodes inserted to split long edges, mapped to the
	// edge they belong to.
	Dummy map[string]Edge
	// Reversed lists the edges turned around to break cycles.
	Reversed []Edge
}

// IsDummy reports whether id was inserted by Layer.
func (l *Layered) IsDummy(id string) bool {
	_, ok := l.Dummy[id]
	return ok
}

// Layer breaks cycles, ranks every node by longest path and splits edges
// spanning more than one rank with dummy nodes appended to the inner layers.
func Layer(g *Graph) (*Layered, error) {
	acyclic, reversed := BreakCycles(g)
	levels, err := BuildLevels(acyclic)
	if err != nil {
		return nil, err
	}

	l := &Layered{
		Layers:   levels,
		Rank:     make(map[string]int, len(g.Nodes)),
		Dummy:    make(map[string]Edge),
		Reversed: reversed,
	}
	for r, level := range levels {
		for _, id := range level {
			l.Rank[id] = r
		}
	}

	for i, e := range acyclic.Edges {
		from, to := l.Rank[e.From], l.Rank[e.To]
		if to-from <= 1 {
			l.Edges = append(l.Edges, e)
			continue
		}
		prev := e.From
		for r := from + 1; r < to; r++ {
			id := dummyID(acyclic, l, i, r)
			l.Dummy[id] = e
			l.Rank[id] = r
			l.Layers[r] = append(l.Layers[r], id)
			l.Edges = append(l.Edges, Edge{From: prev, To: id})
			prev = id
		}
		l.Edges = append(l.Edges, Edge{From: prev, To: e.To})
	}
	return l, nil
}

func dummyID(g *Graph, l *Layered, edge, rank int) string {
	id := fmt.Sprintf("_dummy_%d_%d", edge, rank)
	for g.Has(id) || l.IsDummy(id) {
		id += "_"
	}
	return id
}
