package dag

import "sort"

// DefaultSweeps is the number of barycenter passes run by Order.
const DefaultSweeps = 8

// Order permutes the layers of l in place to reduce edge crossings. Sweeps
// alternate downwards and upwards; each node moves to the mean position of its
// neighbors in the adjacent layer, ties keep their current order. The
// permutation with the fewest crossings seen is kept. It returns that count.
func Order(l *Layered, sweeps int) int {
	if len(l.Layers) < 2 {
		return 0
	}

	preds := make(map[string][]string)
	succs := make(map[string][]string)
	for _, e := range l.Edges {
		succs[e.From] = append(succs[e.From], e.To)
		preds[e.To] = append(preds[e.To], e.From)
	}

	best := CountCrossings(l)
	bestLayers := copyLayers(l.Layers)

	for s := 0; s < sweeps && best > 0; s++ {
		if s%2 == 0 {
			for r := 1; r < len(l.Layers); r++ {
				reorder(l.Layers[r], l.Layers[r-1], preds)
			}
		} else {
			for r := len(l.Layers) - 2; r >= 0; r-- {
				reorder(l.Layers[r], l.Layers[r+1], succs)
			}
		}
		if c := CountCrossings(l); c < best {
			best = c
			bestLayers = copyLayers(l.Layers)
		}
	}

	l.Layers = bestLayers
	return best
}

// reorder sorts layer by the barycenter of each node's neighbors in fixed.
// Nodes without neighbors keep their current index as barycenter.
func reorder(layer, fixed []string, neighbors map[string][]string) {
	pos := positions(fixed)
	bary := make(map[string]float64, len(layer))
	for i, id := range layer {
		sum, n := 0.0, 0
		for _, nb := range neighbors[id] {
			if p, ok := pos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		if n == 0 {
			bary[id] = float64(i)
			continue
		}
		bary[id] = sum / float64(n)
	}
	sort.SliceStable(layer, func(i, j int) bool {
		return bary[layer[i]] < bary[layer[j]]
	})
}

// CountCrossings returns the number of edge crossings between all pairs of
// consecutive layers.
func CountCrossings(l *Layered) int {
	byUpper := make(map[int][]Edge)
	for _, e := range l.Edges {
		byUpper[l.Rank[e.From]] = append(byUpper[l.Rank[e.From]], e)
	}
	total := 0
	for r := 0; r+1 < len(l.Layers); r++ {
		total += CountLayerCrossings(l.Layers[r], l.Layers[r+1], byUpper[r])
	}
	return total
}

// CountLayerCrossings counts crossings of edges from upper to lower as the
// inversions of their lower endpoints once sorted by upper endpoint, using a
// Fenwick tree.
func CountLayerCrossings(upper, lower []string, edges []Edge) int {
	up, down := positions(upper), positions(lower)
	type pair struct{ u, d int }
	pairs := make([]pair, 0, len(edges))
	for _, e := range edges {
		u, ok1 := up[e.From]
		d, ok2 := down[e.To]
		if ok1 && ok2 {
			pairs = append(pairs, pair{u, d})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].u != pairs[j].u {
			return pairs[i].u < pairs[j].u
		}
		return pairs[i].d < pairs[j].d
	})

	tree := make([]int, len(lower)+1)
	crossings, seen := 0, 0
	for _, p := range pairs {
		// edges already inserted ending strictly right of p.d cross it
		atOrLeft := 0
		for i := p.d + 1; i > 0; i -= i & -i {
			atOrLeft += tree[i]
		}
		crossings += seen - atOrLeft
		for i := p.d + 1; i < len(tree); i += i & -i {
			tree[i]++
		}
		seen++
	}
	return crossings
}

func positions(layer []string) map[string]int {
	pos := make(map[string]int, len(layer))
	for i, id := range layer {
		pos[id] = i
	}
	return pos
}

func copyLayers(layers [][]string) [][]string {
	out := make([][]string, len(layers))
	for i, l := range layers {
		out[i] = append([]string(nil), l...)
	}
	return out
}
