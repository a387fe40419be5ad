package layout

import (
	"math"
	"sort"

	"github.com/kbukum/pipegraph/dag"
	"github.com/kbukum/pipegraph/graph"
)

// place assigns node centers in a rank-major frame: X runs along the ranks,
// Y across them. Dummy nodes have no size.
func (e *Engine) place(l *dag.Layered, sizes map[string]graph.Size) map[string]graph.Point {
	horizontal := e.opts.Direction.Horizontal()
	rankExt := func(id string) float64 {
		s := sizes[id]
		if horizontal {
			return s.Width
		}
		return s.Height
	}
	crossExt := func(id string) float64 {
		s := sizes[id]
		if horizontal {
			return s.Height
		}
		return s.Width
	}
	sep := func(a, b string) float64 {
		if l.IsDummy(a) || l.IsDummy(b) {
			return e.opts.EdgeSep
		}
		return e.opts.NodeSep
	}
	gap := func(a, b string) float64 {
		return (crossExt(a)+crossExt(b))/2 + sep(a, b)
	}

	centers := make(map[string]graph.Point)

	rankPos := make([]float64, len(l.Layers))
	prevExt := 0.0
	for r, layer := range l.Layers {
		ext := 0.0
		for _, id := range layer {
			ext = math.Max(ext, rankExt(id))
		}
		if r == 0 {
			rankPos[r] = ext / 2
		} else {
			rankPos[r] = rankPos[r-1] + prevExt/2 + e.opts.RankSep + ext/2
		}
		prevExt = ext
	}

	cross := make(map[string]float64)
	widths := make([]float64, len(l.Layers))
	widest := 0.0
	for r, layer := range l.Layers {
		c := 0.0
		for i, id := range layer {
			if i > 0 {
				c += sep(layer[i-1], id)
			}
			c += crossExt(id) / 2
			cross[id] = c
			c += crossExt(id) / 2
		}
		widths[r] = c
		widest = math.Max(widest, c)
	}
	for r, layer := range l.Layers {
		off := (widest - widths[r]) / 2
		for _, id := range layer {
			cross[id] += off
		}
	}

	preds := make(map[string][]string)
	for _, edge := range l.Edges {
		preds[edge.To] = append(preds[edge.To], edge.From)
	}
	for r := 1; r < len(l.Layers); r++ {
		layer := l.Layers[r]
		for i, id := range layer {
			ps := preds[id]
			if len(ps) == 0 {
				continue
			}
			vals := make([]float64, len(ps))
			for k, p := range ps {
				vals[k] = cross[p]
			}
			want := median(vals)

			lo, hi := math.Inf(-1), math.Inf(1)
			if i > 0 {
				lo = cross[layer[i-1]] + gap(layer[i-1], id)
			}
			if i+1 < len(layer) {
				hi = cross[layer[i+1]] - gap(id, layer[i+1])
			}
			cross[id] = math.Min(math.Max(want, lo), hi)
		}
	}

	for r, layer := range l.Layers {
		for _, id := range layer {
			centers[id] = graph.Point{X: rankPos[r], Y: cross[id]}
		}
	}
	return centers
}

// median returns the lower median of vals.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	return vals[(len(vals)-1)/2]
}
