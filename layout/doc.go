// Package layout computes deterministic layered positions for a graph.
//
// The engine follows the Sugiyama scheme on top of package dag: cycles are
// broken, nodes ranked by longest path, long edges split with dummy nodes,
// ranks ordered to reduce crossings, then coordinates assigned in a
// rank-major frame and mapped onto the requested direction.
//
// Layout is two-phase. Layout places every node at the default size so the
// renderer can draw something immediately; Relayout repeats the pass with the
// sizes the renderer measured:
//
//	eng, err := layout.NewEngine(layout.DefaultOptions())
//	first, _ := eng.Layout(ctx, g)
//	// render first.Graph, measure it
//	refined, _ := eng.Relayout(ctx, g, layout.MeasuredSizes(sizes))
//
// Positions in a Result are top-left corners. The input graph is never
// modified.
package layout
