// Package dag provides the layering graph used by package layout.
//
// A Graph is an ordered set of string ids and the directed edges between
// them. Insertion order is significant: it seeds every tie-break, so the same
// input always produces the same layering.
//
// Layering runs in three steps:
//   - BreakCycles reverses DFS back edges so the graph becomes acyclic
//   - BuildLevels groups nodes by longest path from the sources (Kahn)
//   - Layer splits edges spanning more than one level with dummy nodes
//
// Order then permutes each layer with barycenter sweeps, keeping the
// permutation with the fewest edge crossings.
package dag
