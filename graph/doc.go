// Package graph turns domain snapshots into renderable node and edge
// collections.
//
// Builders are pure: the same snapshot always yields the same graph, in the
// same order, and malformed input is skipped rather than reported. Nodes are
// created at the origin with no size; package layout assigns positions.
//
//	g := graph.BuildPipeline(p)
//	for _, n := range g.Nodes {
//		switch n := n.(type) {
//		case *graph.StageNode:
//			...
//		case *graph.ApprovalNode:
//			...
//		}
//	}
package graph
