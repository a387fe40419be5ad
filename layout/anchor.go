package layout

import "github.com/kbukum/pipegraph/graph"

// ToTopLeft converts a center position to the top-left corner of a node.
func ToTopLeft(center graph.Point, s graph.Size) graph.Point {
	return graph.Point{X: center.X - s.Width/2, Y: center.Y - s.Height/2}
}

// ToCenter converts a top-left corner to the center of a node.
func ToCenter(topLeft graph.Point, s graph.Size) graph.Point {
	return graph.Point{X: topLeft.X + s.Width/2, Y: topLeft.Y + s.Height/2}
}
