package layout

import (
	"fmt"

	"github.com/kbukum/pipegraph/graph"
)

// SizeOracle reports the rendered size of a node. The second result is false
// when the node has not been measured.
type SizeOracle interface {
	Measure(nodeID string) (graph.Size, bool)
}

// SizeFunc adapts a function to SizeOracle.
type SizeFunc func(nodeID string) (graph.Size, bool)

// Measure calls f.
func (f SizeFunc) Measure(nodeID string) (graph.Size, bool) { return f(nodeID) }

// FixedSize reports the same size for every node.
type FixedSize graph.Size

// Measure returns s.
func (s FixedSize) Measure(string) (graph.Size, bool) { return graph.Size(s), true }

// MeasuredSizes holds measurements keyed by node id.
type MeasuredSizes map[string]graph.Size

// Measure looks up the node.
func (m MeasuredSizes) Measure(nodeID string) (graph.Size, bool) {
	s, ok := m[nodeID]
	return s, ok
}

// measure queries o, turning a panic into an error.
func measure(o SizeOracle, id string) (s graph.Size, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, ok, err = graph.Size{}, false, fmt.Errorf("size oracle panicked: %v", r)
		}
	}()
	s, ok = o.Measure(id)
	return s, ok, nil
}
