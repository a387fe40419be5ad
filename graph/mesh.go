package graph

import (
	"sort"
	"strings"

	"github.com/kbukum/pipegraph/model"
)

// MeshFilter narrows the traffic rendered by BuildNetworkMesh.
type MeshFilter struct {
	// Namespace keeps edges with either endpoint in the namespace.
	Namespace string
	// InternalOnly keeps edges whose endpoints are both namespaced.
	InternalOnly bool
	// Query is a case-insensitive search over workload names and services.
	Query string
}

// Match reports whether e passes the filter.
func (f MeshFilter) Match(e *model.MeshEdge) bool {
	if e == nil {
		return false
	}
	if f.Namespace != "" && e.From.Namespace != f.Namespace && e.To.Namespace != f.Namespace {
		return false
	}
	if f.InternalOnly && (e.From.Namespace == "" || e.To.Namespace == "") {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		for _, s := range []string{e.From.Name, e.From.Service, e.To.Name, e.To.Service} {
			if strings.Contains(strings.ToLower(s), q) {
				return true
			}
		}
		return false
	}
	return true
}

// BuildNetworkMesh renders observed traffic. Every mesh edge becomes a
// statistics node between its two workloads.
func BuildNetworkMesh(edges []*model.MeshEdge, filter MeshFilter) *Graph {
	b := newBuilder()
	workloads := make(map[string]model.MeshWorkload)

	for _, e := range edges {
		if !filter.Match(e) || e.From.ID == "" || e.To.ID == "" {
			continue
		}
		workloads[e.From.ID] = e.From
		workloads[e.To.ID] = e.To

		id := "statistics-from-" + e.From.ID + "-to-" + e.To.ID
		if !b.addNode(&StatisticsNode{Base: Base{ID: id}, Statistics: e.Statistics}) {
			continue
		}
		b.addEdge(Edge{ID: "into-" + id, Source: e.From.ID, Target: id, Type: EdgeBezierDirected})
		b.addEdge(Edge{ID: "out-of-" + id, Source: id, Target: e.To.ID, Type: EdgeBezierDirected})
	}

	ids := make([]string, 0, len(workloads))
	for id := range workloads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.addNode(&WorkloadNode{Base: Base{ID: id}, Workload: workloads[id]})
	}
	return b.finish()
}
