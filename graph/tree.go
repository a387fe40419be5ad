package graph

import (
	"github.com/kbukum/pipegraph/model"
	"github.com/kbukum/pipegraph/status"
)

// BuildComponentTree renders components and their children. Each child is
// joined to its parent by an edge keyed by the child's UID; children whose
// parent is not part of the tree are kept without an edge.
func BuildComponentTree(components []*model.ServiceComponent) *Graph {
	b := newBuilder()
	var children []*model.ComponentChild

	for _, c := range components {
		if c == nil {
			continue
		}
		b.addNode(&ComponentNode{
			Base:      Base{ID: c.UID, Meta: Meta{Severity: string(status.ComponentSeverity(c.State))}},
			Component: c,
		})
		for _, child := range c.Children {
			if child == nil {
				continue
			}
			if b.addNode(&ComponentChildNode{
				Base:  Base{ID: child.UID, Meta: Meta{Severity: string(status.ComponentSeverity(child.State))}},
				Child: child,
			}) {
				children = append(children, child)
			}
		}
	}

	for _, child := range children {
		if !b.has(child.ParentUID) || child.ParentUID == child.UID {
			continue
		}
		b.addEdge(Edge{ID: child.UID, Source: child.ParentUID, Target: child.UID, Type: EdgeSmooth})
	}
	return b.finish()
}
