package graph

import (
	"github.com/kbukum/pipegraph/model"
	"github.com/kbukum/pipegraph/status"
)

// bucket is the node kind a gate renders into. Buckets are emitted in
// declaration order.
type bucket int

const (
	bucketApproval bucket = iota
	bucketJob
	bucketTests
	bucketCount
)

func bucketOf(t model.GateType) (bucket, bool) {
	switch t {
	case model.GateApproval:
		return bucketApproval, true
	case model.GateJob:
		return bucketJob, true
	case model.GateWindow, "":
		return bucketTests, true
	}
	return 0, false
}

// BuildPipeline turns a pipeline snapshot into stage and gate nodes joined by
// pipeline edges. Malformed entries are skipped; it never fails.
func BuildPipeline(p *model.Pipeline) *Graph {
	b := newBuilder()
	if p == nil {
		return b.finish()
	}

	for _, stage := range p.Stages {
		if stage == nil || stage.ID == "" {
			continue
		}
		st := status.OfStage(stage)
		b.addNode(&StageNode{
			Base: Base{
				ID: stage.ID,
				Meta: Meta{
					State:       statePtr(status.StageGateState(st), true),
					StageStatus: &st,
					Severity:    string(status.GateSeverity(status.StageGateState(st))),
				},
			},
			Stage: stage,
		})
	}

	for _, edge := range p.Edges {
		if edge == nil || edge.ID == "" || edge.From.ID == "" || edge.To.ID == "" {
			continue
		}
		addStageEdge(b, edge)
	}
	return b.finish()
}

func addStageEdge(b *builder, edge *model.StageEdge) {
	var buckets [bucketCount][]*model.Gate
	renderable := 0
	for _, g := range edge.Gates {
		if g == nil || g.ID == "" {
			continue
		}
		k, ok := bucketOf(g.Type)
		if !ok {
			continue
		}
		buckets[k] = append(buckets[k], g)
		renderable++
	}

	from, to := edge.From.ID, edge.To.ID
	if renderable == 0 {
		b.addEdge(Edge{ID: from + "->" + to, Source: from, Target: to, Type: EdgePipeline})
		return
	}

	chain := func(id string) {
		b.addEdge(Edge{ID: from + "->" + id, Source: from, Target: id, Type: EdgePipeline})
		b.addEdge(Edge{ID: id + "->" + to, Source: id, Target: to, Type: EdgePipeline})
	}

	if gates := buckets[bucketApproval]; len(gates) > 0 {
		id := edge.ID + "-approval"
		if b.addNode(&ApprovalNode{Base: Base{ID: id, Meta: groupMeta(gates)}, EdgeID: edge.ID, Gates: gates}) {
			chain(id)
		}
	}

	for _, g := range buckets[bucketJob] {
		s, known := status.Reduce([]model.GateState{g.State})
		meta := Meta{State: statePtr(s, known), Severity: string(status.GateSeverity(g.State))}
		if b.addNode(&JobNode{Base: Base{ID: g.ID, Meta: meta}, EdgeID: edge.ID, Gate: g}) {
			chain(g.ID)
		}
	}

	if gates := buckets[bucketTests]; len(gates) > 0 {
		id := edge.ID + "-tests"
		if b.addNode(&TestsNode{Base: Base{ID: id, Meta: groupMeta(gates)}, EdgeID: edge.ID, Gates: gates}) {
			chain(id)
		}
	}
}

func groupMeta(gates []*model.Gate) Meta {
	s, known := status.ReduceGates(gates)
	m := Meta{State: statePtr(s, known), Severity: string(status.SeverityNeutral)}
	if known {
		m.Severity = string(status.GateSeverity(s))
	}
	return m
}
