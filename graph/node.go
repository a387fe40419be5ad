package graph

import "github.com/kbukum/pipegraph/model"

// NodeType is the discriminant of a node variant.
type NodeType string

const (
	TypeStage          NodeType = "stage"
	TypeApproval       NodeType = "approval"
	TypeJob            NodeType = "job"
	TypeTests          NodeType = "tests"
	TypeComponent      NodeType = "component"
	TypeComponentChild NodeType = "component-child"
	TypeWorkload       NodeType = "workload"
	TypeStatistics     NodeType = "statistics"
	TypeResource       NodeType = "resource"
)

// Point is a position in layout space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the extent of a node. The zero size means "not measured".
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Meta carries the derived state used to style a node and its outgoing edges.
type Meta struct {
	State       *model.GateState   `json:"state,omitempty"`
	StageStatus *model.StageStatus `json:"stageStatus,omitempty"`
	Severity    string             `json:"severity,omitempty"`
}

// Base holds the fields shared by every node variant. Position is the
// top-left corner once the node has been laid out.
type Base struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
	Meta     Meta   `json:"meta"`
}

// Common returns the shared fields of the node.
func (b *Base) Common() *Base { return b }

// Node is one renderable vertex. The set of variants is closed; switch on the
// concrete type to handle each of them.
type Node interface {
	Common() *Base
	Type() NodeType
	// Data is the variant payload handed to the renderer.
	Data() any
	clone() Node
}

// StageNode renders a pipeline stage.
type StageNode struct {
	Base
	Stage *model.Stage
}

func (n *StageNode) Type() NodeType { return TypeStage }
func (n *StageNode) Data() any      { return n.Stage }
func (n *StageNode) clone() Node    { c := *n; return &c }

// ApprovalNode groups the approval gates of one stage edge.
type ApprovalNode struct {
	Base
	EdgeID string
	Gates  []*model.Gate
}

func (n *ApprovalNode) Type() NodeType { return TypeApproval }
func (n *ApprovalNode) Data() any      { return gateData{EdgeID: n.EdgeID, Gates: n.Gates} }
func (n *ApprovalNode) clone() Node {
	c := *n
	c.Gates = append([]*model.Gate(nil), n.Gates...)
	return &c
}

// JobNode renders a single job gate.
type JobNode struct {
	Base
	EdgeID string
	Gate   *model.Gate
}

func (n *JobNode) Type() NodeType { return TypeJob }
func (n *JobNode) Data() any      { return n.Gate }
func (n *JobNode) clone() Node    { c := *n; return &c }

// TestsNode groups the test (window or untyped) gates of one stage edge.
type TestsNode struct {
	Base
	EdgeID string
	Gates  []*model.Gate
}

func (n *TestsNode) Type() NodeType { return TypeTests }
func (n *TestsNode) Data() any      { return gateData{EdgeID: n.EdgeID, Gates: n.Gates} }
func (n *TestsNode) clone() Node {
	c := *n
	c.Gates = append([]*model.Gate(nil), n.Gates...)
	return &c
}

// ComponentNode renders a top-level service component.
type ComponentNode struct {
	Base
	Component *model.ServiceComponent
}

func (n *ComponentNode) Type() NodeType { return TypeComponent }
func (n *ComponentNode) Data() any      { return n.Component }
func (n *ComponentNode) clone() Node    { c := *n; return &c }

// ComponentChildNode renders an object owned by a component.
type ComponentChildNode struct {
	Base
	Child *model.ComponentChild
}

func (n *ComponentChildNode) Type() NodeType { return TypeComponentChild }
func (n *ComponentChildNode) Data() any      { return n.Child }
func (n *ComponentChildNode) clone() Node    { c := *n; return &c }

// WorkloadNode renders one end of mesh traffic.
type WorkloadNode struct {
	Base
	Workload model.MeshWorkload
}

func (n *WorkloadNode) Type() NodeType { return TypeWorkload }
func (n *WorkloadNode) Data() any      { return n.Workload }
func (n *WorkloadNode) clone() Node    { c := *n; return &c }

// StatisticsNode sits on a mesh edge and carries its traffic counters.
type StatisticsNode struct {
	Base
	Statistics model.MeshStatistics
}

func (n *StatisticsNode) Type() NodeType { return TypeStatistics }
func (n *StatisticsNode) Data() any      { return n.Statistics }
func (n *StatisticsNode) clone() Node    { c := *n; return &c }

// ResourceNode renders one resource of a stack.
type ResourceNode struct {
	Base
	Resource *model.StackResource
}

func (n *ResourceNode) Type() NodeType { return TypeResource }
func (n *ResourceNode) Data() any      { return n.Resource }
func (n *ResourceNode) clone() Node    { c := *n; return &c }

type gateData struct {
	EdgeID string        `json:"edgeId"`
	Gates  []*model.Gate `json:"gates"`
}
