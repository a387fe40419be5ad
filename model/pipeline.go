package model

import (
	"fmt"

	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/validation"
)

// GateType selects how a gate is rendered and grouped.
type GateType string

const (
	GateApproval GateType = "APPROVAL"
	GateJob      GateType = "JOB"
	GateWindow   GateType = "WINDOW"
)

// Known reports whether t is a supported gate type. The empty type is
// supported and grouped with WINDOW gates.
func (t GateType) Known() bool {
	switch t {
	case GateApproval, GateJob, GateWindow, "":
		return true
	}
	return false
}

// GateState is the state of a single gate.
type GateState string

const (
	GateOpen    GateState = "OPEN"
	GateClosed  GateState = "CLOSED"
	GatePending GateState = "PENDING"
	GateRunning GateState = "RUNNING"
)

// StageStatus is the derived status of a stage.
type StageStatus string

const (
	StageComplete StageStatus = "Complete"
	StagePending  StageStatus = "Pending"
)

// Pipeline is one snapshot of a delivery pipeline.
type Pipeline struct {
	ID     string       `json:"id" yaml:"id" toml:"id"`
	Name   string       `json:"name" yaml:"name" toml:"name"`
	Stages []*Stage     `json:"stages" yaml:"stages" toml:"stages"`
	Edges  []*StageEdge `json:"edges" yaml:"edges" toml:"edges"`
}

// Stage groups the services deployed together.
type Stage struct {
	ID       string          `json:"id" yaml:"id" toml:"id"`
	Name     string          `json:"name" yaml:"name" toml:"name"`
	Services []*StageService `json:"services,omitempty" yaml:"services,omitempty" toml:"services,omitempty"`
}

// StageService places a service in a stage.
type StageService struct {
	Service *Service `json:"service" yaml:"service" toml:"service"`
}

// StageRef points at a stage from an edge.
type StageRef struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
}

// StageEdge is a promotion path between two stages.
type StageEdge struct {
	ID    string   `json:"id" yaml:"id" toml:"id"`
	From  StageRef `json:"from" yaml:"from" toml:"from"`
	To    StageRef `json:"to" yaml:"to" toml:"to"`
	Gates []*Gate  `json:"gates,omitempty" yaml:"gates,omitempty" toml:"gates,omitempty"`
}

// Gate is a checkpoint on an edge.
type Gate struct {
	ID       string    `json:"id" yaml:"id" toml:"id"`
	Name     string    `json:"name" yaml:"name" toml:"name"`
	Type     GateType  `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	State    GateState `json:"state" yaml:"state" toml:"state"`
	Cluster  string    `json:"cluster,omitempty" yaml:"cluster,omitempty" toml:"cluster,omitempty"`
	Approver *User     `json:"approver,omitempty" yaml:"approver,omitempty" toml:"approver,omitempty"`
	Spec     *GateSpec `json:"spec,omitempty" yaml:"spec,omitempty" toml:"spec,omitempty"`
}

// User identifies the approver of an approval gate.
type User struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" toml:"email,omitempty"`
}

// GateSpec holds the job a JOB gate runs.
type GateSpec struct {
	Job *JobSpec `json:"job,omitempty" yaml:"job,omitempty" toml:"job,omitempty"`
}

// JobSpec describes the validation job behind a JOB gate.
type JobSpec struct {
	Namespace      string            `json:"namespace" yaml:"namespace" toml:"namespace"`
	Containers     []*Container      `json:"containers,omitempty" yaml:"containers,omitempty" toml:"containers,omitempty"`
	Labels         map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" toml:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty" toml:"annotations,omitempty"`
	ServiceAccount string            `json:"serviceAccount,omitempty" yaml:"serviceAccount,omitempty" toml:"serviceAccount,omitempty"`
	// Raw is a raw job spec that overrides the structured fields when set.
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty" toml:"raw,omitempty"`
}

// Container is a single container of a gate job.
type Container struct {
	Image string    `json:"image" yaml:"image" toml:"image"`
	Args  []string  `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
	Env   []*EnvVar `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`
}

// EnvVar is a container environment variable.
type EnvVar struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Validate reports structural problems of a pipeline snapshot: missing or
// duplicate ids, edges pointing at unknown stages and unsupported gate types.
// Builders tolerate all of these; the result is advisory.
func (p *Pipeline) Validate() *errors.AppError {
	if p == nil {
		return errors.InvalidInput("pipeline", "snapshot is empty")
	}

	v := validation.New()
	stageIDs := make([]string, 0, len(p.Stages))
	known := make(map[string]bool, len(p.Stages))
	for i, s := range p.Stages {
		if s == nil {
			continue
		}
		v.Required(fmt.Sprintf("stages[%d].id", i), s.ID)
		stageIDs = append(stageIDs, s.ID)
		known[s.ID] = true
	}
	v.Unique("stages", stageIDs)

	edgeIDs := make([]string, 0, len(p.Edges))
	for i, e := range p.Edges {
		if e == nil {
			continue
		}
		field := fmt.Sprintf("edges[%d]", i)
		v.Required(field+".id", e.ID)
		edgeIDs = append(edgeIDs, e.ID)
		v.Custom(e.From.ID == "" || known[e.From.ID], field+".from", fmt.Sprintf("unknown stage %q", e.From.ID))
		v.Custom(e.To.ID == "" || known[e.To.ID], field+".to", fmt.Sprintf("unknown stage %q", e.To.ID))
		for j, g := range e.Gates {
			if g == nil {
				continue
			}
			gf := fmt.Sprintf("%s.gates[%d]", field, j)
			v.Required(gf+".id", g.ID)
			v.Custom(g.Type.Known(), gf+".type", fmt.Sprintf("unsupported gate type %q", g.Type))
		}
	}
	v.Unique("edges", edgeIDs)

	return v.Validate()
}
