// Package status derives the traffic-light state of composite nodes.
//
// Reduce folds gate states with a conservative AND: any closed gate closes
// the group, any pending gate keeps it pending, and only a non-empty group of
// open gates is open. Everything else (running gates, an empty group) has no
// state and must not be rendered as active.
package status

import "github.com/kbukum/pipegraph/model"

// Reduce aggregates gate states. The second result is false when the
// aggregate is unknown.
func Reduce(states []model.GateState) (model.GateState, bool) {
	if len(states) == 0 {
		return "", false
	}

	allOpen := true
	pending := false
	for _, s := range states {
		switch s {
		case model.GateClosed:
			return model.GateClosed, true
		case model.GatePending:
			pending = true
			allOpen = false
		case model.GateOpen:
		default:
			allOpen = false
		}
	}

	switch {
	case pending:
		return model.GatePending, true
	case allOpen:
		return model.GateOpen, true
	}
	return "", false
}

// ReduceGates reduces the states of gates, skipping nil entries.
func ReduceGates(gates []*model.Gate) (model.GateState, bool) {
	states := make([]model.GateState, 0, len(gates))
	for _, g := range gates {
		if g != nil {
			states = append(states, g.State)
		}
	}
	return Reduce(states)
}

// OfStage returns Complete when every service of the stage is healthy.
// A stage without services is Complete.
func OfStage(stage *model.Stage) model.StageStatus {
	if stage == nil {
		return model.StageComplete
	}
	for _, ss := range stage.Services {
		if ss == nil || ss.Service == nil {
			continue
		}
		if ss.Service.Status != model.ServiceHealthy {
			return model.StagePending
		}
	}
	return model.StageComplete
}

// StageGateState maps a stage status onto the gate state used to color it.
func StageGateState(s model.StageStatus) model.GateState {
	if s == model.StageComplete {
		return model.GateOpen
	}
	return model.GatePending
}

// Active reports whether an edge leaving a node in state s is passable.
func Active(s model.GateState, known bool) bool {
	return known && s == model.GateOpen
}
