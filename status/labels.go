package status

import "github.com/kbukum/pipegraph/model"

// Card is the compact status shown on a service card.
type Card string

const (
	CardOK      Card = "ok"
	CardPending Card = "pending"
	CardClosed  Card = "closed"
)

// Severity is the chip color class of a state.
type Severity string

const (
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityDanger   Severity = "danger"
	SeverityNeutral  Severity = "neutral"
)

var serviceCards = map[model.ServiceStatus]Card{
	model.ServiceHealthy: CardOK,
	model.ServiceSynced:  CardOK,
	model.ServiceStale:   CardPending,
	model.ServiceFailed:  CardClosed,
	model.ServicePaused:  CardPending,
}

// CardOf maps a service status to its card status.
func CardOf(s model.ServiceStatus) (Card, bool) {
	c, ok := serviceCards[s]
	return c, ok
}

// GateCard maps a gate state to its card status. Running gates have none.
func GateCard(s model.GateState) (Card, bool) {
	switch s {
	case model.GateOpen:
		return CardOK, true
	case model.GateClosed:
		return CardClosed, true
	case model.GatePending:
		return CardPending, true
	}
	return "", false
}

// ApprovalLabel is the chip text of an approval node.
func ApprovalLabel(s model.GateState) string {
	switch s {
	case model.GateOpen:
		return "Approved"
	case model.GatePending:
		return "Waiting"
	case model.GateClosed:
		return "Blocked"
	}
	return ""
}

// TestLabel is the chip text of a tests or job node.
func TestLabel(s model.GateState) string {
	switch s {
	case model.GateOpen:
		return "Passed"
	case model.GatePending:
		return "In progress"
	case model.GateClosed:
		return "Failed"
	}
	return ""
}

// GateSeverity is the chip severity of a gate state.
func GateSeverity(s model.GateState) Severity {
	switch s {
	case model.GateOpen:
		return SeveritySuccess
	case model.GateClosed:
		return SeverityCritical
	case model.GatePending:
		return SeverityWarning
	}
	return SeverityNeutral
}

// ComponentSeverity is the chip severity of a component state. A component
// without a state is treated as pending.
func ComponentSeverity(s model.ComponentState) Severity {
	switch s {
	case model.ComponentFailed:
		return SeverityDanger
	case model.ComponentRunning:
		return SeveritySuccess
	case model.ComponentPending, model.ComponentPaused, "":
		return SeverityWarning
	}
	return SeverityNeutral
}
