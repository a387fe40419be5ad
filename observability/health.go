package observability

// HealthStatus is the state of a component or of the whole process.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// severity orders statuses; unknown values count as down.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUp:
		return 0
	case HealthStatusDegraded:
		return 1
	}
	return 2
}

// Worse returns the more severe of s and o.
func (s HealthStatus) Worse(o HealthStatus) HealthStatus {
	if o.severity() > s.severity() {
		return o
	}
	return s
}

// Health is one component's report, e.g. the watcher keeping a previous
// snapshot after a failed reload reports degraded.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth is the /healthz body: the worst component status wins.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// Aggregate combines component reports into a ServiceHealth. With no
// components the service is up.
func Aggregate(service, version string, components ...Health) *ServiceHealth {
	sh := &ServiceHealth{Service: service, Version: version, Status: HealthStatusUp, Components: components}
	for _, c := range components {
		sh.Status = sh.Status.Worse(c.Status)
	}
	return sh
}
