package model

// ServiceStatus is the deployment status of a service.
type ServiceStatus string

const (
	ServiceHealthy ServiceStatus = "HEALTHY"
	ServiceSynced  ServiceStatus = "SYNCED"
	ServiceStale   ServiceStatus = "STALE"
	ServiceFailed  ServiceStatus = "FAILED"
	ServicePaused  ServiceStatus = "PAUSED"
)

// Service is a deployed service.
type Service struct {
	ID        string        `json:"id" yaml:"id" toml:"id"`
	Name      string        `json:"name" yaml:"name" toml:"name"`
	Namespace string        `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Status    ServiceStatus `json:"status" yaml:"status" toml:"status"`
}

// ComponentState is the state of a service component or its children.
type ComponentState string

const (
	ComponentRunning ComponentState = "RUNNING"
	ComponentPending ComponentState = "PENDING"
	ComponentFailed  ComponentState = "FAILED"
	ComponentPaused  ComponentState = "PAUSED"
)

// ServiceComponent is a top-level Kubernetes object owned by a service.
type ServiceComponent struct {
	UID       string            `json:"uid" yaml:"uid" toml:"uid"`
	Group     string            `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	Kind      string            `json:"kind" yaml:"kind" toml:"kind"`
	Namespace string            `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Name      string            `json:"name" yaml:"name" toml:"name"`
	State     ComponentState    `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
	Children  []*ComponentChild `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// ComponentChild is an object owned by a component or by another child.
type ComponentChild struct {
	UID       string         `json:"uid" yaml:"uid" toml:"uid"`
	ParentUID string         `json:"parentUid" yaml:"parentUid" toml:"parentUid"`
	Group     string         `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	Kind      string         `json:"kind" yaml:"kind" toml:"kind"`
	Namespace string         `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Name      string         `json:"name" yaml:"name" toml:"name"`
	State     ComponentState `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
}

// ComponentTree is a decodable snapshot of a service's components.
type ComponentTree struct {
	ServiceID  string              `json:"serviceId,omitempty" yaml:"serviceId,omitempty" toml:"serviceId,omitempty"`
	Components []*ServiceComponent `json:"components" yaml:"components" toml:"components"`
}
