package model

// StackState is the resource graph of an infrastructure stack run.
type StackState struct {
	ID        string           `json:"id" yaml:"id" toml:"id"`
	Resources []*StackResource `json:"resources" yaml:"resources" toml:"resources"`
}

// StackResource is one resource of a stack. Links name the identifiers of
// the resources it depends on.
type StackResource struct {
	Identifier    string   `json:"identifier" yaml:"identifier" toml:"identifier"`
	Resource      string   `json:"resource" yaml:"resource" toml:"resource"`
	Name          string   `json:"name" yaml:"name" toml:"name"`
	Configuration string   `json:"configuration,omitempty" yaml:"configuration,omitempty" toml:"configuration,omitempty"`
	Links         []string `json:"links,omitempty" yaml:"links,omitempty" toml:"links,omitempty"`
}
