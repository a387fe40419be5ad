package model

// MeshWorkload is one end of observed network traffic.
type MeshWorkload struct {
	ID        string `json:"id" yaml:"id" toml:"id"`
	Name      string `json:"name" yaml:"name" toml:"name"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Service   string `json:"service,omitempty" yaml:"service,omitempty" toml:"service,omitempty"`
}

// MeshStatistics are the traffic counters between two workloads.
type MeshStatistics struct {
	Bytes             float64 `json:"bytes,omitempty" yaml:"bytes,omitempty" toml:"bytes,omitempty"`
	Packets           float64 `json:"packets,omitempty" yaml:"packets,omitempty" toml:"packets,omitempty"`
	Connections       float64 `json:"connections,omitempty" yaml:"connections,omitempty" toml:"connections,omitempty"`
	HTTP200           float64 `json:"http200,omitempty" yaml:"http200,omitempty" toml:"http200,omitempty"`
	HTTP400           float64 `json:"http400,omitempty" yaml:"http400,omitempty" toml:"http400,omitempty"`
	HTTP500           float64 `json:"http500,omitempty" yaml:"http500,omitempty" toml:"http500,omitempty"`
	HTTPClientLatency float64 `json:"httpClientLatency,omitempty" yaml:"httpClientLatency,omitempty" toml:"httpClientLatency,omitempty"`
}

// MeshEdge is observed traffic from one workload to another.
type MeshEdge struct {
	ID         string         `json:"id" yaml:"id" toml:"id"`
	From       MeshWorkload   `json:"from" yaml:"from" toml:"from"`
	To         MeshWorkload   `json:"to" yaml:"to" toml:"to"`
	Statistics MeshStatistics `json:"statistics" yaml:"statistics" toml:"statistics"`
}

// Mesh is a decodable snapshot of network traffic.
type Mesh struct {
	Edges []*MeshEdge `json:"edges" yaml:"edges" toml:"edges"`
}
