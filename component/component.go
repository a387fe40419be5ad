// Package component manages the lifecycle of the long-running pieces of
// `pipegraph serve`: the SSE hub, the snapshot watcher and the HTTP server.
package component

import (
	"context"

	"github.com/kbukum/pipegraph/observability"
)

// Component represents a lifecycle-managed service.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start starts the component. It must not block.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) observability.Health
}
