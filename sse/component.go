package sse

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pipegraph/component"
	"github.com/kbukum/pipegraph/observability"
)

// Component runs a Hub under the component registry.
type Component struct {
	hub     *Hub
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a component with a fresh Hub.
func NewComponent() *Component {
	return &Component{hub: NewHub()}
}

// Hub returns the underlying Hub.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

// Start runs the hub loop in the background.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop stops the hub and waits for the loop to return.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hub.Stop()
	c.wg.Wait()
	c.running = false
	return nil
}

func (c *Component) Health(_ context.Context) observability.Health {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	h := observability.Health{
		Name:    c.Name(),
		Status:  observability.HealthStatusUp,
		Message: fmt.Sprintf("%d clients connected", c.hub.ClientCount()),
	}
	if !running {
		h.Status = observability.HealthStatusDown
	}
	return h
}
