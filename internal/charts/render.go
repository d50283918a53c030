package charts

import (
	"context"
	"sync"
)

// Renderer draws one materialized chart. Implementations live at the edges:
// the HTTP dashboard embeds chart specs for the browser and the CLI prints them.
type Renderer interface {
	Render(ctx context.Context, c Chart) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, c Chart) error

func (f RendererFunc) Render(ctx context.Context, c Chart) error { return f(ctx, c) }

// Collector is a Renderer that keeps every chart it is given.
type Collector struct {
	mu     sync.Mutex
	charts []Chart
}

func (c *Collector) Render(_ context.Context, ch Chart) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.charts = append(c.charts, ch)
	return nil
}

// Charts returns the collected charts in render order.
func (c *Collector) Charts() []Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Chart, len(c.charts))
	copy(out, c.charts)
	return out
}
