package server

import (
	"context"

	"github.com/plan3/commonauth/component"
)

const componentName = "http-server"

var _ component.Component = (*Component)(nil)

// Component adapts Server to the component lifecycle.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name.
func (sc *Component) Name() string { return componentName }

// Start starts the HTTP server.
func (sc *Component) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the HTTP server.
func (sc *Component) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports whether the server is accepting connections and whether
// any authentication strategy is installed.
func (sc *Component) Health(context.Context) component.Health {
	switch {
	case !sc.server.listening.Load():
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	case len(sc.server.registry.Names()) == 0:
		return component.Health{Name: componentName, Status: component.StatusDegraded, Message: "no authentication strategies registered"}
	default:
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
}
