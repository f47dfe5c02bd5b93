package observability

import (
	"context"
	"errors"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/plan3/commonauth/component"
)

const componentName = "telemetry"

var _ component.Component = (*Component)(nil)

// Component installs the global tracer and meter providers on Start and
// flushes them on Stop. A disabled config makes it a no-op that reports
// healthy.
type Component struct {
	cfg    Config
	tracer TracerConfig
	meter  MeterConfig

	mu sync.Mutex
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewComponent returns the telemetry component for a service.
func NewComponent(cfg Config, service, version, environment string) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:    cfg,
		tracer: cfg.Tracer(service, version, environment),
		meter:  cfg.Meter(service, version, environment),
	}
}

// Name returns the component name.
func (c *Component) Name() string { return componentName }

// Start initializes the exporters when telemetry is enabled.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tp, err := InitTracer(ctx, c.tracer)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.meter)
	if err != nil {
		return errors.Join(err, tp.Shutdown(ctx))
	}
	c.tp, c.mp = tp, mp
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
		c.mp = nil
	}
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
		c.tp = nil
	}
	return errors.Join(errs...)
}

// Health reports whether the exporters are running.
func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if c.cfg.Enabled && c.tp == nil {
		h.Status = component.StatusDegraded
		h.Message = "telemetry not started"
	}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}
