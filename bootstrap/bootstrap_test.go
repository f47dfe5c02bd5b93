package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan3/commonauth/component"
	"github.com/plan3/commonauth/config"
	"github.com/plan3/commonauth/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig() *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: "newsroom-api", Version: "1.0.0"}}
}

type recorder struct {
	events []string
}

func (r *recorder) hook(name string, err error) Hook {
	return func(context.Context) error {
		r.events = append(r.events, name)
		return err
	}
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	status   component.HealthStatus
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	f.rec.events = append(f.rec.events, "start "+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(context.Context) error {
	f.rec.events = append(f.rec.events, "stop "+f.name)
	return nil
}

func (f *fakeComponent) Health(context.Context) component.Health {
	status := f.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: f.name, Status: status}
}

func newApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	app, err := NewApp(newTestConfig(), opts...)
	require.NoError(t, err)
	return app
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestNewApp(t *testing.T) {
	app := newApp(t)
	assert.Equal(t, "newsroom-api", app.Name)
	assert.Equal(t, "1.0.0", app.Version)
	assert.Equal(t, "development", app.Cfg.Environment)
	assert.Equal(t, defaultGracefulTimeout, app.gracefulTimeout)

	app = newApp(t, WithGracefulTimeout(time.Second))
	assert.Equal(t, time.Second, app.gracefulTimeout)
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	assert.Error(t, err)
}

func TestRunLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "telemetry", rec: rec}))
	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "http-server", rec: rec}))

	app.OnConfigure(func(context.Context, *App[*testConfig]) error {
		rec.events = append(rec.events, "configure")
		return nil
	})
	app.OnStart(rec.hook("onStart", nil))
	app.OnReady(rec.hook("onReady", nil))
	app.OnStop(rec.hook("onStop", nil))

	require.NoError(t, app.Run(canceled()))
	assert.Equal(t, []string{
		"configure",
		"start telemetry", "start http-server",
		"onStart", "onReady",
		"onStop",
		"stop http-server", "stop telemetry",
	}, rec.events)
}

func TestRunConfigureFailureStartsNothing(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "http-server", rec: rec}))
	cause := errors.New("invalid plugin options")
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return cause })

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, rec.events)
}

func TestRunComponentFailureStopsStarted(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "telemetry", rec: rec}))
	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "http-server", rec: rec, startErr: errors.New("bind")}))
	app.OnStart(rec.hook("onStart", nil))

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"start telemetry", "start http-server", "stop telemetry"}, rec.events)
}

func TestRunHookErrors(t *testing.T) {
	boom := errors.New("boom")

	app := newApp(t)
	app.OnStart(func(context.Context) error { return boom })
	assert.ErrorIs(t, app.Run(context.Background()), boom)

	app = newApp(t)
	app.OnReady(func(context.Context) error { return boom })
	assert.ErrorIs(t, app.Run(context.Background()), boom)

	app = newApp(t)
	app.OnStop(func(context.Context) error { return boom })
	assert.ErrorIs(t, app.Run(canceled()), boom)
}

func TestRunHooksStopAtFirstError(t *testing.T) {
	rec := &recorder{}
	err := runHooks(context.Background(), []Hook{
		rec.hook("a", nil),
		rec.hook("b", errors.New("b failed")),
		rec.hook("c", nil),
	})
	assert.EqualError(t, err, "hook 1 failed: b failed")
	assert.Equal(t, []string{"a", "b"}, rec.events)
}

func TestReadyCheck(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	assert.NoError(t, app.ReadyCheck(context.Background()))

	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "http-server", rec: rec}))
	assert.NoError(t, app.ReadyCheck(context.Background()))

	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "telemetry", rec: rec, status: component.StatusDegraded}))
	err := app.ReadyCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry=degraded")
}

func TestShutdown(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	require.NoError(t, app.RegisterComponent(&fakeComponent{name: "http-server", rec: rec}))
	require.NoError(t, app.Components.StartAll(context.Background()))

	require.NoError(t, app.Shutdown())
	assert.Equal(t, []string{"start http-server", "stop http-server"}, rec.events)
}
