package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/pushhub/component"
	"github.com/kbukum/pushhub/config"
	"github.com/kbukum/pushhub/logger"
)

type testConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
}

type fakeComponent struct {
	name   string
	status component.HealthStatus
	events *[]string
	failOn string
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	if f.failOn == "start" {
		return errors.New("boom")
	}
	return nil
}
func (f *fakeComponent) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return nil
}
func (f *fakeComponent) Health(context.Context) component.Health {
	return component.Health{Name: f.name, Status: f.status}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "pushhub", Version: "1.2.3"}},
		WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return app
}

func TestNewApp_ValidatesConfig(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.NewNop()))
	if err == nil || !strings.Contains(err.Error(), "config.name is required") {
		t.Fatalf("NewApp() error = %v", err)
	}

	app := newTestApp(t)
	if app.Name != "pushhub" || app.Version != "1.2.3" {
		t.Errorf("app = %s@%s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: %q", app.Cfg.Environment)
	}
}

func TestApp_RunLifecycle(t *testing.T) {
	app := newTestApp(t)
	var events []string
	app.RegisterComponent(&fakeComponent{name: "sse", status: component.StatusHealthy, events: &events})
	app.RegisterComponent(&fakeComponent{name: "http", status: component.StatusHealthy, events: &events})

	hook := func(name string) Hook {
		return func(context.Context) error {
			events = append(events, name)
			return nil
		}
	}
	app.OnStart(hook("onStart"))
	app.OnReady(hook("onReady"))
	app.OnStop(hook("onStop"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "start:sse,start:http,onStart,onReady,onStop,stop:http,stop:sse"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s\nwant     %s", got, want)
	}
}

func TestApp_StartFailureUnwinds(t *testing.T) {
	app := newTestApp(t)
	var events []string
	app.RegisterComponent(&fakeComponent{name: "sse", events: &events})
	app.RegisterComponent(&fakeComponent{name: "kafka", events: &events, failOn: "start"})

	if err := app.Run(context.Background()); err == nil {
		t.Fatal("expected Run() to fail")
	}
	want := "start:sse,start:kafka,stop:sse"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestApp_ReadyCheck(t *testing.T) {
	app := newTestApp(t)
	var events []string
	app.RegisterComponent(&fakeComponent{name: "sse", status: component.StatusDegraded, events: &events})

	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sse=degraded") {
		t.Errorf("ReadyCheck() = %v", err)
	}
}

func TestApp_HookError(t *testing.T) {
	app := newTestApp(t)
	app.OnStart(func(context.Context) error { return errors.New("nope") })
	if err := app.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "onStart") {
		t.Errorf("Start() error = %v", err)
	}
}
