// Command pushhub serves Server-Sent Events to subscribed clients and
// accepts targeted sends over HTTP and Kafka.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/pushhub/auth"
	"github.com/kbukum/pushhub/auth/apikey"
	"github.com/kbukum/pushhub/auth/jwt"
	"github.com/kbukum/pushhub/bootstrap"
	"github.com/kbukum/pushhub/component"
	"github.com/kbukum/pushhub/config"
	"github.com/kbukum/pushhub/kafka"
	"github.com/kbukum/pushhub/kafka/consumer"
	"github.com/kbukum/pushhub/kafka/producer"
	"github.com/kbukum/pushhub/logger"
	"github.com/kbukum/pushhub/observability"
	"github.com/kbukum/pushhub/server"
	"github.com/kbukum/pushhub/sse"
)

const serviceName = "pushhub"

func main() {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		logger.Fatal("Failed to load config", logger.ErrorFields("load_config", err))
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		logger.Fatal("Invalid configuration", logger.ErrorFields("new_app", err))
	}
	if err := wire(app); err != nil {
		app.Logger.Fatal("Failed to wire components", logger.ErrorFields("wire", err))
	}
	if err := app.Run(context.Background()); err != nil {
		app.Logger.Error("Application exited with error", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

// wire builds the components and registers them in start order:
// observability, hub, Kafka ingress, HTTP server. They stop in reverse.
func wire(app *bootstrap.App[*Config]) error {
	cfg := app.Cfg
	log := app.Logger

	obs := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)

	hubOpts := []sse.HubOption{sse.WithLogger(log)}
	if cfg.Observability.Metrics.Enabled {
		rec, err := observability.NewHubMetrics(observability.Meter(serviceName))
		if err != nil {
			return fmt.Errorf("hub metrics: %w", err)
		}
		hubOpts = append(hubOpts, sse.WithRecorder(rec))
	}
	hub := sse.NewHub(cfg.SSE, hubOpts...)
	if err := obs.Registry().Register(observability.NewHubCollector(serviceName, hub)); err != nil {
		return fmt.Errorf("register hub collector: %w", err)
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	srv.OnShutdown(hub.Destroy)

	routes := server.Routes{
		ServiceName: cfg.Name,
		Hub:         hub,
		Health: func(ctx context.Context) []component.Health {
			return app.Components.HealthAll(ctx)
		},
	}
	if cfg.Observability.Prometheus.Enabled {
		routes.Metrics = obs.Handler()
		routes.MetricsPath = cfg.Observability.Prometheus.Path
	}
	if cfg.Observability.Metrics.Enabled {
		rm, err := observability.NewRequestMetrics(observability.Meter(serviceName))
		if err != nil {
			return fmt.Errorf("request metrics: %w", err)
		}
		routes.RequestMetrics = rm
	}
	if err := wireAuth(&cfg.Auth, &routes); err != nil {
		return err
	}
	srv.RegisterRoutes(routes)

	comps := []component.Component{obs, sse.NewComponent(hub, server.PathStream)}
	if cfg.Kafka.Enabled {
		kc, err := newKafkaComponent(cfg.Kafka, hub, log)
		if err != nil {
			return err
		}
		comps = append(comps, kc)
	}
	comps = append(comps, server.NewComponent(srv))

	for _, c := range comps {
		if err := app.RegisterComponent(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Name(), err)
		}
	}
	return nil
}

func wireAuth(cfg *auth.Config, routes *server.Routes) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.JWT != nil {
		svc, err := jwt.NewStreamService(cfg.JWT)
		if err != nil {
			return fmt.Errorf("stream auth: %w", err)
		}
		routes.StreamAuth = svc
		routes.AllowQueryToken = cfg.AllowQueryToken
	}
	if cfg.APIKeys != nil {
		v, err := apikey.NewVerifier(cfg.APIKeys)
		if err != nil {
			return fmt.Errorf("api keys: %w", err)
		}
		routes.APIKeys = v
	}
	return nil
}

func newKafkaComponent(cfg kafka.Config, hub *sse.Hub, log *logger.Logger) (*kafka.Component, error) {
	kc := kafka.NewComponent(cfg, log)

	var opts []kafka.IngestOption
	if cfg.DeadLetterTopic != "" {
		p, err := producer.New(cfg, log)
		if err != nil {
			return nil, err
		}
		kc.SetProducer(p)
		opts = append(opts, kafka.WithDeadLetter(p, cfg.DeadLetterTopic))
	}
	ingest := kafka.NewIngest(hub, log, opts...)
	kc.SetIngest(ingest)

	c, err := consumer.New(cfg, log)
	if err != nil {
		return nil, err
	}
	kc.AddConsumer(consumer.AsRunner(c, ingest.Handle))
	return kc, nil
}
