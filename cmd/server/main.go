package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentgrid/gateway/internal/server"
	"github.com/talentgrid/gateway/modules"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/eventbus"
	"github.com/talentgrid/gateway/pkg/health"
	"github.com/talentgrid/gateway/pkg/logging"
	"github.com/talentgrid/gateway/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	// The gateway itself is stateless; Postgres only backs the audit store.
	var pool *pgxpool.Pool
	if conf.AuditLogEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		var err error
		pool, err = pgxpool.New(ctx, conf.Database.Opts)
		if err != nil {
			panic(err)
		}
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	// Operator-supplied migrations run after the embedded module schemas.
	if dir := conf.MigrationsDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			app.Migrations().RegisterSchema(os.DirFS(dir), ".")
		}
	}
	if err := app.Migrations().Run(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	client := app.Service(backend.Client{}).(*backend.Client)
	app.RegisterControllers(health.NewController(client))
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	options := &server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	}
	serverInstance, err := server.Default(options)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
