package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/calorsos/calorsos/internal/adapters/nats"
	"github.com/calorsos/calorsos/internal/adapters/openweather"
	"github.com/calorsos/calorsos/internal/adapters/postgres"
	"github.com/calorsos/calorsos/internal/adapters/valkey"
	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/ports"
	"github.com/calorsos/calorsos/internal/core/usecases"
	"github.com/calorsos/calorsos/internal/pkg/config"
	"github.com/calorsos/calorsos/internal/pkg/logging"
	"github.com/calorsos/calorsos/internal/pkg/telemetry"
	"github.com/calorsos/calorsos/internal/workflows"
)

const cronWorkflowID = "calorsos-heat-alert-cron"

func main() {
	once := flag.Bool("once", false, "run the heat alert workflow once, print the result and exit")
	flag.Parse()

	cfg, err := config.Load("calorsos-alerter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.Weather.APIKey == "" {
		log.Fatal("weather.api_key is required by the alerter")
	}

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.Prefix); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, alerts will not be broadcast", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	weather := openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, time.Duration(cfg.Weather.Timeout)*time.Second)
	alerts := usecases.NewAlertService(postgres.NewAlertRepo(db.Pool), weather, cache, publisher, usecases.AlertOptions{
		City:           cfg.Weather.City,
		BroadcastLevel: domain.RiskLevel(cfg.Weather.BroadcastLevel),
	})

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.HeatAlertWorkflow)
	w.RegisterActivity(&workflows.HeatAlertActivities{Alerts: alerts})

	if *once {
		runOnce(ctx, c, w, cfg.Temporal.TaskQueue)
		return
	}

	// An already running cron workflow is reused.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           cronWorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.Schedule,
	}, workflows.HeatAlertWorkflow, workflows.HeatAlertInput{Source: "scheduler"})
	if err != nil {
		log.Fatalf("start cron workflow: %v", err)
	}
	slog.Info("heat alert schedule active", "workflow_id", run.GetID(), "schedule", cfg.Temporal.Schedule, "city", cfg.Weather.City)

	slog.Info("alerter worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func runOnce(ctx context.Context, c client.Client, w worker.Worker, queue string) {
	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer w.Stop()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "calorsos-heat-alert-" + time.Now().UTC().Format("20060102T150405"),
		TaskQueue: queue,
	}, workflows.HeatAlertWorkflow, workflows.HeatAlertInput{Source: "manual"})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}

	var res workflows.HeatAlertResult
	if err := run.Get(ctx, &res); err != nil {
		log.Fatalf("heat alert run: %v", err)
	}
	slog.Info("heat alert issued", "alert_id", res.AlertID, "risk", res.RiskLevel, "heat_index", res.HeatIndex, "broadcast", res.Broadcasted)
}
