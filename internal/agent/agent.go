package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skywatch-agent/internal/alerting"
	"skywatch-agent/internal/config"
	"skywatch-agent/internal/model"
	"skywatch-agent/internal/monitor"
	"skywatch-agent/internal/scheduler"
	"skywatch-agent/internal/sink"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	engine    *alerting.Engine
	scheduler *scheduler.Scheduler
	out       sink.Sink
	resources []*model.CloudResource
	health    *HealthStatus
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	inv, err := config.LoadInventory(cfg.InventoryPath)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	onDrop := func(batches int) {
		sinkBatchesDropped.Add(float64(batches))
	}
	out, err := sink.NewFromConfig(cfg, onDrop, logger)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}

	engine := alerting.NewEngine(nil)
	health := NewHealthStatus()

	targets, resources, err := buildTargets(inv)
	if err != nil {
		_ = out.Close(context.Background())
		return nil, err
	}

	observer := func(sum scheduler.TickSummary) {
		ticksCompleted.Inc()
		samplesCollected.Add(float64(sum.Samples))
		collectionFailures.Add(float64(sum.Failures))
		alertsFired.Add(float64(sum.Fired))
		alertsResolved.Add(float64(sum.Resolved))
		open := engine.OpenCount()
		openAlerts.Set(float64(open))
		health.MarkTick(sum.At, sum.Samples, sum.Failures, open)
	}

	sched := scheduler.New(logger, engine, out, targets, cfg.TickInterval, cfg.CollectTimeout, nil, observer)

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		scheduler: sched,
		out:       out,
		resources: resources,
		health:    health,
	}, nil
}

// buildTargets wires one monitor per declared resource. Monitor
// construction is where the variant contract is checked: an unknown
// type or missing connection parameter fails here, not at collect
// time.
func buildTargets(inv config.Inventory) ([]scheduler.Target, []*model.CloudResource, error) {
	targets := make([]scheduler.Target, 0, len(inv.Resources))
	resources := make([]*model.CloudResource, 0, len(inv.Resources))
	for _, spec := range inv.Resources {
		res := model.NewCloudResource(spec.ID, spec.Type, spec.Region, spec.Params)

		var mon monitor.ResourceMonitor
		switch spec.Type {
		case model.ResourceCompute:
			mon = monitor.NewComputeMonitor(spec.ID, monitor.NewProcStatsSource(spec.Params["proc_root"]), nil)
		case model.ResourceVolume:
			mon = monitor.NewVolumeMonitor(spec.ID, monitor.NewProcStatsSource(spec.Params["proc_root"]), spec.Params["mount"], nil)
		case model.ResourceEndpoint:
			mon = monitor.NewEndpointMonitor(spec.ID, spec.Params["address"], nil)
		default:
			return nil, nil, fmt.Errorf("resource %s: no monitor for type %q", spec.ID, spec.Type)
		}

		resources = append(resources, res)
		targets = append(targets, scheduler.Target{
			Resource: res,
			Monitor:  mon,
			Rules:    spec.Rules,
			Timeout:  spec.CollectTimeout,
		})
	}
	return targets, resources, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting skywatch-agent",
		"agent_id", a.cfg.AgentID,
		"resources", len(a.resources),
		"tick_interval", a.cfg.TickInterval,
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
		// Agent terminated by itself (startup error/runtime error/parent ctx canceled).
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
			// graceful stop completed in time
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("skywatch-agent stopped")
	return nil
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}
