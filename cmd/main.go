package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"irrigation_control/internal/config"
	"irrigation_control/internal/handlers"
	"irrigation_control/internal/hardware"
	"irrigation_control/internal/logger"
	"irrigation_control/internal/repository"
	"irrigation_control/internal/scheduler"
	"irrigation_control/internal/sensor"
	"irrigation_control/internal/server"
	"irrigation_control/internal/service"
	"irrigation_control/internal/state"
)

// @title        Irrigation Control API
// @version      1.0
// @description  Scheduled zone watering with exclusive single-zone activation.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config.yml first; the log level comes from it
	cfg, rejectedZones, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)
	for _, reason := range rejectedZones {
		log.Warnw("zone_config_rejected", "reason", reason)
	}
	if len(cfg.Zones) == 0 {
		log.Fatalw("no usable zones configured")
	}

	// persistence
	repos := repository.NewRepository(repository.Paths{
		Schedules: cfg.Storage.SchedulesFile,
		SkipLog:   cfg.Storage.SkipLogFile,
		ErrorLog:  cfg.Storage.ErrorLogFile,
		Users:     cfg.Storage.UsersFile,
	})

	// hardware
	tracker := hardware.NewTracker(cfg.Hardware.MaxConsecutiveErrors, cfg.Hardware.RetryCooldown)
	registry := hardware.NewRegistry(cfg.Zones, tracker, cfg.SimulateHardware, log)
	registry.Init()

	// shared state + sensor
	runs := state.NewRunState()
	cancelSignal := state.NewCancel()
	env := sensor.NewClient(cfg.Sensor.Address, cfg.Sensor.Timeout, cfg.Sensor.CacheDuration)

	// scheduler core
	executor := scheduler.NewExecutor(registry, runs, cancelSignal, repos.ErrorLog, log)
	loop := scheduler.NewLoop(repos.Schedules, repos.SkipLog, env, executor, registry, runs,
		cfg.Scheduler.HumiditySkipPercent, log)

	// boundary services + HTTP layer
	services := service.NewService(service.Deps{
		Repos:    repos,
		Zones:    registry,
		Health:   tracker,
		Sensor:   env,
		Runs:     runs,
		Cancel:   cancelSignal,
		Gate:     executor,
		Log:      log,
		JWTKey:   cfg.Auth.SigningKey,
		TokenTTL: cfg.Auth.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the scheduler loop
	go loop.Run(ctx, cfg.Scheduler.CheckInterval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, registry, cancelSignal, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals, stops the scheduler, makes
// sure every zone is off, and shuts the HTTP server down gracefully.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server,
	registry *hardware.Registry, cancelSignal *state.Cancel, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the scheduler loop and any in-flight sequence
	cancelSignal.Set()
	cancel()

	// valves must never stay open past the process
	if err := registry.AllOff(); err != nil {
		log.Errorw("all_off_on_shutdown_failed", "err", err)
	}
	registry.Close()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
