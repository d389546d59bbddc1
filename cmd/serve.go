package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"sensor_telemetry/internal/config"
	"sensor_telemetry/internal/handlers"
	"sensor_telemetry/internal/live"
	"sensor_telemetry/internal/logger"
	"sensor_telemetry/internal/mqtt"
	"sensor_telemetry/internal/repository"
	"sensor_telemetry/internal/repository/db"
	"sensor_telemetry/internal/server"
	"sensor_telemetry/internal/service"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	ingestTimeout   = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Subscribe to the broker and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// app holds what both serve and augment need.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *sql.DB
	tracker  *live.Tracker
	hub      *live.Hub
	services *service.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.Get(cfg.LogLevel, cfg.LogFormat)

	if cfg.Auth.SigningKey == config.DefaultSigningKey {
		log.Warnw("auth_default_signing_key", "hint", "set auth.signing_key or TELEMETRY_AUTH_SIGNING_KEY")
	}

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}

	tracker := live.NewTracker(time.Now().UTC())
	hub := live.NewHub(live.DefaultBuffer)
	services := service.NewService(repository.NewRepository(conn), service.Deps{
		Config:  cfg,
		Tracker: tracker,
		Hub:     hub,
		Log:     log,
	})

	return &app{cfg: cfg, log: log, db: conn, tracker: tracker, hub: hub, services: services}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Errorw("sqlite_close_failed", "err", err)
	}
	_ = a.log.Sync()
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sub, err := a.subscribe(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil && !errors.Is(err, mqtt.ErrClosed) {
			a.log.Warnw("mqtt_close_failed", "err", err)
		}
	}()

	go a.services.Scheduler.Run(ctx, a.cfg.Augment.ScheduleInterval)

	apiHandler := handlers.NewHandler(a.services, a.hub, a.log)
	srv := &server.Server{}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(server.Addr(a.cfg.Port), apiHandler.InitRoutes())
	}()
	a.log.Infow("http_listening", "port", a.cfg.Port)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Infow("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.services.Augmentation.Stop(shutdownCtx); err != nil && !errors.Is(err, service.ErrNoJobRunning) {
		a.log.Warnw("augment_stop_on_shutdown_failed", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// subscribe connects to the broker and routes both sensor topics into ingest.
func (a *app) subscribe(ctx context.Context) (mqtt.Subscriber, error) {
	sub, err := mqtt.NewRealSubscriber(mqtt.Options{
		Broker:   a.cfg.MQTT.Broker,
		ClientID: a.cfg.MQTT.ClientID,
		OnStatus: a.tracker.SetMQTTConnected,
		Log:      a.log,
	})
	if err != nil {
		return nil, err
	}

	handle := func(topic string, payload []byte) {
		msgCtx, cancel := context.WithTimeout(ctx, ingestTimeout)
		defer cancel()
		if err := a.services.Ingest.HandleMessage(msgCtx, topic, payload); err != nil {
			a.log.Warnw("ingest_failed", "topic", topic, "err", err)
		}
	}
	for _, topic := range []string{a.cfg.MQTT.TemperatureTopic, a.cfg.MQTT.VibrationTopic} {
		if err := sub.Subscribe(topic, a.cfg.MQTT.QoS, handle); err != nil {
			_ = sub.Close()
			return nil, fmt.Errorf("subscribe %q: %w", topic, err)
		}
		a.log.Infow("mqtt_subscribed", "topic", topic, "qos", a.cfg.MQTT.QoS)
	}
	return sub, nil
}
