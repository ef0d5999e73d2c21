package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wildfire/internal/config"
	"wildfire/internal/events"
	"wildfire/internal/models"
	"wildfire/internal/notify"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	if len(cfg.SMTP.Recipients) == 0 {
		logger.Warn("ALERT_RECIPIENTS is empty, alert events will be acknowledged without email")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := config.GetRedisConfig()
	client, err := events.NewRedisClient(ctx, rc)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	consumer := events.NewRedisConsumer(client, rc.Stream, rc.Group, consumerName(), logger)
	consumer.SetReclaim(rc.ClaimIdle, rc.ClaimIdle)
	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Error("failed to create consumer group", "stream", rc.Stream, "group", rc.Group, "error", err)
		os.Exit(1)
	}

	handler := newDigestHandler(notify.NewSender(cfg.SMTP, logger), cfg.SMTP.Recipients, logger)

	logger.Info("Alert notifier started, reading from Redis stream", "stream", rc.Stream, "group", rc.Group)
	if err := consumer.Run(ctx, handler.handle); err != nil {
		logger.Error("alert notifier stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Alert notifier stopped")
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "notifier"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// digestHandler emails one digest per created alert
type digestHandler struct {
	sender     notify.Sender
	recipients []string
	logger     *slog.Logger
}

func newDigestHandler(sender notify.Sender, recipients []string, logger *slog.Logger) *digestHandler {
	return &digestHandler{sender: sender, recipients: recipients, logger: logger}
}

func (h *digestHandler) handle(ctx context.Context, ev events.AlertEvent) error {
	if ev.Type != events.AlertCreated {
		h.logger.Debug("ignoring event", "type", ev.Type)
		return nil
	}
	if len(h.recipients) == 0 {
		return nil
	}

	msg, err := notify.AlertDigest(h.recipients, ev.Alert)
	if err != nil {
		return err
	}
	if err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to email alert %s: %w", ev.Alert.ID, err)
	}
	h.logger.Info("✓ Alert digest sent",
		"alert", ev.Alert.ID,
		"source", ev.Source,
		"severity", ev.Alert.Severity,
		"recipients", len(h.recipients),
		"district", districtOf(ev.Alert))
	return nil
}

func districtOf(a models.Alert) string {
	if a.District != "" {
		return a.District
	}
	return a.Forest
}
