package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTPAddr != ":3000" {
		t.Errorf("expected HTTPAddr :3000, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("unexpected APIBaseURL %s", cfg.APIBaseURL)
	}
	if cfg.KafkaBrokers != "" {
		t.Errorf("expected kafka disabled by default, got %s", cfg.KafkaBrokers)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("unexpected SessionTTL %s", cfg.SessionTTL)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.SettingsPath = t.TempDir() + "/settings.toml"

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	// Даем серверам подняться, затем просим остановиться.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
