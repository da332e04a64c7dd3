package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"liveboard/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.RecordingsDir = filepath.Join(dir, "recordings")
	cfg.Database.Path = filepath.Join(dir, "liveboard.db")
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = 18099
	return cfg
}

func TestNewApplication(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	}()

	if app.GetAddr() != "127.0.0.1:18099" {
		t.Errorf("Unexpected address: %s", app.GetAddr())
	}

	// Construction must have created the storage layout and database.
	if _, err := os.Stat(cfg.Storage.RecordingsDir); err != nil {
		t.Errorf("Expected recordings directory to exist: %v", err)
	}
	if _, err := os.Stat(cfg.Database.Path); err != nil {
		t.Errorf("Expected attendance database to exist: %v", err)
	}
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.Port = 0

	if _, err := NewApplication(cfg); err == nil {
		t.Error("Expected error for invalid configuration")
	}
}

func TestApplication_StartStop(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
