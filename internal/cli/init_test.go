package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"atm/internal/config"
	applog "atm/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, &buf)
	if err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}
	logger.Debug("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("unexpected log output %q", buf.String())
	}

	if _, err := SetupLogger(&config.Config{LogLevel: "verbose"}, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("STATE_BACKEND=sqlite\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STATE_BACKEND", "")
	os.Unsetenv("STATE_BACKEND")

	LoadEnvFile(path)
	if got := os.Getenv("STATE_BACKEND"); got != "sqlite" {
		t.Errorf("STATE_BACKEND = %q, want sqlite", got)
	}

	// missing files are ignored
	LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("STATE_BACKEND", "")
	t.Setenv("LOG_FORMAT", "")

	fs := pflag.NewFlagSet("atm", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse([]string{"--backend=tape"}); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAndValidateConfig(fs); err == nil || !strings.Contains(err.Error(), "invalid state backend 'tape'") {
		t.Fatalf("LoadAndValidateConfig() error = %v", err)
	}

	cfg, err := LoadAndValidateConfig(nil)
	if err != nil {
		t.Fatalf("LoadAndValidateConfig() error = %v", err)
	}
	if cfg.StateBackend != config.BackendFile {
		t.Errorf("StateBackend = %s", cfg.StateBackend)
	}
}

func TestGracefulShutdown(t *testing.T) {
	cleaned := make(chan struct{})
	ctx, stop := GracefulShutdown(context.Background(), applog.Discard(), func() { close(cleaned) })
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
	select {
	case <-cleaned:
	default:
		t.Error("cleanup did not run before cancellation")
	}
}

func TestGracefulShutdown_Stop(t *testing.T) {
	ctx, stop := GracefulShutdown(context.Background(), applog.Discard(), nil)
	stop()
	if ctx.Err() == nil {
		t.Error("stop should cancel the context")
	}
}
