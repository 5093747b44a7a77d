package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"atm/internal/backend"
	"atm/internal/cli"
	"atm/internal/config"
	applog "atm/internal/log"
	"atm/internal/services"
	"atm/internal/session"
)

// Exit codes
const (
	exitOK     = 0
	exitAbort  = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("atm", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	envFile := fs.String("env-file", ".env", "optional dotenv file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	// Load .env file for local development (ignored when absent)
	cli.LoadEnvFile(*envFile)

	cfg, err := cli.LoadAndValidateConfig(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	logger, err := cli.SetupLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	sessionID := uuid.NewString()
	logger = logger.With(applog.FieldSessionID, sessionID)
	logger.Info("Starting ATM session", applog.FieldBackend, cfg.StateBackend)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		return exitConfig
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, backendCfg.Type)
		return exitConfig
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	var publisher services.Publisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}
	account := services.NewAccountService(result.Repository, publisher, logger, sessionID)
	if !account.Load(ctx) {
		fmt.Fprintln(stdout, "No previous data found. Initializing default state.")
	}

	controller := session.NewController(account, stdin, stdout, logger)
	state, err := controller.Run(ctx)
	switch {
	case errors.Is(err, session.ErrInputClosed):
		logger.Warn("Input closed before exit, state not saved", applog.FieldState, state.String())
		return exitAbort
	case err != nil:
		logger.Error("Session ended with error", applog.FieldError, err, applog.FieldState, state.String())
		return exitAbort
	case state == session.Locked:
		return exitAbort
	}

	logger.Info("ATM session finished", applog.FieldState, state.String())
	return exitOK
}
