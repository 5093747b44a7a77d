package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"atm/internal/amqp"
	"atm/internal/cli"
	"atm/internal/config"
	applog "atm/internal/log"
	"atm/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("atm-audit", pflag.ExitOnError)
	config.RegisterAuditFlags(fs)
	_ = fs.Parse(os.Args[1:])

	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := config.Load(fs)
	if err == nil {
		err = cfg.ValidateAudit()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger, err := cli.SetupLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger.Info("Starting atm-audit", "journal", cfg.AuditJournal, "queue", cfg.AMQPQueue)

	// Initialize AMQP client for consuming messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		return 1
	}
	defer amqpClient.Close()

	ctx, stop := cli.GracefulShutdown(context.Background(), logger, nil)
	defer stop()

	auditWorker := worker.NewAuditWorker(worker.NewFileJournal(cfg.AuditJournal), logger)
	err = amqpClient.ConsumeSessionSummaries(ctx, auditWorker.HandleSummary)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		return 1
	}

	logger.Info("Audit consumer shutdown complete")
	return 0
}
