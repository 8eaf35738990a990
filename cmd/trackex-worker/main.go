package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"trackex/internal/amqp"
	"trackex/internal/cache"
	"trackex/internal/cli"
	"trackex/internal/config"
	"trackex/internal/log"
	gsheet "trackex/internal/sheets/google"
	"trackex/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting trackex-worker")

	cfg := cli.LoadConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger.WithComponent(log.ComponentSheets))
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(sheets, logger.WithComponent(log.ComponentWorker))
	janitor := cache.NewManager(logger.WithComponent(log.ComponentCache))
	janitor.Register(w.Recent())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, client) })
	g.Go(func() error { return janitor.Run(gctx, 5*time.Minute) })
	return g.Wait()
}
