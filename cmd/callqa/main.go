package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"call-qa-go/internal/batch"
	"call-qa-go/internal/config"
	"call-qa-go/internal/gemini"
	"call-qa-go/internal/logger"
	"call-qa-go/internal/pipeline"
	"call-qa-go/internal/retry"
)

func main() {
	_ = godotenv.Load() // loads .env

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: callqa <root-directory>")
		os.Exit(2)
	}
	root := os.Args[1]

	log, runID := logger.New().WithRun()
	log.WithField("service", "call-qa-go").WithField("root", root).Info("starting run")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	prompt, err := cfg.Prompt()
	if err != nil {
		log.WithError(err).Fatal("failed to load prompt override")
	}

	client := gemini.New(gemini.Options{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		TranscribeModel: cfg.TranscribeModel,
		AnalysisModel:   cfg.AnalysisModel,
		Prompt:          prompt,
		Timeout:         cfg.HTTPTimeout,
		Log:             log,
	})

	policy := retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		MinWait:     cfg.RetryMinWait,
		MaxWait:     cfg.RetryMaxWait,
	}
	proc := pipeline.New(client, policy, cfg.StageThrottle, log)
	sched := batch.NewScheduler(proc, cfg.GroupSize, batch.Mode(cfg.Mode), cfg.ItemDelay, cfg.GroupCooldown, log)
	runner := batch.NewRunner(sched, cfg.OutputDir, cfg.ExportXLSX, runID, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := runner.ProcessRoot(ctx, root)
	if err != nil {
		log.WithError(err).Fatal("run failed")
	}
	log.WithField("folders", stats.Folders).
		WithField("files", stats.Files).
		WithField("successful", stats.Successful).
		WithField("failed", stats.Failed).
		Info("done")
}
