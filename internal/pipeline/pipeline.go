// Package pipeline drives one recording through transcription and QA
// analysis. Failures are contained here: Process always returns a
// result, never an error, so one bad file cannot abort a batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"call-qa-go/internal/logger"
	"call-qa-go/internal/remote"
	"call-qa-go/internal/retry"
	"call-qa-go/internal/types"
)

type Pipeline struct {
	inf      remote.Inference
	policy   retry.Policy
	throttle time.Duration
	log      *logger.Logger
}

// New builds an item pipeline. throttle is the pause after each remote
// stage; zero disables it.
func New(inf remote.Inference, policy retry.Policy, throttle time.Duration, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Quiet()
	}
	return &Pipeline{
		inf:      inf,
		policy:   policy,
		throttle: throttle,
		log:      log.WithModule("pipeline"),
	}
}

// Process runs the two-stage pipeline for one item and returns the
// tagged result.
func (p *Pipeline) Process(ctx context.Context, item types.AudioItem) types.ItemResult {
	start := time.Now()
	log := p.log.WithField("file", item.Name)
	log.Info("starting processing pipeline")

	transcript, qa, err := p.run(ctx, item, log)
	elapsed := time.Since(start)

	if err != nil {
		log.WithError(err).
			WithField("elapsed_s", round2(elapsed.Seconds())).
			Error("processing failed")
		return types.ItemResult{
			FileName: item.Name,
			FilePath: item.Path,
			Success:  false,
			Error:    err.Error(),
			Timing:   &types.Timing{TotalTime: round2(elapsed.Seconds())},
		}
	}

	log.WithField("elapsed_s", round2(elapsed.Seconds())).Info("processed successfully")
	return types.ItemResult{
		FileName:      item.Name,
		FilePath:      item.Path,
		Success:       true,
		Transcription: transcript,
		CallSummary:   qa.CallSummary,
		Evaluation:    qa.Evaluation,
	}
}

func (p *Pipeline) run(ctx context.Context, item types.AudioItem, log *logger.Logger) (string, types.QAResult, error) {
	audio, err := os.ReadFile(item.Path)
	if err != nil {
		return "", types.QAResult{}, fmt.Errorf("read audio: %w", err)
	}

	transcript, err := retry.Do(ctx, p.policy, log, "transcribe", func() (string, error) {
		return p.inf.Transcribe(ctx, audio, item.MimeType)
	})
	if err != nil {
		return "", types.QAResult{}, fmt.Errorf("transcription: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return "", types.QAResult{}, errors.New("transcription: empty transcript")
	}
	log.WithField("words", len(strings.Fields(transcript))).Info("transcribed")

	if err := p.pause(ctx); err != nil {
		return "", types.QAResult{}, err
	}

	qa, err := retry.Do(ctx, p.policy, log, "analyze", func() (types.QAResult, error) {
		return p.inf.Analyze(ctx, transcript)
	})
	if err != nil {
		return "", types.QAResult{}, fmt.Errorf("analysis: %w", err)
	}
	if strings.TrimSpace(qa.CallSummary) == "" || len(qa.Evaluation) == 0 {
		return "", types.QAResult{}, errors.New("analysis: incomplete QA result")
	}

	if err := p.pause(ctx); err != nil {
		return "", types.QAResult{}, err
	}
	return transcript, qa, nil
}

func (p *Pipeline) pause(ctx context.Context) error {
	if p.throttle <= 0 {
		return nil
	}
	t := time.NewTimer(p.throttle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
