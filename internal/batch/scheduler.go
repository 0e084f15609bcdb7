// Package batch partitions discovered recordings into groups and
// dispatches them through the item pipeline with the configured pacing.
package batch

import (
	"context"
	"sync"
	"time"

	"call-qa-go/internal/logger"
	"call-qa-go/internal/types"
)

// Processor handles one item and always returns a result (failures are
// contained inside the result, never raised).
type Processor interface {
	Process(ctx context.Context, item types.AudioItem) types.ItemResult
}

// Mode selects how items within a group are dispatched.
type Mode string

const (
	// ModeSequential processes one item at a time with a delay between
	// items. Rate-limit friendly.
	ModeSequential Mode = "sequential"
	// ModeConcurrent dispatches the whole group at once and waits for
	// every member before advancing.
	ModeConcurrent Mode = "concurrent"
)

type Scheduler struct {
	proc      Processor
	groupSize int
	mode      Mode
	itemDelay time.Duration
	cooldown  time.Duration
	log       *logger.Logger
}

// NewScheduler builds a scheduler. itemDelay paces sequential mode;
// cooldown separates groups in both modes.
func NewScheduler(proc Processor, groupSize int, mode Mode, itemDelay, cooldown time.Duration, log *logger.Logger) *Scheduler {
	if groupSize <= 0 {
		groupSize = 1
	}
	if mode != ModeConcurrent {
		mode = ModeSequential
	}
	if log == nil {
		log = logger.Quiet()
	}
	return &Scheduler{
		proc:      proc,
		groupSize: groupSize,
		mode:      mode,
		itemDelay: itemDelay,
		cooldown:  cooldown,
		log:       log.WithModule("batch"),
	}
}

// RunAll processes every item in discovery order and returns one result
// per item, aligned with the input order. Item failures never stop the
// run; the scheduler always advances to the next group.
func (s *Scheduler) RunAll(ctx context.Context, items []types.AudioItem) []types.ItemResult {
	results := make([]types.ItemResult, 0, len(items))
	groups := (len(items) + s.groupSize - 1) / s.groupSize

	for g := 0; g*s.groupSize < len(items); g++ {
		lo := g * s.groupSize
		hi := lo + s.groupSize
		if hi > len(items) {
			hi = len(items)
		}
		group := items[lo:hi]

		s.log.WithField("group", g+1).
			WithField("groups", groups).
			WithField("size", len(group)).
			Info("processing group")

		var groupResults []types.ItemResult
		if s.mode == ModeConcurrent {
			groupResults = s.runConcurrent(ctx, group)
		} else {
			groupResults = s.runSequential(ctx, group)
		}
		results = append(results, groupResults...)

		failed := 0
		for _, r := range groupResults {
			if !r.Success {
				failed++
			}
		}
		if failed == len(group) && len(group) > 0 {
			s.log.WithField("group", g+1).
				WithField("failed", failed).
				Warn("every item in group failed; check upstream availability")
		}

		if hi < len(items) {
			s.sleep(ctx, s.cooldown)
		}
	}
	return results
}

// runSequential paces one item at a time.
func (s *Scheduler) runSequential(ctx context.Context, group []types.AudioItem) []types.ItemResult {
	results := make([]types.ItemResult, 0, len(group))
	for i, item := range group {
		results = append(results, s.proc.Process(ctx, item))
		if i < len(group)-1 {
			s.sleep(ctx, s.itemDelay)
		}
	}
	return results
}

// runConcurrent fans the group out and collects by submission index, so
// result order matches input order regardless of completion order.
func (s *Scheduler) runConcurrent(ctx context.Context, group []types.AudioItem) []types.ItemResult {
	results := make([]types.ItemResult, len(group))
	var wg sync.WaitGroup
	for i, item := range group {
		wg.Add(1)
		go func(i int, item types.AudioItem) {
			defer wg.Done()
			results[i] = s.proc.Process(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
