package service

import (
	"context"
	"fmt"
	"time"

	"papertrail_cli/internal/logger"
	"papertrail_cli/internal/models"
	"papertrail_cli/internal/repository"

	"github.com/dustin/go-humanize"
)

// RunStats counts what a run fetched.
type RunStats struct {
	Pages  int
	Events int
}

func (s *RunStats) add(p models.Page) {
	s.Pages++
	s.Events += len(p.Events)
}

// PollingEngine issues searches one at a time and advances the cursor
// between them. It holds no state across runs.
type PollingEngine struct {
	events repository.Events
	log    *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewPollingEngine(events repository.Events, log *logger.Logger) *PollingEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &PollingEngine{
		events: events,
		log:    log,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// Run executes p. One-shot runs fetch a single page. Bounded tails return
// once the end time is covered. Unbounded tails only return on error or
// when ctx is cancelled.
func (e *PollingEngine) Run(ctx context.Context, p QueryParameters, out Emitter) (RunStats, error) {
	mode := p.Mode()
	e.log.Debugw("search_start", "mode", mode, "query", p.Text, "system_id", p.SystemID,
		"group_id", p.GroupID, "min_time", p.MinTime, "max_time", p.MaxTime, "delay", p.Delay,
		"output", p.Output)

	if mode == ModeOneShot {
		return e.runOnce(ctx, p, out)
	}
	return e.poll(ctx, p, mode, out)
}

func (e *PollingEngine) runOnce(ctx context.Context, p QueryParameters, out Emitter) (RunStats, error) {
	var stats RunStats
	page, err := e.fetch(ctx, p, models.Cursor{})
	if err != nil {
		return stats, err
	}
	stats.add(page)
	if err := out.Emit(page); err != nil {
		return stats, fmt.Errorf("emit page: %w", err)
	}
	return stats, nil
}

func (e *PollingEngine) poll(ctx context.Context, p QueryParameters, mode Mode, out Emitter) (RunStats, error) {
	var (
		stats  RunStats
		cursor models.Cursor
	)
	policy := NewTerminationPolicy(p.MaxTime)
	startedAt := e.now().UTC()
	catchingUp := !p.MinTime.IsZero()

	for {
		page, err := e.fetch(ctx, p, cursor)
		if err != nil {
			return stats, err
		}
		stats.add(page)
		if err := out.Emit(page); err != nil {
			return stats, fmt.Errorf("emit page: %w", err)
		}
		cursor = cursor.Advance(page)

		if policy.Evaluate(cursor.MaxTime) == Done {
			e.log.Infow("search_complete",
				"pages", humanize.Comma(int64(stats.Pages)),
				"events", humanize.Comma(int64(stats.Events)),
				"reached", cursor.MaxTime)
			return stats, nil
		}

		// Catch-up ends once the present is reached. An unbounded tail also
		// treats an empty page as having caught up.
		if catchingUp && (!cursor.MaxTime.Before(startedAt) ||
			(mode == ModeUnboundedTail && len(page.Events) == 0)) {
			catchingUp = false
			e.log.Debugw("catch_up_complete", "pages", stats.Pages, "reached", cursor.MaxTime)
		}

		delay := p.Delay
		if catchingUp {
			delay = 0
		}
		if err := e.sleep(ctx, delay); err != nil {
			return stats, err
		}
	}
}

func (e *PollingEngine) fetch(ctx context.Context, p QueryParameters, cursor models.Cursor) (models.Page, error) {
	page, err := e.events.Search(ctx, repository.SearchRequest{
		Query:    p.Text,
		SystemID: p.SystemID,
		GroupID:  p.GroupID,
		MinTime:  p.MinTime,
		MaxTime:  p.MaxTime,
		Cursor:   cursor,
	})
	if err != nil {
		return models.Page{}, fmt.Errorf("search: %w", err)
	}
	e.log.Debugw("page_fetched", "events", len(page.Events), "max_id", page.MaxID,
		"reached_max_time", page.ReachedMaxTime)
	return page, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
