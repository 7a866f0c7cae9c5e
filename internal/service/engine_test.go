package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"papertrail_cli/internal/models"
	"papertrail_cli/internal/repository"
)

var errScriptExhausted = errors.New("script exhausted")

// scriptedEvents is a deterministic repository.Events that replays pages.
type scriptedEvents struct {
	pages  []models.Page
	err    error // returned instead of the page at index failAt
	failAt int

	requests []repository.SearchRequest
}

func (s *scriptedEvents) Search(ctx context.Context, req repository.SearchRequest) (models.Page, error) {
	s.requests = append(s.requests, req)
	idx := len(s.requests) - 1
	if s.err != nil && idx == s.failAt {
		return models.Page{}, s.err
	}
	if idx >= len(s.pages) {
		return models.Page{}, errScriptExhausted
	}
	return s.pages[idx], nil
}

// recordingEmitter keeps every emitted page.
type recordingEmitter struct {
	pages []models.Page
	err   error
}

func (r *recordingEmitter) Emit(p models.Page) error {
	if r.err != nil {
		return r.err
	}
	r.pages = append(r.pages, p)
	return nil
}

func epoch(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func page(maxID string, reached int64, msgs ...string) models.Page {
	p := models.Page{MaxID: maxID, ReachedMaxTime: epoch(reached)}
	for _, m := range msgs {
		p.Events = append(p.Events, models.Event{ID: m, Message: m, ReceivedAt: epoch(reached)})
	}
	return p
}

// newTestEngine returns an engine whose sleeps are recorded instead of taken.
func newTestEngine(events repository.Events, now time.Time) (*PollingEngine, *[]time.Duration) {
	e := NewPollingEngine(events, nil)
	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	e.now = func() time.Time { return now }
	return e, &slept
}

func TestPollingEngine_OneShot(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{page("3", 500, "a", "b", "c")}}
	eng, slept := newTestEngine(events, epoch(10_000))
	out := &recordingEmitter{}

	stats, err := eng.Run(context.Background(), QueryParameters{Text: "error", Output: OutputJSON, Delay: DefaultDelay}, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.requests) != 1 {
		t.Fatalf("one-shot must search exactly once, got %d", len(events.requests))
	}
	if len(out.pages) != 1 || len(out.pages[0].Events) != 3 {
		t.Fatalf("unexpected emitted pages: %+v", out.pages)
	}
	if len(*slept) != 0 {
		t.Fatalf("one-shot must not sleep, slept %v", *slept)
	}
	if stats.Pages != 1 || stats.Events != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if events.requests[0].Query != "error" || !events.requests[0].Cursor.IsZero() {
		t.Fatalf("unexpected request: %+v", events.requests[0])
	}
}

func TestPollingEngine_BoundedTail_RunsUntilMaxTimeCovered(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{
		page("10", 1003, "e1", "e2"),
		page("10", 1007), // empty page, range not covered yet
		page("14", 1010, "e3"),
		page("99", 2000, "never"),
	}}
	eng, slept := newTestEngine(events, epoch(50_000))
	out := &recordingEmitter{}

	p := QueryParameters{Text: "error", MinTime: epoch(1000), MaxTime: epoch(1010), Delay: 5 * time.Second}
	stats, err := eng.Run(context.Background(), p, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.requests) != 3 {
		t.Fatalf("expected 3 searches, got %d", len(events.requests))
	}
	if len(out.pages) != 3 {
		t.Fatalf("expected 3 emitted pages, got %d", len(out.pages))
	}
	wantIDs := []string{"e1", "e2", "e3"}
	var gotIDs []string
	for _, pg := range out.pages {
		for _, ev := range pg.Events {
			gotIDs = append(gotIDs, ev.ID)
		}
	}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("emitted events %v; want %v", gotIDs, wantIDs)
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("emitted events %v; want %v", gotIDs, wantIDs)
		}
	}
	for i, d := range *slept {
		if d != 0 {
			t.Fatalf("sleep %d = %v; bounded catch-up must not throttle", i, d)
		}
	}
	if stats.Pages != 3 || stats.Events != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPollingEngine_BoundedTail_FutureEndThrottlesAfterCatchUp(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{
		page("1", 4000, "old"),
		page("2", 5000, "present"),
		page("3", 5001, "live"),
		page("3", 5002),
	}}
	eng, slept := newTestEngine(events, epoch(5000))

	p := QueryParameters{MinTime: epoch(1000), MaxTime: epoch(9000), Delay: 2 * time.Second}
	_, err := eng.Run(context.Background(), p, &recordingEmitter{})
	if !errors.Is(err, errScriptExhausted) {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Duration{0, 2 * time.Second, 2 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v; want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("slept %v; want %v", *slept, want)
		}
	}
}

func TestPollingEngine_BoundedTail_AdvancesCursor(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{
		page("10", 1005, "a"),
		{ReachedMaxTime: epoch(1001)}, // regressed mark, no id
		page("12", 1020, "b"),
	}}
	eng, _ := newTestEngine(events, epoch(50_000))

	p := QueryParameters{MinTime: epoch(1000), MaxTime: epoch(1010)}
	if _, err := eng.Run(context.Background(), p, &recordingEmitter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := events.requests
	if len(reqs) != 3 {
		t.Fatalf("expected 3 searches, got %d", len(reqs))
	}
	if !reqs[0].Cursor.IsZero() {
		t.Fatalf("first request must start without a cursor: %+v", reqs[0].Cursor)
	}
	if !reqs[0].MinTime.Equal(epoch(1000)) || !reqs[0].MaxTime.Equal(epoch(1010)) {
		t.Fatalf("window not passed through: %+v", reqs[0])
	}
	if reqs[1].Cursor.MaxID != "10" || !reqs[1].Cursor.MaxTime.Equal(epoch(1005)) {
		t.Fatalf("second cursor = %+v", reqs[1].Cursor)
	}
	if reqs[2].Cursor.MaxID != "10" || !reqs[2].Cursor.MaxTime.Equal(epoch(1005)) {
		t.Fatalf("cursor must not regress: %+v", reqs[2].Cursor)
	}
}

func TestPollingEngine_Follow_NeverTerminatesOnItsOwn(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{
		page("1", 100, "a"),
		page("1", 200),
		page("2", 300, "b"),
		page("2", 400),
		page("3", 1<<40, "c"), // far future still does not stop a pure follow
	}}
	eng, slept := newTestEngine(events, epoch(50))
	out := &recordingEmitter{}

	p := QueryParameters{Follow: true, Delay: DefaultDelay}
	stats, err := eng.Run(context.Background(), p, out)
	if !errors.Is(err, errScriptExhausted) {
		t.Fatalf("expected the loop to run until the source failed, got %v", err)
	}
	if len(out.pages) != 5 || stats.Pages != 5 {
		t.Fatalf("expected all 5 pages emitted, got %d (stats %+v)", len(out.pages), stats)
	}
	if len(*slept) != 5 {
		t.Fatalf("expected a sleep after each page, got %v", *slept)
	}
	for i, d := range *slept {
		if d != DefaultDelay {
			t.Fatalf("sleep %d = %v; want %v", i, d, DefaultDelay)
		}
	}
}

func TestPollingEngine_UnboundedTail_CatchUpThenThrottle(t *testing.T) {
	t.Parallel()

	now := epoch(5000)
	events := &scriptedEvents{pages: []models.Page{
		page("1", 1000, "old1"),
		page("2", 3000, "old2"),
		page("3", 5000, "present"),
		page("3", 5002),
	}}
	eng, slept := newTestEngine(events, now)

	p := QueryParameters{MinTime: epoch(900), Delay: 7 * time.Second}
	if p.InitialDelay() != 0 {
		t.Fatalf("initial delay with a start time must be 0, got %v", p.InitialDelay())
	}
	_, err := eng.Run(context.Background(), p, &recordingEmitter{})
	if !errors.Is(err, errScriptExhausted) {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Duration{0, 0, 7 * time.Second, 7 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v; want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("slept %v; want %v", *slept, want)
		}
	}
}

func TestPollingEngine_UnboundedTail_EmptyPageEndsCatchUp(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{
		page("1", 1000, "old"),
		page("1", 1000),
		page("2", 1001, "new"),
	}}
	eng, slept := newTestEngine(events, epoch(99_999))

	p := QueryParameters{MinTime: epoch(900), Follow: true, Delay: 3 * time.Second}
	_, _ = eng.Run(context.Background(), p, &recordingEmitter{})

	want := []time.Duration{0, 3 * time.Second, 3 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v; want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("slept %v; want %v", *slept, want)
		}
	}
}

func TestPollingEngine_SearchErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	events := &scriptedEvents{
		pages:  []models.Page{page("1", 100, "a")},
		err:    boom,
		failAt: 1,
	}
	eng, _ := newTestEngine(events, epoch(0))
	out := &recordingEmitter{}

	stats, err := eng.Run(context.Background(), QueryParameters{Follow: true}, out)
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error to propagate, got %v", err)
	}
	if len(events.requests) != 2 {
		t.Fatalf("no retry expected, got %d requests", len(events.requests))
	}
	if len(out.pages) != 1 || stats.Pages != 1 {
		t.Fatalf("only the first page should be emitted: %d (stats %+v)", len(out.pages), stats)
	}
}

func TestPollingEngine_EmitErrorAborts(t *testing.T) {
	t.Parallel()

	broken := errors.New("broken pipe")
	events := &scriptedEvents{pages: []models.Page{page("1", 100, "a"), page("2", 200, "b")}}
	eng, slept := newTestEngine(events, epoch(0))

	_, err := eng.Run(context.Background(), QueryParameters{Follow: true}, &recordingEmitter{err: broken})
	if !errors.Is(err, broken) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if len(events.requests) != 1 || len(*slept) != 0 {
		t.Fatalf("loop must stop at the failed page: requests=%d sleeps=%d", len(events.requests), len(*slept))
	}
}

func TestPollingEngine_CancelDuringSleep(t *testing.T) {
	t.Parallel()

	events := &scriptedEvents{pages: []models.Page{page("1", 100, "a"), page("2", 200, "b")}}
	eng := NewPollingEngine(events, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := &cancellingEmitter{cancel: cancel}

	_, err := eng.Run(ctx, QueryParameters{Follow: true, Delay: time.Hour}, out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(events.requests) != 1 {
		t.Fatalf("expected one search before cancellation, got %d", len(events.requests))
	}
}

// cancellingEmitter cancels the run after the first page.
type cancellingEmitter struct {
	cancel context.CancelFunc
}

func (c *cancellingEmitter) Emit(models.Page) error {
	c.cancel()
	return nil
}

func Test_sleepContext(t *testing.T) {
	t.Parallel()

	if err := sleepContext(context.Background(), 0); err != nil {
		t.Fatalf("zero delay: %v", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("short delay: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled sleep should return promptly")
	}
}
