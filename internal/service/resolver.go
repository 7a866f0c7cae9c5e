package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"papertrail_cli/internal/repository"
)

// ErrConfiguration matches every configuration error via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigError is a fatal, user-facing configuration problem.
type ConfigError struct {
	msg string
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string { return e.msg }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

type ResolverService struct {
	sources repository.Sources
}

func NewResolverService(sources repository.Sources) *ResolverService {
	return &ResolverService{sources: sources}
}

func (s *ResolverService) Resolve(ctx context.Context, opts Options) (QueryParameters, error) {
	return NewQueryParameters(ctx, s.sources, opts)
}

// NewQueryParameters validates opts and resolves scoping names. Local checks
// run first so that a contradictory command line never reaches the network.
func NewQueryParameters(ctx context.Context, sources repository.Sources, opts Options) (QueryParameters, error) {
	if opts.Follow && !opts.EndTime.IsZero() {
		return QueryParameters{}, configErrorf("End time (-t) does not make sense when following current logs (-f)")
	}
	if opts.DelaySeconds < 0 {
		return QueryParameters{}, configErrorf("Delay (-d) must not be negative, got %d", opts.DelaySeconds)
	}

	minTime := toEpochUTC(opts.StartTime)
	maxTime := toEpochUTC(opts.EndTime)
	if !maxTime.IsZero() && minTime.IsZero() {
		return QueryParameters{}, configErrorf("End time given without a start time")
	}
	if !minTime.IsZero() && !maxTime.IsZero() && minTime.After(maxTime) {
		return QueryParameters{}, configErrorf("Start time %s is after end time %s",
			minTime.Format(time.RFC3339), maxTime.Format(time.RFC3339))
	}

	p := QueryParameters{
		Text:    strings.TrimSpace(opts.Query),
		MinTime: minTime,
		MaxTime: maxTime,
		Follow:  opts.Follow,
		Delay:   time.Duration(opts.DelaySeconds) * time.Second,
	}
	if opts.JSON {
		p.Output = OutputJSON
	}

	if name := strings.TrimSpace(opts.System); name != "" {
		id, ok, err := sources.FindSystemID(ctx, name)
		if err != nil {
			return QueryParameters{}, fmt.Errorf("look up system %q: %w", name, err)
		}
		if !ok {
			return QueryParameters{}, configErrorf("System %q not found", name)
		}
		p.SystemID = id
	}

	if name := strings.TrimSpace(opts.Group); name != "" {
		id, ok, err := sources.FindGroupID(ctx, name)
		if err != nil {
			return QueryParameters{}, fmt.Errorf("look up group %q: %w", name, err)
		}
		if !ok {
			return QueryParameters{}, configErrorf("Group %q not found", name)
		}
		p.GroupID = id
	}

	return p, nil
}

// toEpochUTC truncates to whole seconds in UTC, preserving zero values.
func toEpochUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Unix(t.Unix(), 0).UTC()
}
