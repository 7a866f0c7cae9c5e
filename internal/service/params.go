package service

import "time"

// DefaultDelay is the pause between polls when none is configured.
const DefaultDelay = 2 * time.Second

// OutputMode selects how pages are written.
type OutputMode int

const (
	OutputText OutputMode = iota // one line per event
	OutputJSON                   // one JSON document per page
)

func (m OutputMode) String() string {
	if m == OutputJSON {
		return "json"
	}
	return "text"
}

// Mode is the execution mode, chosen once from validated parameters.
type Mode int

const (
	ModeOneShot       Mode = iota // single search
	ModeBoundedTail               // search until MaxTime is covered
	ModeUnboundedTail             // search forever
)

func (m Mode) String() string {
	switch m {
	case ModeBoundedTail:
		return "bounded_tail"
	case ModeUnboundedTail:
		return "unbounded_tail"
	default:
		return "one_shot"
	}
}

// Options are the merged flag and config-file inputs, before name
// resolution and validation.
type Options struct {
	Query        string
	System       string    // "" means all systems
	Group        string    // "" means all groups
	StartTime    time.Time // zero means unset
	EndTime      time.Time // zero means unset
	Follow       bool
	DelaySeconds int
	JSON         bool
}

// QueryParameters is the validated search intent for one process run.
// Build it with NewQueryParameters; it is not modified afterwards.
type QueryParameters struct {
	Text     string
	SystemID int64     // 0 means unset
	GroupID  int64     // 0 means unset
	MinTime  time.Time // UTC, second precision; zero means unset
	MaxTime  time.Time // UTC, second precision; zero means unset
	Follow   bool
	Delay    time.Duration
	Output   OutputMode
}

// Mode reports which execution mode these parameters select.
func (p QueryParameters) Mode() Mode {
	switch {
	case !p.MaxTime.IsZero():
		return ModeBoundedTail
	case p.Follow || !p.MinTime.IsZero():
		return ModeUnboundedTail
	default:
		return ModeOneShot
	}
}

// InitialDelay is the pause applied after the first page. A historical
// window starts in catch-up, which is not throttled.
func (p QueryParameters) InitialDelay() time.Duration {
	if !p.MinTime.IsZero() {
		return 0
	}
	return p.Delay
}
