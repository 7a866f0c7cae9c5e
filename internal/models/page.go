package models

import "time"

// Page is one bounded search result. It is consumed by the caller in the
// iteration that fetched it; only its Cursor survives.
type Page struct {
	Events []Event

	// ReachedMaxTime is the high-water mark covered by this page.
	ReachedMaxTime time.Time

	MinID            string
	MaxID            string
	ReachedBeginning bool
	ReachedTimeLimit bool

	// Raw is the undecoded response body, kept for JSON output.
	Raw []byte
}

// Cursor marks how far a sequence of searches has progressed.
type Cursor struct {
	MaxID   string    // sent as min_id on the next request
	MaxTime time.Time // zero until the first page arrives
}

// IsZero reports whether no page has been seen yet.
func (c Cursor) IsZero() bool {
	return c.MaxID == "" && c.MaxTime.IsZero()
}

// Advance returns the cursor moved to the page's high-water mark. It never
// moves backwards.
func (c Cursor) Advance(p Page) Cursor {
	next := c
	if p.MaxID != "" {
		next.MaxID = p.MaxID
	}
	if p.ReachedMaxTime.After(c.MaxTime) {
		next.MaxTime = p.ReachedMaxTime
	}
	return next
}
