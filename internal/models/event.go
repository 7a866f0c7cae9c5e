package models

import "time"

// Event is a single log line as returned by the search API.
type Event struct {
	ID                string    `json:"id"`
	ReceivedAt        time.Time `json:"received_at"`
	GeneratedAt       time.Time `json:"generated_at,omitempty"`
	DisplayReceivedAt string    `json:"display_received_at,omitempty"`
	SourceID          int64     `json:"source_id,omitempty"`
	SourceName        string    `json:"source_name,omitempty"`
	SourceIP          string    `json:"source_ip,omitempty"`
	Hostname          string    `json:"hostname"`
	Program           string    `json:"program"`
	Severity          string    `json:"severity,omitempty"` // e.g. Info, Notice, Error
	Facility          string    `json:"facility,omitempty"` // e.g. User, Local7
	Message           string    `json:"message"`
}

// Host returns the hostname, falling back to the source name when the
// sender did not provide one.
func (e Event) Host() string {
	if e.Hostname != "" {
		return e.Hostname
	}
	return e.SourceName
}
