package models

// System is a log sender registered with the service.
type System struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Hostname   string `json:"hostname,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	LastEvent  string `json:"last_event_at,omitempty"`
	SyslogHost string `json:"syslog_hostname,omitempty"`
}

// Group is a named collection of systems.
type Group struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	SystemWild string   `json:"system_wildcard,omitempty"`
	Systems    []System `json:"systems,omitempty"`
}
