package models

import "time"

// Severity classifies an error-log entry.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// ErrorEntry is one persisted error or warning about an ingested request.
// It carries enough of the request identity to trace a bad producer.
// Empty optional strings are stored as NULL.
type ErrorEntry struct {
	ID               int64
	Timestamp        time.Time
	Type             Severity
	RecordStored     bool
	Message          string
	RawPayload       string
	DataType         string
	SessionToken     string
	GameSessionCode  string
	GameVersionCode  string
	OrganizationCode string
}
