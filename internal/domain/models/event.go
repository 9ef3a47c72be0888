package models

import "time"

// Change operations carried by calendar events and audit records.
const (
	OpAddDay       = "add_day"
	OpRemoveDay    = "remove_day"
	OpResetDay     = "reset_day"
	OpReset        = "reset"
	OpSetChangeSet = "set_changeset"
)

// CalendarEvent announces that a calendar's overrides changed and any
// derived state for it must be rebuilt.
type CalendarEvent struct {
	Calendar  string    `json:"calendar"`
	Operation string    `json:"operation"`
	Date      *Date     `json:"date,omitempty"`
	DayType   *DayType  `json:"day_type,omitempty"`
	At        time.Time `json:"at"`
}

// AuditRecord is one changeset operation as persisted to the audit log.
type AuditRecord struct {
	At        time.Time `json:"at"`
	Calendar  string    `json:"calendar"`
	Operation string    `json:"operation"`
	Payload   string    `json:"payload"`
}
