package domain

import "time"

// ChangeOperation describes a committed board operation recorded in the activity ledger.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationCreate    ChangeOperation = "create"
	ChangeOperationUpdate    ChangeOperation = "update"
	ChangeOperationMove      ChangeOperation = "move"
	ChangeOperationDelete    ChangeOperation = "delete"
	ChangeOperationDuplicate ChangeOperation = "duplicate"
)

// ChangeEvent represents a single activity-log entry for a board task.
type ChangeEvent struct {
	ID         int64
	BoardID    string
	TaskID     string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}
