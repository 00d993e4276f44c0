package model

import (
	"time"

	"github.com/google/uuid"
)

// TriggerReason says why a refresh cycle was requested.
type TriggerReason string

const (
	TriggerStartup  TriggerReason = "startup"
	TriggerSchedule TriggerReason = "schedule"
	TriggerManual   TriggerReason = "manual"
)

// Trigger is a request for one refresh cycle.
type Trigger struct {
	ID          string
	Reason      TriggerReason
	RequestedAt time.Time
	// Force bypasses cached source tables.
	Force bool
}

// NewTrigger stamps a trigger with a fresh ID. Manual triggers always force
// a refetch.
func NewTrigger(reason TriggerReason, at time.Time) Trigger {
	return Trigger{
		ID:          uuid.NewString(),
		Reason:      reason,
		RequestedAt: at,
		Force:       reason == TriggerManual,
	}
}
