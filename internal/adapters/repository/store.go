// Package repository holds the published consolidated view and the outcome
// of the refresh cycles that produced it.
package repository

import (
	"context"
	"time"

	"github.com/okian/consolidator/internal/domain/pipeline"
)

// Status describes what is being served and how the last cycles went.
type Status struct {
	// Available is true once any cycle has succeeded.
	Available bool `json:"available"`
	// Stale is true when the served view is older than the freshness window
	// or the latest attempt failed.
	Stale        bool      `json:"stale"`
	ViewID       string    `json:"view_id,omitempty"`
	Records      int       `json:"records"`
	LastSuccess  time.Time `json:"last_success,omitempty"`
	LastAttempt  time.Time `json:"last_attempt,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	FailedSource string    `json:"failed_source,omitempty"`
	// ConsecutiveFailures counts failed cycles since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// Store provides the single-writer, many-reader view slot.
type Store interface {
	// Publish replaces the served view. Readers see the old or the new view,
	// never a mix.
	Publish(ctx context.Context, v *pipeline.View) error
	// RecordFailure keeps the served view and records why a cycle failed.
	RecordFailure(ctx context.Context, at time.Time, err error)
	// Current returns the served view or ErrNoView.
	Current(ctx context.Context) (*pipeline.View, error)
	// Status reports availability and freshness.
	Status(ctx context.Context) Status
}
