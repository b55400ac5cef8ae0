// internal/core/services/types.go
package services

import "time"

// AdjustmentRecorder receives the outcome of every stock adjustment.
type AdjustmentRecorder interface {
	RecordAdjustment(movementType, outcome string)
}

// Adjustment outcomes reported to the AdjustmentRecorder.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Option configures an InventoryService.
type Option func(*InventoryService)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InventoryService) {
		s.now = now
	}
}

// WithRecorder reports adjustment outcomes to r.
func WithRecorder(r AdjustmentRecorder) Option {
	return func(s *InventoryService) {
		s.recorder = r
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordAdjustment(string, string) {}
