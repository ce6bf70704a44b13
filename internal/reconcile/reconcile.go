package reconcile

import (
	"context"
	"log/slog"
)

const (
	// KindExternalCancelFailed marks a shipment cancelled locally while the
	// carrier-side cancel did not go through.
	KindExternalCancelFailed = "external_cancel_failed"
	// KindAddressMirrorFailed marks an address kept locally without a carrier-side twin.
	KindAddressMirrorFailed = "address_mirror_failed"
	// KindOrphanedBooking marks a shipment created upstream whose pickup
	// arrangement failed, leaving no local record.
	KindOrphanedBooking = "orphaned_booking"
	// KindLedgerGap marks a local write sequence that partially failed; ledger
	// and shipment state have diverged and need operator attention.
	KindLedgerGap = "ledger_gap"
)

// Event describes a condition an operator must reconcile out-of-band.
type Event struct {
	Kind       string
	UserID     string
	ShipmentID string
	Reference  string
	Detail     string
}

// Recorder receives reconciliation events. Recording must never fail the
// operation that emitted the event.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LoggerRecorder writes reconciliation events to the structured logger at
// error level so they reach operator alerting.
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder constructs a logging recorder.
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	return &LoggerRecorder{logger: logger}
}

// Record writes the event to the structured logger.
func (r *LoggerRecorder) Record(_ context.Context, event Event) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Error("reconciliation event",
		"kind", event.Kind,
		"user_id", event.UserID,
		"shipment_id", event.ShipmentID,
		"reference", event.Reference,
		"detail", event.Detail,
	)
}
