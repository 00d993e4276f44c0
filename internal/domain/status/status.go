// Package status resolves the consolidated status and reason fields of an
// enriched record.
package status

import (
	"strings"

	"github.com/okian/consolidator/internal/domain/model"
)

// Sentinels emitted when no source field has a value.
const (
	// NoStatus is used when neither the parcel nor the order carries a status.
	NoStatus = "Sem Status"
	// NeedsJustification flags orders without an on-hold reason. Presentation
	// layers are expected to highlight it.
	NeedsJustification = "Justificar!"
)

// Resolve prefers the parcel's final status, then the order status, then NoStatus.
func Resolve(finalStatus, orderStatus string) string {
	if s := strings.TrimSpace(finalStatus); s != "" {
		return s
	}
	if s := strings.TrimSpace(orderStatus); s != "" {
		return s
	}
	return NoStatus
}

// Reason returns the on-hold reason or NeedsJustification.
func Reason(onHoldReason string) string {
	if s := strings.TrimSpace(onHoldReason); s != "" {
		return s
	}
	return NeedsJustification
}

// IsFlagged reports whether a resolved reason is the justification sentinel.
func IsFlagged(reason string) bool {
	return reason == NeedsJustification
}

// Apply fills ConsolidatedStatus and Reason on rec.
func Apply(rec *model.EnrichedRecord) {
	final, _ := rec.ParcelField(model.ColFinalStatus)
	rec.ConsolidatedStatus = Resolve(final.Text(), rec.Order.Status)
	rec.Reason = Reason(rec.Order.OnHoldReason)
}
