// Package model holds the typed records that flow through a refresh cycle.
package model

// Upstream column names. Lookups go through table.NormalizeColumn, so these
// are the trimmed forms.
const (
	ColOrderID        = "Order ID"
	ColStatus         = "Status"
	ColCurrentStation = "Current Station"
	ColDestinationHub = "Destination Hub"
	ColSLSTracking    = "SLS Tracking Number"
	ColHubReceiveTime = "LM Hub Receive time"
	ColOnHoldReason   = "OnHoldReason"

	ColSPXTracking    = "SPX Tracking Number"
	ColOperator       = "Operator"
	ColAgingTime      = "Aging Time"
	ColNextStepAction = "Next Step Action"
	ColFinalStatus    = "Final Status"
	ColScannedStatus  = "Scanned Status"
)

// Derived column names exposed by the enriched view.
const (
	ColOrigin             = "Origin"
	ColAgingDays          = "AgingDays"
	ColRiskTier           = "RiskTier"
	ColConsolidatedStatus = "ConsolidatedStatus"
	ColReason             = "Reason"
)

// OrderColumns are the order-side fields every deployment is expected to carry.
func OrderColumns() []string {
	return []string{ColOrderID, ColStatus, ColCurrentStation, ColDestinationHub, ColSLSTracking, ColHubReceiveTime, ColOnHoldReason}
}

// ParcelKeyColumns are the parcel-side fields the join cannot work without.
func ParcelKeyColumns() []string {
	return []string{ColSPXTracking}
}

// DefaultImportColumns is the parcel-side import list used when none is configured.
func DefaultImportColumns() []string {
	return []string{ColOperator, ColAgingTime, ColNextStepAction, ColFinalStatus, ColScannedStatus}
}

// DerivedColumns lists the computed fields in display order.
func DerivedColumns() []string {
	return []string{ColOrigin, ColAgingDays, ColRiskTier, ColConsolidatedStatus, ColReason}
}
