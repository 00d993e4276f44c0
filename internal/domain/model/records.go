package model

import (
	"strconv"

	"github.com/okian/consolidator/internal/domain/table"
)

// Origin tags which order table a row came from.
type Origin string

const (
	// OriginForward marks rows from the forward order table.
	OriginForward Origin = "forward"
	// OriginReturn marks rows from the return order table.
	OriginReturn Origin = "return"
)

// OrderRecord is one row of the consolidated order stream. Essential
// fields are lifted out of the raw row; every other column lives in Extra.
type OrderRecord struct {
	OrderID        string
	Status         string
	CurrentStation string
	DestinationHub string
	TrackingNumber string
	HubReceiveTime table.Value
	OnHoldReason   string
	Origin         Origin

	// Extra holds columns unknown at design time, keyed by normalized name.
	Extra map[string]table.Value
}

// NewOrderRecord lifts a raw order row into its typed form.
func NewOrderRecord(row table.Row, origin Origin) OrderRecord {
	rec := OrderRecord{
		OrderID:        row.Get(ColOrderID).Trimmed(),
		Status:         row.Get(ColStatus).Trimmed(),
		CurrentStation: row.Get(ColCurrentStation).Trimmed(),
		DestinationHub: row.Get(ColDestinationHub).Trimmed(),
		TrackingNumber: row.Get(ColSLSTracking).Trimmed(),
		HubReceiveTime: row.Get(ColHubReceiveTime),
		OnHoldReason:   row.Get(ColOnHoldReason).Trimmed(),
		Origin:         origin,
		Extra:          make(map[string]table.Value),
	}
	for col, v := range row {
		if !isOrderColumn(col) {
			rec.Extra[col] = v
		}
	}
	return rec
}

func isOrderColumn(col string) bool {
	switch col {
	case ColOrderID, ColStatus, ColCurrentStation, ColDestinationHub, ColSLSTracking, ColHubReceiveTime, ColOnHoldReason:
		return true
	}
	return false
}

// Field returns an order-side column by name.
func (o OrderRecord) Field(column string) (table.Value, bool) {
	switch table.NormalizeColumn(column) {
	case ColOrderID:
		return table.String(o.OrderID), true
	case ColStatus:
		return table.String(o.Status), true
	case ColCurrentStation:
		return table.String(o.CurrentStation), true
	case ColDestinationHub:
		return table.String(o.DestinationHub), true
	case ColSLSTracking:
		return table.String(o.TrackingNumber), true
	case ColHubReceiveTime:
		return o.HubReceiveTime, true
	case ColOnHoldReason:
		return table.String(o.OnHoldReason), true
	case ColOrigin:
		return table.String(string(o.Origin)), true
	}
	v, ok := o.Extra[table.NormalizeColumn(column)]
	return v, ok
}

// ParcelRecord is a scan/triage row reduced to its join key and the
// columns selected for import.
type ParcelRecord struct {
	TrackingNumber string
	Fields         map[string]table.Value
}

// NewParcelRecord extracts the join key and the requested columns from row.
// Only columns listed in present are copied.
func NewParcelRecord(row table.Row, present []string) ParcelRecord {
	rec := ParcelRecord{
		TrackingNumber: row.Get(ColSPXTracking).Trimmed(),
		Fields:         make(map[string]table.Value, len(present)),
	}
	for _, col := range present {
		rec.Fields[col] = row.Get(col)
	}
	return rec
}

// EnrichedRecord is an order left-joined with at most one parcel row plus
// the fields derived from both.
type EnrichedRecord struct {
	Order OrderRecord

	// Matched is false when no parcel row shared the tracking number.
	Matched bool
	// Parcel holds the imported parcel columns that exist upstream. Columns
	// dropped by schema drift are absent; unmatched rows carry nulls.
	Parcel map[string]table.Value

	AgingDays          float64
	RiskTier           string
	TierRank           int
	Critical           bool
	ConsolidatedStatus string
	Reason             string
}

// ParcelField returns an imported parcel column.
func (e EnrichedRecord) ParcelField(column string) (table.Value, bool) {
	v, ok := e.Parcel[table.NormalizeColumn(column)]
	return v, ok
}

// Field resolves a column across derived, order-side and imported
// parcel-side fields, in that order.
func (e EnrichedRecord) Field(column string) (table.Value, bool) {
	switch table.NormalizeColumn(column) {
	case ColAgingDays:
		return table.Number(e.AgingDays), true
	case ColRiskTier:
		return table.String(e.RiskTier), true
	case ColConsolidatedStatus:
		return table.String(e.ConsolidatedStatus), true
	case ColReason:
		return table.String(e.Reason), true
	}
	if v, ok := e.Order.Field(column); ok {
		return v, true
	}
	return e.ParcelField(column)
}

// FormatDays renders a day count without trailing zeros.
func FormatDays(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
