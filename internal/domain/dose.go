package domain

import "time"

type DoseType string

const (
	DoseTypeBolus     DoseType = "bolus"
	DoseTypeTempBasal DoseType = "tempBasal"
	DoseTypeBasal     DoseType = "basal"
	DoseTypeSuspend   DoseType = "suspend"
	DoseTypeResume    DoseType = "resume"
)

func (t DoseType) Valid() bool {
	switch t {
	case DoseTypeBolus, DoseTypeTempBasal, DoseTypeBasal, DoseTypeSuspend, DoseTypeResume:
		return true
	default:
		return false
	}
}

type DoseUnit string

const (
	DoseUnitUnits        DoseUnit = "U"
	DoseUnitUnitsPerHour DoseUnit = "U/hr"
)

type InsulinType string

const (
	InsulinTypeNovolog InsulinType = "novolog"
	InsulinTypeHumalog InsulinType = "humalog"
	InsulinTypeApidra  InsulinType = "apidra"
	InsulinTypeFiasp   InsulinType = "fiasp"
	InsulinTypeLyumjev InsulinType = "lyumjev"
	InsulinTypeAfrezza InsulinType = "afrezza"
	InsulinTypeUnknown InsulinType = ""
)

// DoseEntry is immutable once recorded; corrections are new entries.
type DoseEntry struct {
	Type           DoseType
	StartDate      time.Time
	EndDate        time.Time
	Value          float64
	Unit           DoseUnit
	DeliveredUnits *float64
	// Automatic is nil when the source did not say; nil counts as automatic.
	Automatic      *bool
	InsulinType    InsulinType
	SyncIdentifier string
}

func (d DoseEntry) Duration() time.Duration {
	return d.EndDate.Sub(d.StartDate)
}

func (d DoseEntry) IsAutomatic() bool {
	return d.Automatic == nil || *d.Automatic
}

func (d DoseEntry) UnitsPerHour() float64 {
	switch d.Unit {
	case DoseUnitUnitsPerHour:
		return d.Value
	default:
		hours := d.Duration().Hours()
		if hours <= 0 {
			return 0
		}
		return d.Value / hours
	}
}

func (d DoseEntry) Units() float64 {
	if d.DeliveredUnits != nil {
		return *d.DeliveredUnits
	}

	switch d.Unit {
	case DoseUnitUnitsPerHour:
		return d.Value * d.Duration().Hours()
	default:
		return d.Value
	}
}

// Straddles reports whether the dose started before t and is still running at t.
func (d DoseEntry) Straddles(t time.Time) bool {
	return !d.StartDate.After(t) && d.EndDate.After(t)
}

type BasalDeliveryStateKind string

const (
	BasalDeliveryActive     BasalDeliveryStateKind = "active"
	BasalDeliveryTempBasal  BasalDeliveryStateKind = "tempBasal"
	BasalDeliverySuspended  BasalDeliveryStateKind = "suspended"
	BasalDeliveryInitiating BasalDeliveryStateKind = "initiatingTempBasal"
	BasalDeliveryCanceling  BasalDeliveryStateKind = "cancelingTempBasal"
)

type BasalDeliveryState struct {
	Kind BasalDeliveryStateKind
	At   time.Time
	// Dose is set when Kind is BasalDeliveryTempBasal.
	Dose *DoseEntry
}

// ActiveTempBasal returns the running temp basal, if any.
func (s BasalDeliveryState) ActiveTempBasal() (DoseEntry, bool) {
	if s.Kind != BasalDeliveryTempBasal || s.Dose == nil {
		return DoseEntry{}, false
	}

	return *s.Dose, true
}

func BoolPtr(v bool) *bool {
	return &v
}

func Float64Ptr(v float64) *float64 {
	return &v
}
