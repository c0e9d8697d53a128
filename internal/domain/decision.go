package domain

import (
	"time"

	"github.com/google/uuid"
)

type CancelActiveTempBasalReason string

const (
	CancelReasonAutomaticDosingDisabled CancelActiveTempBasalReason = "automaticDosingDisabled"
	CancelReasonUnreliableCGMData       CancelActiveTempBasalReason = "unreliableCGMData"
	CancelReasonMaximumBasalRateChanged CancelActiveTempBasalReason = "maximumBasalRateChanged"
)

func (r CancelActiveTempBasalReason) Valid() bool {
	switch r {
	case CancelReasonAutomaticDosingDisabled, CancelReasonUnreliableCGMData, CancelReasonMaximumBasalRateChanged:
		return true
	default:
		return false
	}
}

const DecisionReasonLoop = "loop"

type DecisionIssue struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type DecisionSettings struct {
	Fingerprint      string         `json:"fingerprint"`
	DosingEnabled    bool           `json:"dosingEnabled"`
	DosingStrategy   DosingStrategy `json:"dosingStrategy"`
	MaxBasalRate     *float64       `json:"maxBasalRate,omitempty"`
	MaxBolus         *float64       `json:"maxBolus,omitempty"`
	SuspendThreshold *float64       `json:"suspendThreshold,omitempty"`
}

func DecisionSettingsFrom(s LoopSettings) DecisionSettings {
	return DecisionSettings{
		Fingerprint:      s.Fingerprint(),
		DosingEnabled:    s.DosingEnabled,
		DosingStrategy:   s.DosingStrategy,
		MaxBasalRate:     cloneFloat(s.Limits.MaxBasalRate),
		MaxBolus:         cloneFloat(s.Limits.MaxBolus),
		SuspendThreshold: cloneFloat(s.Limits.SuspendThreshold),
	}
}

type DecisionOverride struct {
	Context     OverrideContext `json:"context"`
	PresetName  string          `json:"presetName,omitempty"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	TargetRange *GlucoseRange   `json:"targetRange,omitempty"`
	ScaleFactor *float64        `json:"insulinNeedsScaleFactor,omitempty"`
	Source      string          `json:"source,omitempty"`
}

func DecisionOverrideFrom(o *TemporaryScheduleOverride) *DecisionOverride {
	if o == nil {
		return nil
	}

	out := &DecisionOverride{
		Context:     o.Context,
		PresetName:  o.PresetName,
		StartDate:   o.StartDate,
		TargetRange: o.Settings.TargetRange,
		ScaleFactor: o.Settings.InsulinNeedsScaleFactor,
		Source:      o.EnactTrigger.Source,
	}
	if end, ok := o.EffectiveEndDate(); ok {
		out.EndDate = &end
	}

	return out
}

type DecisionGlucose struct {
	StartDate time.Time `json:"startDate"`
	Quantity  float64   `json:"quantity"`
}

// StoredDosingDecision is built during a cycle and persisted once at its end.
type StoredDosingDecision struct {
	ID                          uuid.UUID                    `json:"id"`
	Date                        time.Time                    `json:"date"`
	Reason                      string                       `json:"reason"`
	Settings                    *DecisionSettings            `json:"settings,omitempty"`
	ScheduleOverride            *DecisionOverride            `json:"scheduleOverride,omitempty"`
	PreMealOverride             *DecisionOverride            `json:"preMealOverride,omitempty"`
	HistoricalGlucose           []DecisionGlucose            `json:"historicalGlucose,omitempty"`
	PredictedGlucose            []PredictedGlucoseValue      `json:"predictedGlucose,omitempty"`
	InsulinOnBoard              *float64                     `json:"insulinOnBoard,omitempty"`
	CarbsOnBoard                *float64                     `json:"carbsOnBoard,omitempty"`
	AlgorithmRecommendation     *AutomaticDoseRecommendation `json:"algorithmRecommendation,omitempty"`
	AutomaticDoseRecommendation *AutomaticDoseRecommendation `json:"automaticDoseRecommendation,omitempty"`
	Enacted                     bool                         `json:"enacted"`
	Errors                      []DecisionIssue              `json:"errors,omitempty"`
}

func NewDosingDecision(at time.Time, reason string) *StoredDosingDecision {
	return &StoredDosingDecision{
		ID:     uuid.New(),
		Date:   at,
		Reason: reason,
	}
}

func (d *StoredDosingDecision) AppendError(err error) {
	if err == nil {
		return
	}

	d.Errors = append(d.Errors, IssueFromError(err))
}

func (d *StoredDosingDecision) HasErrors() bool {
	return len(d.Errors) > 0
}

func (d *StoredDosingDecision) HasIssue(kind string) bool {
	for _, issue := range d.Errors {
		if issue.Kind == kind {
			return true
		}
	}

	return false
}

// Snapshot returns a copy sharing no slices with d.
func (d *StoredDosingDecision) Snapshot() StoredDosingDecision {
	out := *d
	out.HistoricalGlucose = append([]DecisionGlucose(nil), d.HistoricalGlucose...)
	out.PredictedGlucose = append([]PredictedGlucoseValue(nil), d.PredictedGlucose...)
	out.Errors = append([]DecisionIssue(nil), d.Errors...)

	return out
}
