package domain

import "time"

type RecommendationType string

const (
	RecommendationTypeManualBolus    RecommendationType = "manualBolus"
	RecommendationTypeTempBasal      RecommendationType = "tempBasal"
	RecommendationTypeAutomaticBolus RecommendationType = "automaticBolus"
)

// AlgorithmInput is everything the dosing algorithm sees for one cycle.
// PredictionStart is the authoritative "now"; every timeline is sorted by start.
type AlgorithmInput struct {
	PredictionStart           time.Time
	GlucoseHistory            []GlucoseSample
	Doses                     []DoseEntry
	CarbEntries               []CarbEntry
	Basal                     []TimeBoundedValue[float64]
	Sensitivity               []TimeBoundedValue[float64]
	CarbRatio                 []TimeBoundedValue[float64]
	Target                    []TimeBoundedValue[GlucoseRange]
	SuspendThreshold          *float64
	MaxBolus                  float64
	MaxBasalRate              float64
	RecommendationType        RecommendationType
	RecommendationInsulinType InsulinType
}

func (in AlgorithmInput) LatestGlucose() (GlucoseSample, bool) {
	return LatestGlucose(in.GlucoseHistory)
}

type GlucoseEffect struct {
	StartDate time.Time
	Quantity  float64
}

type EffectSet struct {
	Insulin                 []GlucoseEffect
	Carbs                   []GlucoseEffect
	Momentum                []GlucoseEffect
	RetrospectiveCorrection []GlucoseEffect
}

type AlgorithmOutput struct {
	PredictedGlucose []PredictedGlucoseValue
	ActiveInsulin    *float64
	ActiveCarbs      *float64
	Effects          EffectSet
	Recommendation   *DoseRecommendation
	// RecommendationError is set when the algorithm produced a forecast but no
	// viable dose.
	RecommendationError string
}

func (o AlgorithmOutput) RecommendationResult() (DoseRecommendation, error) {
	if o.RecommendationError != "" {
		return DoseRecommendation{}, &AlgorithmError{Reason: o.RecommendationError}
	}
	if o.Recommendation == nil {
		return DoseRecommendation{}, &AlgorithmError{Reason: "no recommendation returned"}
	}

	return *o.Recommendation, nil
}
