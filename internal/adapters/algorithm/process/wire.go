package process

import (
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

// Wire format exchanged with the algorithm process. Durations are minutes.

type inputPayload struct {
	PredictionStart           time.Time        `json:"predictionStart"`
	GlucoseHistory            []glucosePayload `json:"glucoseHistory"`
	Doses                     []dosePayload    `json:"doses"`
	CarbEntries               []carbPayload    `json:"carbEntries"`
	Basal                     []scheduledValue `json:"basal"`
	Sensitivity               []scheduledValue `json:"sensitivity"`
	CarbRatio                 []scheduledValue `json:"carbRatio"`
	Target                    []scheduledRange `json:"target"`
	SuspendThreshold          *float64         `json:"suspendThreshold,omitempty"`
	MaxBolus                  float64          `json:"maxBolus"`
	MaxBasalRate              float64          `json:"maxBasalRate"`
	RecommendationType        string           `json:"recommendationType"`
	RecommendationInsulinType string           `json:"recommendationInsulinType,omitempty"`
}

type glucosePayload struct {
	StartDate      time.Time `json:"startDate"`
	Quantity       float64   `json:"quantity"`
	IsDisplayOnly  bool      `json:"isDisplayOnly,omitempty"`
	WasUserEntered bool      `json:"wasUserEntered,omitempty"`
}

type dosePayload struct {
	Type           string    `json:"type"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Value          float64   `json:"value"`
	Unit           string    `json:"unit"`
	DeliveredUnits *float64  `json:"deliveredUnits,omitempty"`
	Automatic      bool      `json:"automatic"`
	InsulinType    string    `json:"insulinType,omitempty"`
}

type carbPayload struct {
	StartDate             time.Time `json:"startDate"`
	Grams                 float64   `json:"grams"`
	AbsorptionTimeMinutes float64   `json:"absorptionTimeMinutes"`
}

type scheduledValue struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Value     float64   `json:"value"`
}

type scheduledRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}

type outputPayload struct {
	PredictedGlucose    []effectPayload        `json:"predictedGlucose"`
	ActiveInsulin       *float64               `json:"activeInsulin"`
	ActiveCarbs         *float64               `json:"activeCarbs"`
	Effects             effectsPayload         `json:"effects"`
	Recommendation      *recommendationPayload `json:"recommendation"`
	RecommendationError string                 `json:"recommendationError"`
}

type effectPayload struct {
	StartDate time.Time `json:"startDate"`
	Quantity  float64   `json:"quantity"`
}

type effectsPayload struct {
	Insulin                 []effectPayload `json:"insulin"`
	Carbs                   []effectPayload `json:"carbs"`
	Momentum                []effectPayload `json:"momentum"`
	RetrospectiveCorrection []effectPayload `json:"retrospectiveCorrection"`
}

type recommendationPayload struct {
	Manual    *manualPayload    `json:"manual"`
	Automatic *automaticPayload `json:"automatic"`
}

type manualPayload struct {
	Amount float64 `json:"amount"`
	Notice string  `json:"notice"`
}

type automaticPayload struct {
	BasalAdjustment *tempBasalPayload `json:"basalAdjustment"`
	BolusUnits      *float64          `json:"bolusUnits"`
}

type tempBasalPayload struct {
	UnitsPerHour    float64 `json:"unitsPerHour"`
	DurationMinutes float64 `json:"durationMinutes"`
}

func encodeInput(in domain.AlgorithmInput) inputPayload {
	payload := inputPayload{
		PredictionStart:           in.PredictionStart,
		GlucoseHistory:            make([]glucosePayload, 0, len(in.GlucoseHistory)),
		Doses:                     make([]dosePayload, 0, len(in.Doses)),
		CarbEntries:               make([]carbPayload, 0, len(in.CarbEntries)),
		Basal:                     encodeValues(in.Basal),
		Sensitivity:               encodeValues(in.Sensitivity),
		CarbRatio:                 encodeValues(in.CarbRatio),
		Target:                    make([]scheduledRange, 0, len(in.Target)),
		SuspendThreshold:          in.SuspendThreshold,
		MaxBolus:                  in.MaxBolus,
		MaxBasalRate:              in.MaxBasalRate,
		RecommendationType:        string(in.RecommendationType),
		RecommendationInsulinType: string(in.RecommendationInsulinType),
	}

	for _, sample := range in.GlucoseHistory {
		payload.GlucoseHistory = append(payload.GlucoseHistory, glucosePayload{
			StartDate:      sample.StartDate,
			Quantity:       sample.Quantity,
			IsDisplayOnly:  sample.IsDisplayOnly,
			WasUserEntered: sample.WasUserEntered,
		})
	}
	for _, dose := range in.Doses {
		payload.Doses = append(payload.Doses, dosePayload{
			Type:           string(dose.Type),
			StartDate:      dose.StartDate,
			EndDate:        dose.EndDate,
			Value:          dose.Value,
			Unit:           string(dose.Unit),
			DeliveredUnits: dose.DeliveredUnits,
			Automatic:      dose.IsAutomatic(),
			InsulinType:    string(dose.InsulinType),
		})
	}
	for _, entry := range in.CarbEntries {
		payload.CarbEntries = append(payload.CarbEntries, carbPayload{
			StartDate:             entry.StartDate,
			Grams:                 entry.Grams,
			AbsorptionTimeMinutes: entry.AbsorptionTime.Minutes(),
		})
	}
	for _, target := range in.Target {
		payload.Target = append(payload.Target, scheduledRange{
			StartDate: target.StartDate,
			EndDate:   target.EndDate,
			Min:       target.Value.Min,
			Max:       target.Value.Max,
		})
	}

	return payload
}

func encodeValues(values []domain.TimeBoundedValue[float64]) []scheduledValue {
	out := make([]scheduledValue, 0, len(values))
	for _, v := range values {
		out = append(out, scheduledValue{StartDate: v.StartDate, EndDate: v.EndDate, Value: v.Value})
	}

	return out
}

func decodeOutput(payload outputPayload) domain.AlgorithmOutput {
	out := domain.AlgorithmOutput{
		ActiveInsulin:       payload.ActiveInsulin,
		ActiveCarbs:         payload.ActiveCarbs,
		RecommendationError: payload.RecommendationError,
		Effects: domain.EffectSet{
			Insulin:                 decodeEffects(payload.Effects.Insulin),
			Carbs:                   decodeEffects(payload.Effects.Carbs),
			Momentum:                decodeEffects(payload.Effects.Momentum),
			RetrospectiveCorrection: decodeEffects(payload.Effects.RetrospectiveCorrection),
		},
	}

	for _, p := range payload.PredictedGlucose {
		out.PredictedGlucose = append(out.PredictedGlucose, domain.PredictedGlucoseValue{StartDate: p.StartDate, Quantity: p.Quantity})
	}

	if rec := payload.Recommendation; rec != nil {
		out.Recommendation = &domain.DoseRecommendation{}
		if rec.Manual != nil {
			out.Recommendation.Manual = &domain.ManualBolusRecommendation{Amount: rec.Manual.Amount, Notice: rec.Manual.Notice}
		}
		if rec.Automatic != nil {
			automatic := &domain.AutomaticDoseRecommendation{BolusUnits: rec.Automatic.BolusUnits}
			if basal := rec.Automatic.BasalAdjustment; basal != nil {
				automatic.BasalAdjustment = &domain.TempBasalRecommendation{
					UnitsPerHour: basal.UnitsPerHour,
					Duration:     time.Duration(basal.DurationMinutes * float64(time.Minute)).Round(time.Second),
				}
			}
			out.Recommendation.Automatic = automatic
		}
	}

	return out
}

func decodeEffects(effects []effectPayload) []domain.GlucoseEffect {
	if len(effects) == 0 {
		return nil
	}

	out := make([]domain.GlucoseEffect, 0, len(effects))
	for _, e := range effects {
		out = append(out, domain.GlucoseEffect{StartDate: e.StartDate, Quantity: e.Quantity})
	}

	return out
}
