package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

type DosingStrategy string

const (
	DosingStrategyTempBasalOnly  DosingStrategy = "tempBasalOnly"
	DosingStrategyAutomaticBolus DosingStrategy = "automaticBolus"
)

func (s DosingStrategy) Valid() bool {
	return s == DosingStrategyTempBasalOnly || s == DosingStrategyAutomaticBolus
}

func (s DosingStrategy) RecommendationType() RecommendationType {
	if s == DosingStrategyAutomaticBolus {
		return RecommendationTypeAutomaticBolus
	}

	return RecommendationTypeTempBasal
}

// DosingLimits are nil until the user configures them.
type DosingLimits struct {
	MaxBolus         *float64
	MaxBasalRate     *float64
	SuspendThreshold *float64
}

type TherapySchedules struct {
	Basal              *DailySchedule[float64]
	InsulinSensitivity *DailySchedule[float64]
	CarbRatio          *DailySchedule[float64]
	TargetRange        *DailySchedule[GlucoseRange]
}

type LoopSettings struct {
	DosingEnabled  bool
	DosingStrategy DosingStrategy
	InsulinType    InsulinType
	Limits         DosingLimits
	Schedules      TherapySchedules
}

func DefaultLoopSettings() LoopSettings {
	return LoopSettings{
		DosingStrategy: DosingStrategyTempBasalOnly,
		InsulinType:    InsulinTypeNovolog,
	}
}

func (s LoopSettings) Validate() error {
	if !s.DosingStrategy.Valid() {
		return fmt.Errorf("unsupported dosing strategy %q", s.DosingStrategy)
	}
	if s.Limits.MaxBolus != nil && *s.Limits.MaxBolus < 0 {
		return fmt.Errorf("maximum bolus must not be negative")
	}
	if s.Limits.MaxBasalRate != nil && *s.Limits.MaxBasalRate < 0 {
		return fmt.Errorf("maximum basal rate must not be negative")
	}
	if s.Limits.SuspendThreshold != nil && *s.Limits.SuspendThreshold <= 0 {
		return fmt.Errorf("suspend threshold must be positive")
	}

	for name, schedule := range map[string]*DailySchedule[float64]{
		"basal":               s.Schedules.Basal,
		"insulin sensitivity": s.Schedules.InsulinSensitivity,
		"carb ratio":          s.Schedules.CarbRatio,
	} {
		if schedule == nil {
			continue
		}
		if err := schedule.Validate(); err != nil {
			return fmt.Errorf("validate %s schedule: %w", name, err)
		}
		for _, item := range schedule.Items {
			if item.Value < 0 || (name != "basal" && item.Value == 0) {
				return fmt.Errorf("validate %s schedule: value %v out of range", name, item.Value)
			}
		}
	}
	if s.Schedules.TargetRange != nil {
		if err := s.Schedules.TargetRange.Validate(); err != nil {
			return fmt.Errorf("validate target range schedule: %w", err)
		}
		for _, item := range s.Schedules.TargetRange.Items {
			if err := item.Value.Validate(); err != nil {
				return fmt.Errorf("validate target range schedule: %w", err)
			}
		}
	}

	return nil
}

func (s LoopSettings) Clone() LoopSettings {
	clone := s
	clone.Limits = DosingLimits{
		MaxBolus:         cloneFloat(s.Limits.MaxBolus),
		MaxBasalRate:     cloneFloat(s.Limits.MaxBasalRate),
		SuspendThreshold: cloneFloat(s.Limits.SuspendThreshold),
	}
	clone.Schedules = TherapySchedules{
		Basal:              cloneSchedule(s.Schedules.Basal),
		InsulinSensitivity: cloneSchedule(s.Schedules.InsulinSensitivity),
		CarbRatio:          cloneSchedule(s.Schedules.CarbRatio),
		TargetRange:        cloneSchedule(s.Schedules.TargetRange),
	}

	return clone
}

// MaxBasalLowered reports whether next allows less basal than prev.
func MaxBasalLowered(prev, next LoopSettings) bool {
	if next.Limits.MaxBasalRate == nil {
		return false
	}
	if prev.Limits.MaxBasalRate == nil {
		return true
	}

	return *next.Limits.MaxBasalRate < *prev.Limits.MaxBasalRate
}

// MutateSettings applies fn to a copy of current and returns both states.
// Callers decide which side effects follow from the difference.
func MutateSettings(current LoopSettings, fn func(*LoopSettings)) (LoopSettings, LoopSettings) {
	old := current.Clone()
	next := current.Clone()
	fn(&next)

	return old, next
}

type fingerprintItem struct {
	Offset string `json:"offset"`
	Value  any    `json:"value"`
}

type fingerprintSchedule struct {
	TimeZone string            `json:"tz"`
	Items    []fingerprintItem `json:"items"`
}

// Fingerprint identifies the therapy-relevant settings in a decision record.
func (s LoopSettings) Fingerprint() string {
	payload := map[string]any{
		"dosingEnabled":    s.DosingEnabled,
		"dosingStrategy":   s.DosingStrategy,
		"insulinType":      s.InsulinType,
		"maxBolus":         s.Limits.MaxBolus,
		"maxBasalRate":     s.Limits.MaxBasalRate,
		"suspendThreshold": s.Limits.SuspendThreshold,
		"basal":            fingerprintOf(s.Schedules.Basal),
		"sensitivity":      fingerprintOf(s.Schedules.InsulinSensitivity),
		"carbRatio":        fingerprintOf(s.Schedules.CarbRatio),
		"target":           fingerprintOf(s.Schedules.TargetRange),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

func fingerprintOf[T any](schedule *DailySchedule[T]) *fingerprintSchedule {
	if schedule == nil {
		return nil
	}

	out := &fingerprintSchedule{TimeZone: schedule.location().String()}
	for _, item := range schedule.Items {
		out.Items = append(out.Items, fingerprintItem{Offset: item.StartOffset.String(), Value: item.Value})
	}

	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}

	c := *v
	return &c
}

func cloneSchedule[T any](s *DailySchedule[T]) *DailySchedule[T] {
	if s == nil {
		return nil
	}

	c := s.clone()
	return &c
}

// ParseScheduleOffset parses "HH:MM" into an offset from midnight.
func ParseScheduleOffset(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("parse schedule offset %q: %w", value, err)
	}

	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func FormatScheduleOffset(offset time.Duration) string {
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
