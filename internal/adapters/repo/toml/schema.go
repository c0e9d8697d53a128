package toml

import "fmt"

const (
	currentSettingsVersion  = 1
	currentOverridesVersion = 1
	currentPumpVersion      = 1
	indefiniteDuration      = "indefinite"
)

type settingsFileSchema struct {
	Version        int                  `toml:"version"`
	DosingEnabled  bool                 `toml:"dosing_enabled"`
	DosingStrategy string               `toml:"dosing_strategy"`
	InsulinType    string               `toml:"insulin_type"`
	TimeZone       string               `toml:"time_zone,omitempty"`
	Limits         limitsSchema         `toml:"limits"`
	Basal          []scheduleItemSchema `toml:"basal,omitempty"`
	Sensitivity    []scheduleItemSchema `toml:"insulin_sensitivity,omitempty"`
	CarbRatio      []scheduleItemSchema `toml:"carb_ratio,omitempty"`
	TargetRange    []targetItemSchema   `toml:"target_range,omitempty"`
}

func (s *settingsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSettingsVersion
	}
	if s.DosingStrategy == "" {
		s.DosingStrategy = "tempBasalOnly"
	}
}

func (s settingsFileSchema) validateVersion() error {
	if s.Version > currentSettingsVersion {
		return fmt.Errorf("unsupported settings schema version %d (current %d)", s.Version, currentSettingsVersion)
	}

	return nil
}

type limitsSchema struct {
	MaxBolus         *float64 `toml:"max_bolus,omitempty"`
	MaxBasalRate     *float64 `toml:"max_basal_rate,omitempty"`
	SuspendThreshold *float64 `toml:"suspend_threshold,omitempty"`
}

type scheduleItemSchema struct {
	Start string  `toml:"start"`
	Value float64 `toml:"value"`
}

type targetItemSchema struct {
	Start string  `toml:"start"`
	Min   float64 `toml:"min"`
	Max   float64 `toml:"max"`
}

type overridesFileSchema struct {
	Version int              `toml:"version"`
	PreMeal *overrideSchema  `toml:"pre_meal,omitempty"`
	Active  *overrideSchema  `toml:"active,omitempty"`
	History []overrideSchema `toml:"history,omitempty"`
}

func (s *overridesFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentOverridesVersion
	}
}

func (s overridesFileSchema) validateVersion() error {
	if s.Version > currentOverridesVersion {
		return fmt.Errorf("unsupported overrides schema version %d (current %d)", s.Version, currentOverridesVersion)
	}

	return nil
}

type overrideSchema struct {
	ID           string   `toml:"id"`
	Context      string   `toml:"context"`
	PresetName   string   `toml:"preset_name,omitempty"`
	TargetMin    *float64 `toml:"target_min,omitempty"`
	TargetMax    *float64 `toml:"target_max,omitempty"`
	ScaleFactor  *float64 `toml:"insulin_needs_scale_factor,omitempty"`
	StartDate    string   `toml:"start_date"`
	Duration     string   `toml:"duration"`
	Remote       bool     `toml:"remote,omitempty"`
	RemoteSource string   `toml:"remote_source,omitempty"`
	ActualEnd    string   `toml:"actual_end,omitempty"`
}

type pumpFileSchema struct {
	Version         int              `toml:"version"`
	Suspended       bool             `toml:"suspended"`
	SuspendedAt     string           `toml:"suspended_at,omitempty"`
	Disconnected    bool             `toml:"disconnected"`
	TempBasal       *tempBasalSchema `toml:"temp_basal,omitempty"`
	LastSync        string           `toml:"last_sync,omitempty"`
	PendingRecovery bool             `toml:"pending_recovery"`
	InjectFailure   string           `toml:"inject_failure,omitempty"`
}

func (s *pumpFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentPumpVersion
	}
}

func (s pumpFileSchema) validateVersion() error {
	if s.Version > currentPumpVersion {
		return fmt.Errorf("unsupported pump schema version %d (current %d)", s.Version, currentPumpVersion)
	}

	return nil
}

type tempBasalSchema struct {
	Rate           float64 `toml:"rate"`
	StartDate      string  `toml:"start_date"`
	EndDate        string  `toml:"end_date"`
	Automatic      bool    `toml:"automatic"`
	SyncIdentifier string  `toml:"sync_identifier,omitempty"`
}
