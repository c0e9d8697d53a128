package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tempBasalAlgorithmOutput = `{"activeInsulin":0.5,"activeCarbs":12,"recommendation":{"automatic":{"basalAdjustment":{"unitsPerHour":1.8,"durationMinutes":30}}}}`

func TestVersionCommand(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestUnknownCommandFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestSettingsShowDefaults(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "automatic dosing: off")
	assert.Contains(t, stdout, "strategy: tempBasalOnly")
	assert.Contains(t, stdout, "max basal rate: not set")
	assert.Contains(t, stdout, "basal: not set")
}

func TestSettingsScheduleRoundTrip(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "settings", "schedule", "basal", "00:00=0.8", "06:00=1.2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "settings saved")

	_, _, err = executeCLI(t, home, "settings", "schedule", "target", "00:00=100-110")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "settings", "show", "--json")
	require.NoError(t, err)

	var view settingsJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	require.Len(t, view.Basal, 2)
	assert.Equal(t, "06:00", view.Basal[1].Start)
	assert.InDelta(t, 1.2, view.Basal[1].Value, 1e-9)
	require.Len(t, view.TargetRange, 1)
	assert.NotEmpty(t, view.Fingerprint)
}

func TestSettingsRejectsInvalidInput(t *testing.T) {
	home := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "dosing value", args: []string{"settings", "dosing", "maybe"}, want: "expected on or off"},
		{name: "strategy", args: []string{"settings", "strategy", "bolusEverything"}, want: "unsupported dosing strategy"},
		{name: "limit", args: []string{"settings", "max-basal", "lots"}, want: "parse max-basal"},
		{name: "negative limit", args: []string{"settings", "max-bolus", "--", "-1"}, want: "maximum bolus must not be negative"},
		{name: "schedule entry", args: []string{"settings", "schedule", "basal", "midnight"}, want: "expected HH:MM=value"},
		{name: "schedule kind", args: []string{"settings", "schedule", "ketones", "00:00=1"}, want: "unknown schedule"},
		{name: "target range", args: []string{"settings", "schedule", "target", "00:00=100"}, want: "expected min-max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCLI(t, home, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoopOnceSkipsWhenDosingDisabled(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "loop", "once")
	require.NoError(t, err)
	assert.Contains(t, stdout, loopSkippedNote)

	stdout, _, err = executeCLI(t, home, "decision", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No dosing decisions recorded.")
}

func TestClosedLoopCycleEnactsTempBasal(t *testing.T) {
	home := t.TempDir()
	useAlgorithmFixture(t, tempBasalAlgorithmOutput)
	configureClosedLoop(t, home)

	stdout, _, err := executeCLI(t, home, "data", "glucose", "add", "--value", "160")
	require.NoError(t, err)
	assert.Contains(t, stdout, "recorded 160 mg/dL")

	stdout, _, err = executeCLI(t, home, "loop", "once", "--json")
	require.NoError(t, err)

	var decision struct {
		Reason                      string `json:"reason"`
		Enacted                     bool   `json:"enacted"`
		AutomaticDoseRecommendation *struct {
			BasalAdjustment *struct {
				UnitsPerHour float64 `json:"unitsPerHour"`
			} `json:"basalAdjustment"`
		} `json:"automaticDoseRecommendation"`
		Errors []struct {
			Kind string `json:"kind"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decision), stdout)
	assert.Equal(t, "loop", decision.Reason)
	assert.Empty(t, decision.Errors)
	assert.True(t, decision.Enacted)
	require.NotNil(t, decision.AutomaticDoseRecommendation)
	require.NotNil(t, decision.AutomaticDoseRecommendation.BasalAdjustment)
	assert.InDelta(t, 1.8, decision.AutomaticDoseRecommendation.BasalAdjustment.UnitsPerHour, 1e-9)

	stdout, _, err = executeCLI(t, home, "pump", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "temp basal: 1.80 U/hr")

	stdout, _, err = executeCLI(t, home, "loop", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "closed loop (tempBasalOnly)")
	assert.Contains(t, stdout, "160 mg/dL")
	assert.Contains(t, stdout, "temp basal 1.80 U/hr")
	assert.Contains(t, stdout, "loop enacted")

	stdout, _, err = executeCLI(t, home, "decision", "list", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "decisions: 1")
	assert.Contains(t, stdout, "IOB 0.50 U  COB 12 g")

	stdout, _, err = executeCLI(t, home, "loop", "cancel-temp", "--reason", "unreliableCGMData", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"reason": "unreliableCGMData"`)

	stdout, _, err = executeCLI(t, home, "pump", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "temp basal: none")
}

func TestLoopRecordsSuspendedPump(t *testing.T) {
	home := t.TempDir()
	useAlgorithmFixture(t, tempBasalAlgorithmOutput)
	configureClosedLoop(t, home)

	_, _, err := executeCLI(t, home, "data", "glucose", "add", "--value", "150")
	require.NoError(t, err)
	stdout, _, err := executeCLI(t, home, "pump", "suspend")
	require.NoError(t, err)
	assert.Contains(t, stdout, "pump suspended")

	stdout, _, err = executeCLI(t, home, "loop", "once", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"enacted": false`)
	assert.Contains(t, stdout, "pumpSuspended")

	stdout, _, err = executeCLI(t, home, "loop", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "suspended since")
	assert.Contains(t, stdout, "loop failed")
}

func TestLoopRecordsStaleGlucose(t *testing.T) {
	home := t.TempDir()
	useAlgorithmFixture(t, tempBasalAlgorithmOutput)
	configureClosedLoop(t, home)

	readingAt := time.Now().Add(-40 * time.Minute).UTC().Format(time.RFC3339)
	_, _, err := executeCLI(t, home, "data", "glucose", "add", "--value", "150", "--at", readingAt)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "loop", "once", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"enacted": false`)
	assert.Contains(t, stdout, "glucoseTooOld")

	stdout, _, err = executeCLI(t, home, "pump", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "temp basal: none")
}

func TestUncertainDeliveryPausesLoopUntilRecovered(t *testing.T) {
	home := t.TempDir()
	useAlgorithmFixture(t, tempBasalAlgorithmOutput)
	configureClosedLoop(t, home)

	_, _, err := executeCLI(t, home, "data", "glucose", "add", "--value", "150")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "pump", "inject-failure", "uncertain")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "loop", "once", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "uncertainDelivery")

	stdout, _, err = executeCLI(t, home, "loop", "once")
	require.NoError(t, err)
	assert.Contains(t, stdout, loopSkippedNote)

	_, _, err = executeCLI(t, home, "pump", "recover")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "loop", "once", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"enacted": true`)
}

func TestPumpInjectFailureRejectsUnknownKind(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "pump", "inject-failure", "explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported failure")
}

func TestCancelTempRejectsUnknownReason(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "loop", "cancel-temp", "--reason", "bored")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported cancel reason")
}

func TestCancelTempWithoutTempBasal(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "loop", "cancel-temp")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no automatic temp basal running")
}

func TestOverrideLifecycle(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "override", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no active override")

	stdout, _, err = executeCLI(t, home, "override", "premeal", "--min", "80", "--max", "100")
	require.NoError(t, err)
	assert.Contains(t, stdout, "enabled preMeal target 80-100 mg/dL")

	stdout, _, err = executeCLI(t, home,
		"override", "enable",
		"--name", "Running",
		"--scale", "0.5",
		"--remote-source", "caregiver",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, `enabled preset "Running" scale 0.50 until cancelled`)

	stdout, _, err = executeCLI(t, home, "override", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "preMeal target 80-100 mg/dL")
	assert.Contains(t, stdout, `preset "Running"`)

	stdout, _, err = executeCLI(t, home, "override", "cancel")
	require.NoError(t, err)
	assert.Contains(t, stdout, `cancelled preset "Running"`)

	stdout, _, err = executeCLI(t, home, "override", "cancel", "--premeal")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cancelled pre-meal override")

	stdout, _, err = executeCLI(t, home, "override", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no active override")
}

func TestCarbEntryIsRecorded(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "data", "carbs", "add", "--grams", "45", "--food", "pasta")
	require.NoError(t, err)
	assert.Contains(t, stdout, "recorded 45 g")
}

func TestGlucoseAddRequiresValue(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "data", "glucose", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--value must be positive")
}

func TestInvalidConfigSurfacesError(t *testing.T) {
	home := t.TempDir()
	configDir := filepath.Join(home, ".loopctl")
	require.NoError(t, os.MkdirAll(configDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("[decisions]\nbackend = \"mongo\"\n"), 0o600))

	_, _, err := executeCLI(t, home, "settings", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported decisions.backend")
}

func configureClosedLoop(t *testing.T, home string) {
	t.Helper()

	steps := [][]string{
		{"settings", "schedule", "basal", "00:00=1.0"},
		{"settings", "schedule", "sensitivity", "00:00=50"},
		{"settings", "schedule", "carb-ratio", "00:00=10"},
		{"settings", "schedule", "target", "00:00=100-110"},
		{"settings", "max-basal", "3"},
		{"settings", "max-bolus", "5"},
		{"settings", "dosing", "on"},
	}
	for _, args := range steps {
		_, _, err := executeCLI(t, home, args...)
		require.NoError(t, err, args)
	}
}

// useAlgorithmFixture points the loop at a script that ignores its input and
// prints output.
func useAlgorithmFixture(t *testing.T, output string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}

	script := filepath.Join(t.TempDir(), "algorithm.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat >/dev/null\necho '"+output+"'\n"), 0o700))
	t.Setenv("LOOP_ALGORITHM_COMMAND", script)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
