package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_JSONShape(t *testing.T) {
	t.Parallel()

	r := Result{
		Status:  StatusOK,
		Context: RunContext{CI: true, Workdir: "/work"},
		Steps: []StepResult{
			{Name: StepAnomaly, Status: StatusOK, Detail: "sandbox path clean"},
			{Name: StepSandbox, Status: StatusSkipped, Detail: "CI runner provides the runtime"},
		},
	}

	data, err := json.Marshal(&r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "ok", got["status"])

	rc, ok := got["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, rc["ci"])
	assert.Equal(t, "/work", rc["workdir"])
	// Optional context fields must be absent when empty (omitempty).
	_, hasArchive := rc["input_archive"]
	assert.False(t, hasArchive)

	steps, ok := got["steps"].([]any)
	require.True(t, ok)
	require.Len(t, steps, 2)
	first, ok := steps[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "anomaly", first["name"])
	assert.Equal(t, "ok", first["status"])
}

func TestStepResult_JSONShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       StepResult
		wantError   bool
		errorAbsent bool
	}{
		{
			name:        "no error field when empty",
			input:       StepResult{Name: StepDetect, Status: StatusOK, Detail: "developer workstation"},
			errorAbsent: true,
		},
		{
			name:      "error field present when set",
			input:     StepResult{Name: StepInput, Status: StatusError, Error: "input archive not found: missing.zip"},
			wantError: true,
		},
		{
			name:        "skipped status",
			input:       StepResult{Name: StepRunDir, Status: StatusSkipped, Detail: "no output directory configured"},
			errorAbsent: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tc.input)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(data, &got))

			assert.Equal(t, tc.input.Name, got["name"])
			assert.Equal(t, tc.input.Status, got["status"])

			_, hasError := got["error"]
			if tc.wantError {
				assert.True(t, hasError)
				assert.Equal(t, tc.input.Error, got["error"])
			}
			if tc.errorAbsent {
				assert.False(t, hasError)
			}
		})
	}
}

func TestSandboxState_JSONShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        SandboxState
		activeAbsent bool
	}{
		{
			name: "active sandbox reported",
			input: SandboxState{
				PrimaryPath:  "/work/venv",
				HiddenPath:   "/work/.venv",
				HiddenExists: true,
				ActivePath:   "/work/.venv",
			},
		},
		{
			name: "no active sandbox",
			input: SandboxState{
				PrimaryPath:    "/work/venv",
				HiddenPath:     "/work/.venv",
				AnomalyPresent: true,
			},
			activeAbsent: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tc.input)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(data, &got))

			assert.Equal(t, tc.input.PrimaryPath, got["primary_path"])
			assert.Equal(t, tc.input.AnomalyPresent, got["anomaly_present"])

			_, hasActive := got["active_path"]
			assert.Equal(t, !tc.activeAbsent, hasActive)
		})
	}
}
