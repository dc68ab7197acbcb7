package orchestrator

// Status values used across Result and StepResult.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
	StatusSkipped    = "skipped"
)

// Step names, in execution order.
const (
	StepAnomaly = "anomaly"
	StepDetect  = "detect"
	StepSandbox = "sandbox"
	StepRunDir  = "rundir"
	StepInput   = "input"
)

// RunContext holds the facts derived once at the start of a run.
// It is immutable for the lifetime of the run.
type RunContext struct {
	CI           bool   `json:"ci"`
	Workdir      string `json:"workdir"`
	InputArchive string `json:"input_archive,omitempty"`
	OutputDir    string `json:"output_dir,omitempty"`
}

// Result is the aggregate outcome of a full preflight run. Steps appear in
// execution order; steps after a fatal failure are never attempted and are
// absent from the slice.
type Result struct {
	Status  string       `json:"status"` // "ok", "error", "in-progress"
	Context RunContext   `json:"context"`
	Steps   []StepResult `json:"steps"`
}

// StepResult represents the outcome of a single preflight step.
type StepResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "error", "skipped"
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Activation describes the sandbox activated by an Acquirer.
type Activation struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

// SandboxState is the read-only view of the sandbox paths returned by
// Inspect. It reports what exists on disk without changing anything.
type SandboxState struct {
	PrimaryPath    string `json:"primary_path"`
	PrimaryExists  bool   `json:"primary_exists"`
	HiddenPath     string `json:"hidden_path"`
	HiddenExists   bool   `json:"hidden_exists"`
	AnomalyPresent bool   `json:"anomaly_present"`
	ActivePath     string `json:"active_path,omitempty"`
}

// EnvironmentReport is the doctor command's read-only snapshot.
type EnvironmentReport struct {
	Context RunContext   `json:"context"`
	Sandbox SandboxState `json:"sandbox"`
}
