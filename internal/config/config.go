package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the preflight bootstrap.
type Config struct {
	CI        bool            `mapstructure:"ci"`
	Workdir   string          `mapstructure:"workdir"`
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// InputConfig names the optional scenario archive handed to the pipeline.
// An empty Archive means no archive was supplied, which is a valid state.
type InputConfig struct {
	Archive string `mapstructure:"archive"`
}

// OutputConfig names the run output directory downstream steps write into.
// An empty Dir means no output directory is prepared. A relative Dir is
// resolved against Workdir, the same root the sandbox paths use.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// SandboxConfig controls sandbox resolution and provisioning.
type SandboxConfig struct {
	// PrimaryName is the visible sandbox directory name checked first.
	PrimaryName string `mapstructure:"primary_name"`
	// HiddenName is the dot-prefixed fallback; new sandboxes are created here.
	HiddenName string `mapstructure:"hidden_name"`
	// Interpreter provisions new sandboxes via "<interpreter> -m venv <dir>".
	Interpreter string `mapstructure:"interpreter"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the PREFLIGHT_ prefix (e.g. PREFLIGHT_OUTPUT_DIR).
// Two bare variables are honoured for compatibility with the historical shell
// interface: CI (the literal "true" forces CI mode) and INPUT_ARCHIVE. Their
// PREFLIGHT_-prefixed forms take precedence when both are set.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PREFLIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("ci", "PREFLIGHT_CI", "CI")
	_ = v.BindEnv("input.archive", "PREFLIGHT_INPUT_ARCHIVE", "INPUT_ARCHIVE")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ci", false)
	v.SetDefault("workdir", ".")

	v.SetDefault("input.archive", "")
	v.SetDefault("output.dir", "")

	v.SetDefault("sandbox.primary_name", "venv")
	v.SetDefault("sandbox.hidden_name", ".venv")
	v.SetDefault("sandbox.interpreter", "python3")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "dutchbay-preflight")
	v.SetDefault("telemetry.log_level", "info")
}
