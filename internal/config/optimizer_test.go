package config

import (
	"testing"
)

func TestDefaultOptimizerConfig(t *testing.T) {
	cfg := DefaultOptimizerConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.TargetScore != 0.9 {
		t.Errorf("TargetScore = %v, want 0.9", cfg.TargetScore)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("MaxIterations = %v, want 10", cfg.MaxIterations)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*OptimizerConfig)
	}{
		{"zero target", func(c *OptimizerConfig) { c.TargetScore = 0 }},
		{"target above 1", func(c *OptimizerConfig) { c.TargetScore = 1.1 }},
		{"zero iterations", func(c *OptimizerConfig) { c.MaxIterations = 0 }},
		{"too many iterations", func(c *OptimizerConfig) { c.MaxIterations = 101 }},
		{"zero no-improvement limit", func(c *OptimizerConfig) { c.NoImprovementLimit = 0 }},
		{"negative min improvement", func(c *OptimizerConfig) { c.MinImprovement = -0.1 }},
		{"min improvement at 1", func(c *OptimizerConfig) { c.MinImprovement = 1 }},
		{"negative sample limit", func(c *OptimizerConfig) { c.SampleLimit = -1 }},
		{"empty db path", func(c *OptimizerConfig) { c.DBPath = "" }},
		{"negative rps", func(c *OptimizerConfig) { c.RequestsPerSecond = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultOptimizerConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOptimizerConfigFromEnv(t *testing.T) {
	t.Setenv("PROMPTOPT_TARGET_SCORE", "0.75")
	t.Setenv("PROMPTOPT_MAX_ITERATIONS", "5")
	t.Setenv("PROMPTOPT_SAMPLE_LIMIT", "100")

	cfg, err := OptimizerConfigFromEnv()
	if err != nil {
		t.Fatalf("OptimizerConfigFromEnv: %v", err)
	}
	if cfg.TargetScore != 0.75 {
		t.Errorf("TargetScore = %v, want 0.75", cfg.TargetScore)
	}
	if cfg.MaxIterations != 5 {
		t.Errorf("MaxIterations = %v, want 5", cfg.MaxIterations)
	}
	if cfg.SampleLimit != 100 {
		t.Errorf("SampleLimit = %v, want 100", cfg.SampleLimit)
	}
	// Unset variables keep their defaults
	if cfg.NoImprovementLimit != 3 {
		t.Errorf("NoImprovementLimit = %v, want default 3", cfg.NoImprovementLimit)
	}
}

func TestOptimizerConfigFromEnvInvalidValue(t *testing.T) {
	t.Setenv("PROMPTOPT_MAX_ITERATIONS", "lots")
	if _, err := OptimizerConfigFromEnv(); err == nil {
		t.Error("expected parse error")
	}
}

func TestOptimizerConfigFromEnvOutOfRange(t *testing.T) {
	t.Setenv("PROMPTOPT_TARGET_SCORE", "7")
	if _, err := OptimizerConfigFromEnv(); err == nil {
		t.Error("expected validation error")
	}
}
