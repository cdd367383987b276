package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ArchivePath != "mazemind.db" {
		t.Errorf("ArchivePath = %q, want mazemind.db", cfg.ArchivePath)
	}
	if cfg.MemoryCapacity != 1000 {
		t.Errorf("MemoryCapacity = %d, want 1000", cfg.MemoryCapacity)
	}
	if cfg.RetrievalDecayFactor != 0.995 {
		t.Errorf("RetrievalDecayFactor = %v, want 0.995", cfg.RetrievalDecayFactor)
	}
	if cfg.ReflectionImportanceThreshold != 150 {
		t.Errorf("ReflectionImportanceThreshold = %v, want 150", cfg.ReflectionImportanceThreshold)
	}
	if cfg.ActionQuantum != 5*time.Minute {
		t.Errorf("ActionQuantum = %v, want 5m", cfg.ActionQuantum)
	}
	if cfg.DecisionMinInterval != 3*time.Second {
		t.Errorf("DecisionMinInterval = %v, want 3s", cfg.DecisionMinInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MEMORY_CAPACITY", "50")
	t.Setenv("RETRIEVAL_RECENCY_WEIGHT", "0.6")
	t.Setenv("REFLECTION_MIN_INTERVAL", "30m")
	t.Setenv("CRITICAL_THRESHOLD", "40")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MemoryCapacity != 50 {
		t.Errorf("MemoryCapacity = %d, want 50", cfg.MemoryCapacity)
	}
	if cfg.RetrievalRecencyWeight != 0.6 {
		t.Errorf("RetrievalRecencyWeight = %v, want 0.6", cfg.RetrievalRecencyWeight)
	}
	if cfg.ReflectionMinInterval != 30*time.Minute {
		t.Errorf("ReflectionMinInterval = %v, want 30m", cfg.ReflectionMinInterval)
	}
	if cfg.CriticalThreshold != 40 {
		t.Errorf("CriticalThreshold = %v, want 40", cfg.CriticalThreshold)
	}
}

func TestAgentConfigMapping(t *testing.T) {
	t.Setenv("MEMORY_CAPACITY", "25")
	t.Setenv("STRESS_NOISE_THRESHOLD", "0.9")
	t.Setenv("OVERRUN_FACTOR", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ac := cfg.AgentConfig()
	if ac.MemoryCapacity != 25 {
		t.Errorf("MemoryCapacity = %d, want 25", ac.MemoryCapacity)
	}
	if ac.Retrieval.NoiseThreshold != 0.9 {
		t.Errorf("NoiseThreshold = %v, want 0.9", ac.Retrieval.NoiseThreshold)
	}
	if ac.Planning.OverrunFactor != 2.5 {
		t.Errorf("OverrunFactor = %v, want 2.5", ac.Planning.OverrunFactor)
	}
	// Fields without dedicated environment variables keep pipeline defaults.
	if ac.Reflection.FocusCount != 5 {
		t.Errorf("FocusCount = %d, want the default 5", ac.Reflection.FocusCount)
	}
}
