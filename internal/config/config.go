// Package config loads the cognitive core's tunables from the environment.
// Every empirically chosen constant (retrieval weights, decay, stress noise,
// reflection threshold, divergence factors, decision interval) is exposed
// here rather than hard-coded, so hosts can tune them without rebuilding.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mazemind/mazemind/pkg/agent"
	"github.com/mazemind/mazemind/pkg/decision"
	"github.com/mazemind/mazemind/pkg/planning"
	"github.com/mazemind/mazemind/pkg/reflection"
	"github.com/mazemind/mazemind/pkg/retrieval"
)

// Config is the environment-driven configuration.
type Config struct {
	// GeminiAPIKey enables the Google GenAI provider when set; without it
	// the core runs on deterministic heuristics.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// ArchivePath is the SQLite file for durable memory snapshots.
	ArchivePath string `env:"ARCHIVE_PATH" envDefault:"mazemind.db"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	MemoryCapacity int `env:"MEMORY_CAPACITY" envDefault:"1000"`

	RetrievalDecayFactor      float64 `env:"RETRIEVAL_DECAY_FACTOR" envDefault:"0.995"`
	RetrievalRecencyWeight    float64 `env:"RETRIEVAL_RECENCY_WEIGHT" envDefault:"0.4"`
	RetrievalImportanceWeight float64 `env:"RETRIEVAL_IMPORTANCE_WEIGHT" envDefault:"0.3"`
	RetrievalRelevanceWeight  float64 `env:"RETRIEVAL_RELEVANCE_WEIGHT" envDefault:"0.3"`
	StressNoiseThreshold      float64 `env:"STRESS_NOISE_THRESHOLD" envDefault:"0.8"`
	StressNoiseScale          float64 `env:"STRESS_NOISE_SCALE" envDefault:"0.2"`

	ReflectionImportanceThreshold float64       `env:"REFLECTION_IMPORTANCE_THRESHOLD" envDefault:"150"`
	ReflectionMinMemories         int           `env:"REFLECTION_MIN_MEMORIES" envDefault:"20"`
	ReflectionMinInterval         time.Duration `env:"REFLECTION_MIN_INTERVAL" envDefault:"1h"`

	ActionQuantum     time.Duration `env:"ACTION_QUANTUM" envDefault:"5m"`
	CriticalThreshold float64       `env:"CRITICAL_THRESHOLD" envDefault:"25"`
	DivergenceFactor  float64       `env:"DIVERGENCE_FACTOR" envDefault:"1.5"`
	OverrunFactor     float64       `env:"OVERRUN_FACTOR" envDefault:"3"`

	DecisionMinInterval time.Duration `env:"DECISION_MIN_INTERVAL" envDefault:"3s"`
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// AgentConfig maps the flat environment view onto the pipeline config.
func (c Config) AgentConfig() agent.Config {
	ac := agent.Config{
		MemoryCapacity: c.MemoryCapacity,
		Retrieval: retrieval.Config{
			DecayFactor:      c.RetrievalDecayFactor,
			RecencyWeight:    c.RetrievalRecencyWeight,
			ImportanceWeight: c.RetrievalImportanceWeight,
			RelevanceWeight:  c.RetrievalRelevanceWeight,
			NoiseThreshold:   c.StressNoiseThreshold,
			NoiseScale:       c.StressNoiseScale,
		},
		Reflection: reflection.DefaultConfig(),
		Planning:   planning.DefaultConfig(),
		Decision:   decision.DefaultConfig(),
	}
	ac.Reflection.ImportanceThreshold = c.ReflectionImportanceThreshold
	ac.Reflection.MinMemories = c.ReflectionMinMemories
	ac.Reflection.MinInterval = c.ReflectionMinInterval
	ac.Planning.ActionQuantum = c.ActionQuantum
	ac.Planning.CriticalThreshold = c.CriticalThreshold
	ac.Planning.DivergenceFactor = c.DivergenceFactor
	ac.Planning.OverrunFactor = c.OverrunFactor
	ac.Decision.MinInterval = c.DecisionMinInterval
	return ac
}
