// Package llm defines the capability contracts the cognitive core consumes:
// a language model for text generation and an embedder for vector similarity.
// Both capabilities are optional; every call site pairs a model call with a
// deterministic fallback so the core keeps working when no provider is
// configured or a provider fails.
//
// Providers implement the interfaces here (see the gemini subpackage for a
// Google GenAI-backed one); the core never depends on a concrete provider.
package llm

import (
	"context"
	"errors"
)

// Options controls a single generation request.
type Options struct {
	// Temperature is the sampling temperature, typically 0-1.
	Temperature float64

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int

	// Stop optionally lists stop sequences that end generation early.
	Stop []string
}

// LanguageModel is the text-generation capability contract.
type LanguageModel interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Available reports whether the model is configured and usable.
	// Callers must check this before treating Generate errors as failures.
	Available() bool
}

// Embedder is the text-embedding capability contract.
type Embedder interface {
	// Embed converts a single text into a vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts into vectors in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Available reports whether the embedder is configured and usable.
	Available() bool
}

// ErrUnavailable is returned by providers that are not configured.
var ErrUnavailable = errors.New("llm: capability not configured")

// GenerateOrFallback runs the model if it is available and falls back to the
// deterministic producer on unavailability, error, or empty output. The
// second return value reports whether the model produced the result.
//
// This is the single dual-path adapter shared by planning, reflection, and
// decision-making; none of them branch on provider availability themselves.
func GenerateOrFallback(ctx context.Context, m LanguageModel, prompt string, opts Options, fallback func() string) (string, bool) {
	if m == nil || !m.Available() {
		return fallback(), false
	}
	out, err := m.Generate(ctx, prompt, opts)
	if err != nil || out == "" {
		return fallback(), false
	}
	return out, true
}
