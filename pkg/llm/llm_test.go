package llm

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type stubModel struct {
	out       string
	err       error
	available bool
	calls     int
}

func (s *stubModel) Generate(_ context.Context, _ string, _ Options) (string, error) {
	s.calls++
	return s.out, s.err
}

func (s *stubModel) Available() bool { return s.available }

func TestGenerateOrFallback(t *testing.T) {
	fallback := func() string { return "fallback" }

	tests := []struct {
		name      string
		model     LanguageModel
		want      string
		wantModel bool
	}{
		{name: "nil model", model: nil, want: "fallback", wantModel: false},
		{name: "unavailable", model: &stubModel{out: "x", available: false}, want: "fallback", wantModel: false},
		{name: "error", model: &stubModel{err: fmt.Errorf("boom"), available: true}, want: "fallback", wantModel: false},
		{name: "empty output", model: &stubModel{out: "", available: true}, want: "fallback", wantModel: false},
		{name: "success", model: &stubModel{out: "answer", available: true}, want: "answer", wantModel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fromModel := GenerateOrFallback(context.Background(), tt.model, "prompt", Options{}, fallback)
			if got != tt.want || fromModel != tt.wantModel {
				t.Errorf("GenerateOrFallback() = %q/%v, want %q/%v", got, fromModel, tt.want, tt.wantModel)
			}
		})
	}
}

func TestGenerateOrFallbackSkipsUnavailableModel(t *testing.T) {
	model := &stubModel{out: "x", available: false}
	GenerateOrFallback(context.Background(), model, "prompt", Options{}, func() string { return "" })
	if model.calls != 0 {
		t.Errorf("Generate called %d times on an unavailable model, want 0", model.calls)
	}
}

func TestLimitedPassesThrough(t *testing.T) {
	inner := &stubModel{out: "answer", available: true}
	limited := Limited(inner, 100, time.Second)

	got, err := limited.Generate(context.Background(), "prompt", Options{})
	if err != nil || got != "answer" {
		t.Errorf("Generate() = %q/%v, want answer/nil", got, err)
	}
	if !limited.Available() {
		t.Error("Limited should report the inner model's availability")
	}
}

func TestLimitedRespectsContextCancellation(t *testing.T) {
	inner := &stubModel{out: "answer", available: true}
	limited := Limited(inner, 0.001, time.Minute) // effectively no tokens after the first

	ctx := context.Background()
	if _, err := limited.Generate(ctx, "first", Options{}); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := limited.Generate(cancelled, "second", Options{}); err == nil {
		t.Error("expected an error once the context is cancelled and no tokens remain")
	}
}
