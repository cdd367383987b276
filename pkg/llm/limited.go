package llm

// limited.go wraps a LanguageModel with a rate limiter and per-request
// timeout. The cognitive loop has no cancellation for in-flight model calls,
// so the timeout here is the only bound on how long a stuck provider can
// delay a character's next decision.

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// limitedModel decorates a LanguageModel with rate limiting and a timeout.
type limitedModel struct {
	inner   LanguageModel
	limiter *rate.Limiter
	timeout time.Duration
}

// Limited wraps m so that requests are rate-limited to rps requests per
// second (burst 1) and each request is bounded by timeout. A zero timeout
// disables the per-request deadline.
func Limited(m LanguageModel, rps rate.Limit, timeout time.Duration) LanguageModel {
	return &limitedModel{
		inner:   m,
		limiter: rate.NewLimiter(rps, 1),
		timeout: timeout,
	}
}

func (l *limitedModel) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.inner.Generate(ctx, prompt, opts)
}

func (l *limitedModel) Available() bool { return l.inner.Available() }
