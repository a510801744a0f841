// Package embedding decorates the embedding provider with retries,
// logging and batch splitting.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/domain"
)

// Retry defaults. Transient provider failures are retried a bounded
// number of times with exponential backoff before surfacing
// domain.ErrModelUnavailable to the caller.
const (
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 200 * time.Millisecond
)

// retryInner is the inner contract: single and batch embedding.
type retryInner interface {
	domain.Embedder
	domain.BatchEmbedder
}

// RetryEmbedder retries transient embedding failures.
type RetryEmbedder struct {
	inner       retryInner
	maxAttempts int
	baseBackoff time.Duration
	logger      *zap.Logger
}

// NewRetryEmbedder creates a retrying decorator. Non-positive maxAttempts
// falls back to DefaultMaxAttempts.
func NewRetryEmbedder(inner retryInner, maxAttempts int, baseBackoff time.Duration, logger *zap.Logger) *RetryEmbedder {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseBackoff <= 0 {
		baseBackoff = DefaultBaseBackoff
	}
	return &RetryEmbedder{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		logger:      logger,
	}
}

// Embed delegates to the inner embedder, retrying transient failures.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult
	err := r.withRetry(ctx, "embed", func() error {
		var innerErr error
		result, innerErr = r.inner.Embed(ctx, text)
		return innerErr
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// BatchEmbed delegates to the inner embedder, retrying the whole batch on
// transient failures.
func (r *RetryEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var result domain.BatchEmbeddingResult
	err := r.withRetry(ctx, "batch embed", func() error {
		var innerErr error
		result, innerErr = r.inner.BatchEmbed(ctx, texts)
		return innerErr
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return result, nil
}

// withRetry runs fn up to maxAttempts times. Only provider-side failures
// are retried; validation errors and context cancellation return at once.
func (r *RetryEmbedder) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, domain.ErrModelUnavailable) {
			return lastErr
		}
		if attempt == r.maxAttempts {
			break
		}

		backoff := r.baseBackoff << (attempt - 1)
		r.logger.Warn("Embedding request failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s after %d attempts: %w", op, r.maxAttempts, lastErr)
}
