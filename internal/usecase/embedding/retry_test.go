package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/domain"
)

func newTestRetry(t *testing.T, inner retryInner, attempts int) *RetryEmbedder {
	t.Helper()
	return NewRetryEmbedder(inner, attempts, time.Millisecond, zap.NewNop())
}

func TestRetryEmbed_SuccessFirstTry(t *testing.T) {
	inner := &mockEmbedder{}
	r := newTestRetry(t, inner, 3)

	res, err := r.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.embedCalls != 1 {
		t.Errorf("expected 1 call, got %d", inner.embedCalls)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("unexpected result: %v", res)
	}
}

func TestRetryEmbed_RetriesTransientFailure(t *testing.T) {
	inner := &mockEmbedder{}
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		if inner.embedCalls < 3 {
			return domain.EmbeddingResult{}, domain.ErrModelUnavailable
		}
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	}
	r := newTestRetry(t, inner, 3)

	if _, err := r.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("expected recovery on third attempt: %v", err)
	}
	if inner.embedCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.embedCalls)
	}
}

func TestRetryEmbed_ExhaustsAttempts(t *testing.T) {
	inner := &mockEmbedder{}
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrModelUnavailable
	}
	r := newTestRetry(t, inner, 3)

	_, err := r.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if inner.embedCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.embedCalls)
	}
}

func TestRetryEmbed_NonTransientErrorNotRetried(t *testing.T) {
	inner := &mockEmbedder{}
	wantErr := domain.ErrDimensionMismatch
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, wantErr
	}
	r := newTestRetry(t, inner, 3)

	_, err := r.Embed(context.Background(), "text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if inner.embedCalls != 1 {
		t.Errorf("non-transient error must not be retried, got %d calls", inner.embedCalls)
	}
}

func TestRetryEmbed_ContextCancelDuringBackoff(t *testing.T) {
	inner := &mockEmbedder{}
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrModelUnavailable
	}
	r := NewRetryEmbedder(inner, 5, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Embed(ctx, "text")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.embedCalls != 1 {
		t.Errorf("expected 1 attempt before cancel, got %d", inner.embedCalls)
	}
}

func TestRetryBatchEmbed_RetriesWholeBatch(t *testing.T) {
	inner := &mockEmbedder{}
	inner.batchEmbedFn = func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
		if inner.batchCalls == 1 {
			return domain.BatchEmbeddingResult{}, domain.ErrModelUnavailable
		}
		embeddings := make([][]float32, len(texts))
		for i := range texts {
			embeddings[i] = []float32{1}
		}
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}
	r := newTestRetry(t, inner, 3)

	res, err := r.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 2 {
		t.Errorf("expected 2 attempts, got %d", inner.batchCalls)
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(res.Embeddings))
	}
}

func TestNewRetryEmbedder_Defaults(t *testing.T) {
	r := NewRetryEmbedder(&mockEmbedder{}, 0, 0, zap.NewNop())
	if r.maxAttempts != DefaultMaxAttempts {
		t.Errorf("expected default attempts %d, got %d", DefaultMaxAttempts, r.maxAttempts)
	}
	if r.baseBackoff != DefaultBaseBackoff {
		t.Errorf("expected default backoff %s, got %s", DefaultBaseBackoff, r.baseBackoff)
	}
}
