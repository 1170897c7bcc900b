package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AdapterOptions configures the embedding adapter.
type AdapterOptions struct {
	BaseURL    string
	Model      string
	Dim        int
	MaxChars   int
	BatchSize  int
	MaxRetries int
	BaseDelay  time.Duration
	// Pacing is the minimum interval between outbound requests to the
	// provider, enforced with golang.org/x/time/rate.
	Pacing time.Duration
}

func DefaultAdapterOptions() AdapterOptions {
	return AdapterOptions{
		Model:      "nomic-embed-text",
		Dim:        768,
		MaxChars:   8000,
		BatchSize:  16,
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Pacing:     50 * time.Millisecond,
	}
}

// Adapter implements Embedder over an Ollama-compatible HTTP embeddings
// endpoint, with retry/backoff and an optional cache layered on top.
type Adapter struct {
	opts    AdapterOptions
	client  *http.Client
	limiter *rate.Limiter
	cache   Cache
	logger  *zap.Logger
}

func NewAdapter(opts AdapterOptions, cache Cache, logger *zap.Logger) *Adapter {
	var limiter *rate.Limiter
	if opts.Pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Pacing), 1)
	}
	return &Adapter{
		opts:    opts,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		cache:   cache,
		logger:  logger,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed truncates, checks the cache, then calls the provider with retry.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	truncated := a.truncate(text)

	if a.cache != nil {
		if v, ok := a.cache.Get(ctx, truncated); ok {
			return v, nil
		}
	}

	vec, err := a.callWithRetry(ctx, truncated)
	if err != nil {
		return nil, err
	}
	if len(vec) != a.opts.Dim {
		return nil, &ErrDimMismatch{Want: a.opts.Dim, Got: len(vec)}
	}

	if a.cache != nil {
		a.cache.Set(ctx, truncated, vec)
	}
	return vec, nil
}

// EmbedBatch preserves per-chunk ordering while allowing the caller to
// submit many chunks in one logical call; internally it is sequential to
// keep the provider pacing honest.
func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += a.opts.BatchSize {
		end := i + a.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		for j := i; j < end; j++ {
			vec, err := a.Embed(ctx, texts[j])
			if err != nil {
				return nil, fmt.Errorf("embed batch item %d: %w", j, err)
			}
			out[j] = vec
		}
	}
	return out, nil
}

func (a *Adapter) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= a.opts.MaxChars {
		return text
	}
	if a.logger != nil {
		a.logger.Warn("truncating embedder input",
			zap.Int("original_chars", len(runes)),
			zap.Int("max_chars", a.opts.MaxChars))
	}
	return string(runes[:a.opts.MaxChars])
}

// callWithRetry retries transient failures with exponential backoff via
// cenkalti/backoff/v5, honouring ctx cancellation.
func (a *Adapter) callWithRetry(ctx context.Context, text string) ([]float32, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.opts.BaseDelay

	op := func() ([]float32, error) {
		vec, err := a.callOnce(ctx, text)
		if err != nil {
			if perm, ok := err.(*permanentError); ok {
				return nil, backoff.Permanent(perm.err)
			}
			return nil, err
		}
		return vec, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(a.opts.MaxRetries)))
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }

func (a *Adapter) callOnce(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{Model: a.opts.Model, Prompt: text})
	if err != nil {
		return nil, &permanentError{err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opts.BaseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, &permanentError{err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err // transient: network error
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embedder transient status %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &permanentError{fmt.Errorf("embedder permanent status %d: %s", resp.StatusCode, body)}
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &permanentError{err}
	}
	if len(out.Embedding) == 0 {
		return nil, &permanentError{fmt.Errorf("embedder returned empty vector")}
	}
	return out.Embedding, nil
}
