package translate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Laisky/multilingual-news/internal/library/metrics"
)

const (
	// DefaultChunkSize is the translation chunk limit in runes.
	DefaultChunkSize = 4500
	defaultFanout    = 4
)

// Config tunes a Translator.
type Config struct {
	// ChunkSize is the max runes sent to a provider per text chunk.
	ChunkSize int
	// RatePerSecond limits provider calls, zero means 5/s.
	RatePerSecond float64
	// Burst is the limiter bucket size, zero means 10.
	Burst int
	// Fanout bounds concurrently translated target languages.
	Fanout int
	// FailureThreshold opens the breaker after this many consecutive failures.
	FailureThreshold uint32
	// OpenTimeout is how long an open breaker rejects calls.
	OpenTimeout time.Duration
}

type guarded struct {
	Provider
	cb *gobreaker.CircuitBreaker[[]string]
}

// Translator runs providers in order, each behind its own circuit breaker,
// and falls back to the next provider when one fails.
type Translator struct {
	logger    glog.Logger
	providers []guarded
	limiter   *rate.Limiter
	chunkSize int
	fanout    int
}

// New creates a translator, providers are tried in the given order.
func New(logger glog.Logger, cfg Config, providers ...Provider) *Translator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Fanout <= 0 {
		cfg.Fanout = defaultFanout
	}

	t := &Translator{
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		chunkSize: cfg.ChunkSize,
		fanout:    cfg.Fanout,
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		t.providers = append(t.providers, guarded{
			Provider: p,
			cb:       newBreaker[[]string]("translate-"+p.Name(), cfg, logger),
		})
	}

	return t
}

func newBreaker[T any](name string, cfg Config, logger glog.Logger) *gobreaker.CircuitBreaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// the caller giving up says nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Enabled reports whether any provider is configured.
func (t *Translator) Enabled() bool {
	return t != nil && len(t.providers) != 0
}

// Translate translates every text from source to target.
// Blank texts are returned unchanged and long texts are chunked.
func (t *Translator) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if !t.Enabled() {
		return nil, errors.WithStack(ErrNotConfigured)
	}

	out := make([]string, len(texts))
	if source == target {
		copy(out, texts)
		return out, nil
	}

	// flatten chunks, remember where each text's chunks live
	var (
		chunks []string
		spans  = make([][2]int, len(texts))
	)
	for i, text := range texts {
		start := len(chunks)
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, Split(text, t.chunkSize)...)
		}
		spans[i] = [2]int{start, len(chunks)}
	}
	if len(chunks) == 0 {
		copy(out, texts)
		return out, nil
	}

	translated, err := t.call(ctx, chunks, source, target)
	if err != nil {
		return nil, err
	}

	for i, span := range spans {
		if span[0] == span[1] {
			out[i] = texts[i]
			continue
		}
		out[i] = strings.Join(translated[span[0]:span[1]], "")
	}

	return out, nil
}

func (t *Translator) call(ctx context.Context, chunks []string, source, target string) ([]string, error) {
	var lastErr error
	for _, p := range t.providers {
		if err := t.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, errors.WithStack(ctx.Err())
			}
			return nil, errors.Wrap(ErrRateLimited, err.Error())
		}

		result, err := p.cb.Execute(func() ([]string, error) {
			return p.Translate(ctx, chunks, source, target)
		})
		switch {
		case err == nil:
			metrics.TranslationCalls.WithLabelValues(p.Name(), "ok").Inc()
			return result, nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.TranslationCalls.WithLabelValues(p.Name(), "open").Inc()
			err = errors.Wrapf(ErrUpstream, "provider %s: %s", p.Name(), err.Error())
		case errors.Is(err, ErrRateLimited):
			metrics.TranslationCalls.WithLabelValues(p.Name(), "rate_limited").Inc()
		default:
			metrics.TranslationCalls.WithLabelValues(p.Name(), "error").Inc()
		}

		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}

		t.logger.Warn("translation provider failed",
			zap.String("provider", p.Name()),
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err))
		lastErr = err
	}

	return nil, lastErr
}

// Fields maps a field name to its text.
type Fields map[string]string

// TranslateFields translates fields into every target concurrently.
// The result maps field name to target language to text.
func (t *Translator) TranslateFields(ctx context.Context,
	fields Fields, source string, targets []string) (map[string]map[string]string, error) {
	if !t.Enabled() {
		return nil, errors.WithStack(ErrNotConfigured)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	texts := make([]string, len(names))
	for i, name := range names {
		texts[i] = fields[name]
	}

	result := make(map[string]map[string]string, len(names))
	for _, name := range names {
		result[name] = make(map[string]string, len(targets))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.fanout)
	for _, target := range targets {
		if target == source {
			continue
		}

		g.Go(func() error {
			translated, err := t.Translate(gctx, texts, source, target)
			if err != nil {
				return errors.Wrapf(err, "translate to %s", target)
			}

			mu.Lock()
			defer mu.Unlock()
			for i, name := range names {
				result[name][target] = translated[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
