package translate

import (
	"bytes"
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Laisky/multilingual-news/internal/library/llm"
	"github.com/Laisky/multilingual-news/internal/library/metrics"
)

// SpeechChunkSize is the TTS chunk limit in runes.
const SpeechChunkSize = 4000

// SpeechConfig tunes a Synthesizer.
type SpeechConfig struct {
	Model string
	// Voices picks a voice per language code, "*" is the fallback.
	Voices map[string]string
	Format string
	Config
}

// Synthesizer turns text into audio through an OpenAI-compatible speech endpoint.
type Synthesizer struct {
	cli     *llm.Client
	model   string
	voices  map[string]string
	format  string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewSynthesizer creates a synthesizer, it returns nil when cli is nil.
func NewSynthesizer(logger glog.Logger, cli *llm.Client, cfg SpeechConfig) *Synthesizer {
	if cli == nil {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}

	return &Synthesizer{
		cli:     cli,
		model:   cfg.Model,
		voices:  cfg.Voices,
		format:  cfg.Format,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cb:      newBreaker[[]byte]("tts", cfg.Config, logger),
	}
}

// Format returns the audio encoding, e.g. mp3.
func (s *Synthesizer) Format() string {
	return s.format
}

func (s *Synthesizer) voice(lang string) string {
	if v, ok := s.voices[lang]; ok {
		return v
	}
	if i := strings.IndexByte(lang, '-'); i > 0 {
		if v, ok := s.voices[lang[:i]]; ok {
			return v
		}
	}
	if v, ok := s.voices["*"]; ok {
		return v
	}
	return "alloy"
}

// Synthesize returns the audio of text, long text is synthesized per chunk
// and the encoded chunks are concatenated.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if s == nil {
		return nil, errors.WithStack(ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}

	var buf bytes.Buffer
	for _, chunk := range Split(text, SpeechChunkSize) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, errors.WithStack(ctx.Err())
			}
			return nil, errors.Wrap(ErrRateLimited, err.Error())
		}

		audio, err := s.cb.Execute(func() ([]byte, error) {
			return s.cli.Speech(ctx, llm.SpeechRequest{
				Model:  s.model,
				Voice:  s.voice(lang),
				Input:  chunk,
				Format: s.format,
			})
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				metrics.TranslationCalls.WithLabelValues("tts", "open").Inc()
				return nil, errors.Wrap(ErrUpstream, err.Error())
			}
			err = classify(err)
			if errors.Is(err, ErrRateLimited) {
				metrics.TranslationCalls.WithLabelValues("tts", "rate_limited").Inc()
			} else {
				metrics.TranslationCalls.WithLabelValues("tts", "error").Inc()
			}
			return nil, err
		}

		metrics.TranslationCalls.WithLabelValues("tts", "ok").Inc()
		buf.Write(audio)
	}

	return buf.Bytes(), nil
}
