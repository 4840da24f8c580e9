// Package translate translates text and synthesizes speech through external providers.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/multilingual-news/internal/library/llm"
)

var (
	// ErrNotConfigured means no provider is set up for the operation.
	ErrNotConfigured = errors.New("translation provider not configured")
	// ErrRateLimited means the provider (or the local limiter) refused the call.
	ErrRateLimited = errors.New("translation provider rate limited")
	// ErrUpstream means the provider failed or its circuit is open.
	ErrUpstream = errors.New("translation provider failed")
)

// Provider translates a batch of texts from source to target.
type Provider interface {
	Name() string
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// APIProvider calls a Google Translate v2 compatible endpoint.
type APIProvider struct {
	apiBase    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIProvider creates the HTTP translation provider.
func NewAPIProvider(apiBase, apiKey string, timeout time.Duration) *APIProvider {
	if apiBase == "" {
		apiBase = "https://translation.googleapis.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &APIProvider{
		apiBase:    strings.TrimRight(apiBase, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *APIProvider) Name() string {
	return "api"
}

// Translate implements Provider.
func (p *APIProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	body, err := json.Marshal(map[string]any{
		"q":      texts,
		"source": source,
		"target": target,
		"format": "text",
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/language/translate/v2?key="+p.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUpstream, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	if err = statusError(resp.StatusCode, resp.Body); err != nil {
		return nil, err
	}

	var decoded struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(ErrUpstream, "decode response: "+err.Error())
	}
	if len(decoded.Data.Translations) != len(texts) {
		return nil, errors.Wrapf(ErrUpstream, "got %d translations for %d texts",
			len(decoded.Data.Translations), len(texts))
	}

	out := make([]string, len(texts))
	for i, tr := range decoded.Data.Translations {
		out[i] = keepEdgeSpace(texts[i], html.UnescapeString(tr.TranslatedText))
	}

	return out, nil
}

// LLMProvider translates with a chat completion model.
type LLMProvider struct {
	cli   *llm.Client
	model string
}

// NewLLMProvider creates the chat completion provider.
func NewLLMProvider(cli *llm.Client, model string) *LLMProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &LLMProvider{cli: cli, model: model}
}

// Name implements Provider.
func (p *LLMProvider) Name() string {
	return "llm"
}

const llmSystemPrompt = "You are a professional news translator. " +
	"Translate the user's text from %s to %s. Keep names, numbers, markdown and HTML tags unchanged. " +
	"Reply with the translation only."

// Translate implements Provider, one completion per text.
func (p *LLMProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}

		translated, err := p.cli.Complete(ctx, llm.ChatRequest{
			Model:  p.model,
			System: fmt.Sprintf(llmSystemPrompt, source, target),
			User:   text,
		})
		if err != nil {
			return nil, classify(err)
		}

		out[i] = keepEdgeSpace(text, translated)
	}

	return out, nil
}

// keepEdgeSpace restores the leading and trailing whitespace of src,
// chunk boundaries rely on it.
func keepEdgeSpace(src, translated string) string {
	if strings.TrimSpace(src) == "" {
		return src
	}
	lead := src[:len(src)-len(strings.TrimLeftFunc(src, isSpace))]
	trail := src[len(strings.TrimRightFunc(src, isSpace)):]
	return lead + strings.TrimSpace(translated) + trail
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func statusError(code int, body io.Reader) error {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	if code == http.StatusTooManyRequests {
		return errors.Wrap(ErrRateLimited, strings.TrimSpace(string(msg)))
	}

	return errors.Wrapf(ErrUpstream, "status %d: %s", code, strings.TrimSpace(string(msg)))
}

// classify maps llm client errors onto the package errors.
func classify(err error) error {
	var se *llm.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimited, se.Error())
		}
		return errors.Wrap(ErrUpstream, se.Error())
	}

	return errors.Wrap(ErrUpstream, err.Error())
}
