// Package llm talks to OpenAI-compatible chat completion and speech endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
)

const (
	defaultAPIBase = "https://api.openai.com"
	// maxSpeechBytes bounds one synthesized audio response.
	maxSpeechBytes = 50 << 20
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "llm endpoint status " + http.StatusText(e.StatusCode) + ": " + e.Body
}

// Client wraps OpenAI-compatible API calls.
type Client struct {
	apiBase    string
	apiKey     string
	httpClient *http.Client
}

// ChatRequest describes one chat completion.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// SpeechRequest describes one text-to-speech synthesis.
type SpeechRequest struct {
	Model  string
	Voice  string
	Input  string
	Format string
}

// NewClient creates a client, apiBase defaults to the OpenAI endpoint.
func NewClient(apiBase, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = defaultAPIBase
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiBase:    strings.TrimRight(base, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
	}
}

// Complete sends a chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if c == nil {
		return "", errors.New("llm client is nil")
	}
	if c.apiKey == "" {
		return "", errors.New("missing api key")
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("missing model")
	}
	if strings.TrimSpace(req.User) == "" {
		return "", errors.New("missing input")
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	payload := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}

	resp, err := c.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(err, "decode chat completion")
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat completion has no choices")
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("chat completion content is empty")
	}

	return text, nil
}

// Speech synthesizes req.Input and returns the encoded audio.
func (c *Client) Speech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if c == nil {
		return nil, errors.New("llm client is nil")
	}
	if c.apiKey == "" {
		return nil, errors.New("missing api key")
	}
	if strings.TrimSpace(req.Input) == "" {
		return nil, errors.New("missing input")
	}
	if req.Format == "" {
		req.Format = "mp3"
	}

	resp, err := c.post(ctx, "/v1/audio/speech", map[string]any{
		"model":           req.Model,
		"voice":           req.Voice,
		"input":           req.Input,
		"response_format": req.Format,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxSpeechBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read speech")
	}
	if len(audio) > maxSpeechBytes {
		return nil, errors.New("speech response too large")
	}
	if len(audio) == 0 {
		return nil, errors.New("speech response is empty")
	}

	return audio, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", path)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, errors.WithStack(&StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		})
	}

	return resp, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
