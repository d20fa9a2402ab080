// Package openai provides a TagGenerator adapter using an
// OpenAI-compatible chat-completion API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zhangzqs/blog-tags-sync/internal/core/domain"
	"github.com/zhangzqs/blog-tags-sync/internal/core/ports/driven"
)

// Ensure TagService implements the interface.
var _ driven.TagGenerator = (*TagService)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTimeout     = 120 * time.Second
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 256
	DefaultLanguage    = "en"
)

// Config holds configuration for the tag generation service.
type Config struct {
	// APIKey is the bearer credential (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can point at any chat-completion-compatible endpoint.
	BaseURL string

	// Model is the model name (default: gpt-4o-mini).
	Model string

	// Timeout bounds each attempt (default: 120s). Expiry surfaces as
	// a retryable transport failure.
	Timeout time.Duration

	// Temperature for generation (default: 0.2).
	Temperature float64

	// MaxTokens bounds the response (default: 256).
	MaxTokens int

	// Language is the language tags should be written in (default: en).
	Language string

	// ExtraHeaders are sent verbatim with every request.
	ExtraHeaders map[string]string

	// RequestsPerMinute throttles generation calls. 0 disables.
	RequestsPerMinute int
}

// TagService proposes tags for markdown documents via one
// chat-completion round trip per attempt. Retry lives in the
// orchestrator.
type TagService struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
}

// NewHTTPClient builds the shared HTTP client for a run. It is
// constructed once and passed into NewTagService so every attempt
// reuses the same connection pool and proxy configuration.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy URL: %w", err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}
	return client, nil
}

// NewTagService creates the generation adapter. A missing API key is a
// fatal configuration error, surfaced before any document is
// processed. A nil client gets a default one.
func NewTagService(cfg Config, client *http.Client) (*TagService, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	s := &TagService{client: client, cfg: cfg}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), 1)
	}
	return s, nil
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = `You are a tagging assistant for a markdown blog.
You propose short, reusable topic tags for articles and always answer
with a single JSON array of tag strings, nothing else.`

const userPromptTemplate = `Propose tags for the following article. Reply with ONLY a JSON array of tag strings, written in %s. Prefer reusing the existing vocabulary below over inventing near-duplicates.

Tags already on the article: %s
Tags previously recorded for it: %s

Title: %s

%s`

// Generate sends one generation request for the document and parses
// the proposed tags out of the response. Transport and HTTP failures
// are attached to the result wrapping domain.ErrTransport; an
// unparsable response yields empty proposed tags, not an error.
func (s *TagService) Generate(ctx context.Context, doc domain.Document, historical []string) domain.GenerationResult {
	result := domain.GenerationResult{DocumentID: doc.ID}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			result.Err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
			return result
		}
	}

	prompt := fmt.Sprintf(userPromptTemplate,
		s.cfg.Language,
		formatTagList(doc.Tags),
		formatTagList(historical),
		doc.Title,
		doc.Content,
	)

	reqBody := chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		result.Err = fmt.Errorf("marshal request: %w", err)
		return result
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		result.Err = fmt.Errorf("create request: %w", err)
		return result
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Err = fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
		return result
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Err = fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
		return result
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		result.Err = fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
		return result
	}
	if chatResp.Error != nil {
		result.Err = fmt.Errorf("%w: api error: %s", domain.ErrTransport, chatResp.Error.Message)
		return result
	}
	if len(chatResp.Choices) == 0 {
		result.Err = fmt.Errorf("%w: no response choices returned", domain.ErrTransport)
		return result
	}

	result.Raw = chatResp.Choices[0].Message.Content
	result.Tags = extractJSONArray(result.Raw)
	return result
}

// setHeaders applies auth and the configured extra headers.
func (s *TagService) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	for k, v := range s.cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}
}

// formatTagList renders a tag list for the prompt.
func formatTagList(tags []string) string {
	if len(tags) == 0 {
		return "(none)"
	}
	return strings.Join(tags, ", ")
}

// extractJSONArray scans text for the first parsable JSON array
// literal and returns its string elements. Models often wrap the
// array in prose or code fences; everything around it is ignored.
// No array, or a malformed one, yields nil.
func extractJSONArray(text string) []string {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var arr []any
		if err := dec.Decode(&arr); err != nil {
			continue
		}
		tags := make([]string, 0, len(arr))
		for _, v := range arr {
			if s, ok := v.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

// Ping validates the endpoint is reachable by checking the /models
// endpoint. This validates the API key without running inference.
func (s *TagService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// ModelName returns the name of the model being used.
func (s *TagService) ModelName() string {
	return s.cfg.Model
}
