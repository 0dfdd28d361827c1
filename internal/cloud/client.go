// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeranaias/projectanalyst/internal/conversation"
	"github.com/jeranaias/projectanalyst/internal/session"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultModel lets OpenRouter pick a model.
	DefaultModel = "openrouter/auto"

	// DefaultMaxTokens caps the length of each reply.
	DefaultMaxTokens = 1000

	// DefaultAppName is sent as X-Title when the user has no display name.
	DefaultAppName = "Project Analyst AI"

	// DefaultSiteURL is sent as HTTP-Referer.
	DefaultSiteURL = "https://github.com/jeranaias/projectanalyst"

	// NoResponseText replaces an empty completion.
	NoResponseText = "No response received."

	// MaxResponseSize bounds how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// Version is reported in the User-Agent header.
var Version = "0.1.0"

const tracerName = "github.com/jeranaias/projectanalyst/internal/cloud"

// ModelAliases maps short names accepted in config to model identifiers.
var ModelAliases = map[string]string{
	"auto":   "openrouter/auto",
	"haiku":  "anthropic/claude-3-haiku",
	"sonnet": "anthropic/claude-3.5-sonnet",
	"gpt4o":  "openai/gpt-4o",
	"mini":   "openai/gpt-4o-mini",
}

// ResolveModel expands an alias; other names are returned trimmed.
func ResolveModel(name string) string {
	name = strings.TrimSpace(name)
	if full, ok := ModelAliases[strings.ToLower(name)]; ok {
		return full
	}
	if name == "" {
		return DefaultModel
	}
	return name
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is one message on the wire.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a chat completions request.
type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the body of a successful chat completions response.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *conversation.TokenUsage `json:"usage,omitempty"`
}

// GetContent returns the content of the first choice, or "" if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// ModelInfo describes a model offered by the endpoint.
type ModelInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ContextSize int     `json:"context_length"`
	Pricing     Pricing `json:"pricing"`
}

// Pricing is the per-token price of a model, as decimal strings.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// apiErrorResponse is the error envelope used by OpenAI-compatible APIs.
type apiErrorResponse struct {
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

func (r apiErrorResponse) code() string {
	if r.Error == nil || len(r.Error.Code) == 0 {
		return ""
	}
	return strings.Trim(string(r.Error.Code), `"`)
}

func (r apiErrorResponse) message() string {
	if r.Error == nil {
		return ""
	}
	return strings.TrimSpace(r.Error.Message)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to a chat completions endpoint. The endpoint and API key come
// from the session credentials passed to each call, so one Client serves any
// signed-in user.
type Client struct {
	httpClient *http.Client
	model      string
	maxTokens  int
	siteURL    string
	appName    string
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewClient returns a Client with default settings. Its transport is
// instrumented with otelhttp; spans are only exported when a tracer provider
// has been installed.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		siteURL:   DefaultSiteURL,
		appName:   DefaultAppName,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithTimeout sets a per-request timeout. Zero keeps the transport default.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithModel sets the model, expanding aliases.
func (c *Client) WithModel(model string) *Client {
	c.model = ResolveModel(model)
	return c
}

// WithMaxTokens sets the reply length cap.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithSite sets the HTTP-Referer URL and the fallback X-Title.
func (c *Client) WithSite(siteURL, appName string) *Client {
	if siteURL != "" {
		c.siteURL = siteURL
	}
	if appName != "" {
		c.appName = appName
	}
	return c
}

// WithLogger sets the logger. Keys and bodies are never logged.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger.With().Str("component", "cloud").Logger()
	return c
}

// WithTracerProvider sets the provider used for request spans.
func (c *Client) WithTracerProvider(tp trace.TracerProvider) *Client {
	if tp != nil {
		c.tracer = tp.Tracer(tracerName)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// MaxTokens returns the reply length cap.
func (c *Client) MaxTokens() int {
	return c.maxTokens
}

// Complete implements conversation.Gateway.
func (c *Client) Complete(ctx context.Context, creds session.Credentials, payload []conversation.Message) conversation.Result {
	resp, err := c.Chat(ctx, creds, payload)
	if err != nil {
		return conversation.Failed(err)
	}

	content := resp.GetContent()
	if strings.TrimSpace(content) == "" {
		content = NoResponseText
	}
	return conversation.Success(content, resp.Usage)
}

// Chat sends payload and returns the decoded response. Every error it
// returns is a *Failure.
func (c *Client) Chat(ctx context.Context, creds session.Credentials, payload []conversation.Message) (*ChatResponse, error) {
	creds = creds.Normalize()
	if creds.APIKey == "" {
		return nil, &Failure{Kind: KindProvider, Message: MsgNotConfigured}
	}
	if len(payload) == 0 || payload[len(payload)-1].Role != conversation.RoleUser {
		return nil, &Failure{Kind: KindProvider, Message: MsgInvalidPayload}
	}

	ctx, span := c.tracer.Start(ctx, "chat.completions",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", c.model),
			attribute.Int("llm.messages", len(payload)),
			attribute.Int("llm.max_tokens", c.maxTokens),
		))
	defer span.End()

	resp, err := c.doChat(ctx, creds, payload)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			span.SetAttributes(attribute.String("llm.failure", f.Kind.String()), attribute.Int("http.status", f.Status))
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp.Usage != nil {
		span.SetAttributes(
			attribute.Int("llm.usage.prompt_tokens", resp.Usage.PromptTokens),
			attribute.Int("llm.usage.completion_tokens", resp.Usage.CompletionTokens),
			attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens),
		)
	}
	return resp, nil
}

func (c *Client) doChat(ctx context.Context, creds session.Credentials, payload []conversation.Message) (*ChatResponse, error) {
	messages := make([]ChatMessage, len(payload))
	for i, m := range payload {
		messages[i] = ChatMessage{Role: m.Role.String(), Content: m.Content}
	}
	body, err := json.Marshal(ChatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Err: err}
	}

	requestURL := creds.EndpointURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Err: err}
	}
	c.setHeaders(req, creds)

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("model", c.model).
		Int("messages", len(payload)).
		Str("key", creds.KeyFingerprint()).
		Msg("api request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		c.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("api request failed")
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api response")

	data, err := readResponse(resp)
	if err != nil {
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		f := failureForStatus(resp.StatusCode, apiErr.code(), apiErr.message())
		c.logger.Warn().Str("failure", f.Detail()).Msg("api error response")
		return nil, f
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	// OpenRouter reports some upstream failures inside a 200 body.
	if len(chatResp.Choices) == 0 {
		var apiErr apiErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.message() != "" {
			return nil, &Failure{Kind: KindProvider, Message: apiErr.message(), Status: resp.StatusCode, Code: apiErr.code()}
		}
	}

	return &chatResp, nil
}

// setHeaders sets auth, content and the client-identifying header pair.
// X-Title is the user's display name, or the app name when it is blank.
func (c *Client) setHeaders(req *http.Request, creds session.Credentials) {
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "analyst/"+Version)

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	title := creds.DisplayName
	if title == "" {
		title = c.appName
	}
	if title != "" {
		req.Header.Set("X-Title", title)
	}
}

// readResponse reads at most MaxResponseSize bytes of the body.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// ListModels returns the models offered by endpoint. The models route does
// not require a key; one is sent when available.
func (c *Client) ListModels(ctx context.Context, creds session.Credentials) ([]ModelInfo, error) {
	creds = creds.Normalize()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, creds.EndpointURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "analyst/"+Version)
	if creds.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Err: err}
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, &Failure{Kind: KindProvider, Message: MsgConnectionFailed, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		return nil, failureForStatus(resp.StatusCode, apiErr.code(), apiErr.message())
	}

	var models modelsResponse
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}
	return models.Data, nil
}

var _ conversation.Gateway = (*Client)(nil)
