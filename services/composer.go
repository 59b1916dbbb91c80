package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// FallbackMessage is sent when the model returns no text.
	FallbackMessage = "Just a friendly reminder :)"

	systemPrompt = "You are a friendly reminder bot."

	defaultComposeTimeout = 60 * time.Second
)

type OpenAIConfig struct {
	APIKey       string
	Organization string
	Project      string
	Model        string
	BaseURL      string
	Timeout      time.Duration
}

// OpenAIComposer writes reminder messages with the OpenAI chat completions API.
type OpenAIComposer struct {
	apiKey       string
	organization string
	project      string
	model        string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewOpenAIComposer(cfg OpenAIConfig, logger *slog.Logger) *OpenAIComposer {
	timeout := defaultComposeTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &OpenAIComposer{
		apiKey:       cfg.APIKey,
		organization: cfg.Organization,
		project:      cfg.Project,
		model:        cfg.Model,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// BuildPrompt renders the user prompt for one reminder.
func BuildPrompt(req MessageRequest) string {
	return fmt.Sprintf(
		"Write a friendly reminder message for %s about their event '%s' scheduled at %s. "+
			"Here's some more context about the event: '%s'. Use the voice of %s.",
		req.RecipientName, req.EventName, req.EventDateTime, req.Note, req.Voice)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *OpenAIComposer) Compose(ctx context.Context, req MessageRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}
	if c.project != "" {
		httpReq.Header.Set("OpenAI-Project", c.project)
	}

	c.logger.Debug("Requesting reminder text", "model", c.model, "event", req.EventName)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded chatResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if json.Unmarshal(respBody, &decoded) == nil && decoded.Error != nil {
			return "", fmt.Errorf("chat completion failed: status %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return "", fmt.Errorf("chat completion failed: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == nil {
		return FallbackMessage, nil
	}
	text := strings.TrimSpace(*decoded.Choices[0].Message.Content)
	if text == "" {
		return FallbackMessage, nil
	}
	return text, nil
}
