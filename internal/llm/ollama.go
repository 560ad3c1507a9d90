package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glimpse-app/glimpse/internal/retry"
	"github.com/glimpse-app/glimpse/pkg/models"
)

// OllamaClient talks to a local Ollama instance over HTTP and implements
// Completer via the non-streaming /api/generate endpoint.
type OllamaClient struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	retryPolicy *models.RetryPolicy
}

// NewOllamaClient creates a client for the given base URL and model.
// A nil retry policy falls back to the package defaults.
func NewOllamaClient(baseURL, model string, timeout time.Duration, policy *models.RetryPolicy) *OllamaClient {
	return &OllamaClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		httpClient:  &http.Client{Timeout: timeout},
		retryPolicy: policy,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// IsRunning returns true if the Ollama server responds to GET /api/tags.
func (c *OllamaClient) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Complete sends the prompt and returns the full generated text. Transient
// failures are retried per the configured policy.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	var result string

	op := func(ctx context.Context) error {
		body, err := json.Marshal(generateRequest{
			Model:  c.model,
			Prompt: prompt,
			Stream: false,
		})
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("requesting completion: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d from completion backend", resp.StatusCode)
		}

		var gen generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		result = gen.Response
		return nil
	}

	if err := retry.Do(ctx, "ollama_complete", c.retryPolicy, op); err != nil {
		return "", err
	}
	return result, nil
}
