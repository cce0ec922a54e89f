// ABOUTME: Chat-completions client that estimates nutrition per 100 g for a food query.
// ABOUTME: Talks to any OpenAI compatible endpoint, OpenRouter by default.
package estimate

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

	"github.com/charmbracelet/log"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/models"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "stepfun/step-3.5-flash:free"
	DefaultReferer = "https://localhost:3000"
	DefaultTitle   = "Caltra"

	systemPrompt = `You are a nutrition assistant. Return a JSON object with calorie and protein estimates per 100g for the given food. Format: {"name": "Food Name", "caloriesPer100g": <number>, "proteinPer100g": <number>}. No markdown. No explanation.`
)

var (
	// ErrEmptyQuery is returned when the food description is blank.
	ErrEmptyQuery = errors.New("query is required")
	// ErrNoAPIKey is returned when no API key was configured.
	ErrNoAPIKey = errors.New("estimation API key not configured")
	// ErrEmptyResponse is returned when the model replies without content.
	ErrEmptyResponse = errors.New("empty response from model")
)

// UpstreamError carries a non-2xx reply from the model endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Referer    string
	Title      string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client estimates calories and protein for free-text food descriptions.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	referer string
	title   string
	http    *http.Client
	log     *log.Logger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		model:   strings.TrimSpace(opts.Model),
		referer: opts.Referer,
		title:   opts.Title,
		http:    opts.HTTPClient,
		log:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.referer == "" {
		c.referer = DefaultReferer
	}
	if c.title == "" {
		c.title = DefaultTitle
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	if c.log == nil {
		c.log = logging.Estimate()
	}
	return c
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Estimate asks the model for per-100 g nutrition of query.
func (c *Client) Estimate(ctx context.Context, query string) (*models.Estimate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("estimate reply", "model", c.model, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode/100 != 2 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	est, err := ParseEstimate(chat.Choices[0].Message.Content)
	if err != nil {
		c.log.Warn("unparseable estimate", "query", query, "err", err)
		return nil, err
	}
	if est.Name == "" {
		est.Name = query
	}
	return est, nil
}
