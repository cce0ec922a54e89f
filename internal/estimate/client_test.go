// ABOUTME: Tests for the estimation client against a fake chat-completions server.
// ABOUTME: Verifies request shape, headers, and error mapping.
package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harperreed/caltra/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, content string, inspect func(*http.Request, chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status/100 != 2 {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Logger:  logging.Discard(),
	})
}

func TestEstimateSuccess(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "```json\n{\"name\":\"Chicken Breast\",\"caloriesPer100g\":165,\"proteinPer100g\":31}\n```",
		func(r *http.Request, req chatRequest) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, DefaultTitle, r.Header.Get("X-Title"))
			assert.Equal(t, DefaultReferer, r.Header.Get("HTTP-Referer"))
			assert.Equal(t, DefaultModel, req.Model)
			assert.Equal(t, 0.0, req.Temperature)
			if !assert.Len(t, req.Messages, 2) {
				return
			}
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, systemPrompt, req.Messages[0].Content)
			assert.Equal(t, "chicken breast", req.Messages[1].Content)
		})

	est, err := newTestClient(srv).Estimate(context.Background(), "  chicken breast ")
	require.NoError(t, err)
	assert.Equal(t, "Chicken Breast", est.Name)
	assert.Equal(t, 165.0, est.CaloriesPer100g)
	assert.Equal(t, 31.0, est.ProteinPer100g)
}

func TestEstimateFallsBackToQueryName(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"caloriesPer100g":52,"proteinPer100g":0.3}`, nil)

	est, err := newTestClient(srv).Estimate(context.Background(), "apple")
	require.NoError(t, err)
	assert.Equal(t, "apple", est.Name)
}

func TestEstimateMalformedReply(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "I think about 100 calories", nil)

	_, err := newTestClient(srv).Estimate(context.Background(), "soup")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestEstimateEmptyContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "   ", nil)

	_, err := newTestClient(srv).Estimate(context.Background(), "soup")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestEstimateUpstreamError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)

	_, err := newTestClient(srv).Estimate(context.Background(), "soup")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "expected UpstreamError, got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
}

func TestEstimateValidation(t *testing.T) {
	c := NewClient(Options{APIKey: "sk-test", Logger: logging.Discard()})
	_, err := c.Estimate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	noKey := NewClient(Options{Logger: logging.Discard()})
	_, err = noKey.Estimate(context.Background(), "apple")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Options{Model: " custom/model "})
	assert.Equal(t, "custom/model", c.Model())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.http)
}
