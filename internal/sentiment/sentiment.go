package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	systemPrompt = "You are an AI trained to analyze sentiment from text. Your task is to read the following piece of text and determine if the overall sentiment is positive, negative, or neutral."
	followUp     = "Please provide your analysis on the sentiment of the above text."
)

// ErrNoResponse is returned when the API answers with no choices.
var ErrNoResponse = errors.New("no response from model")

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyzer classifies free text as positive, negative or neutral through an
// OpenAI-compatible chat completions endpoint.
type Analyzer struct {
	BaseURL    string
	APIKey     string
	Model      string
	Client     *http.Client
	MaxRetries int
	// Backoff is the first retry delay, doubled per attempt and capped at 8s.
	Backoff time.Duration
}

// NewAnalyzer creates an Analyzer. timeout applies per request.
func NewAnalyzer(baseURL, apiKey, model string, timeout time.Duration) *Analyzer {
	return &Analyzer{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: 2,
		Backoff:    800 * time.Millisecond,
	}
}

func (a *Analyzer) endpoint() string {
	u := strings.TrimRight(a.BaseURL, "/")
	if u == "" {
		u = "https://api.openai.com/v1"
	}
	u = strings.TrimSuffix(u, "/chat/completions")
	return u + "/chat/completions"
}

// Analyze returns the model's sentiment analysis of text. 429 and 5xx
// responses are retried up to MaxRetries times, honouring Retry-After.
func (a *Analyzer) Analyze(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
			{Role: "system", Content: followUp},
		},
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= a.MaxRetries; attempt++ {
		out, retryAfter, err := a.call(ctx, body)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if retryAfter < 0 || attempt == a.MaxRetries {
			break
		}
		wait := retryAfter
		if wait == 0 {
			wait = a.Backoff << attempt
			if wait > 8*time.Second {
				wait = 8 * time.Second
			}
		}
		log.Debugf("sentiment request failed (attempt %d): %v, retrying in %s", attempt+1, err, wait)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

// call performs one request. retryAfter is negative when the error is not
// retryable.
func (a *Analyzer) call(ctx context.Context, body []byte) (out string, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", -1, fmt.Errorf("sentiment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		var r chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return "", -1, fmt.Errorf("sentiment decode: %w", err)
		}
		if len(r.Choices) == 0 {
			return "", -1, ErrNoResponse
		}
		return strings.TrimSpace(r.Choices[0].Message.Content), 0, nil
	}

	var eresp errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&eresp)
	msg := strings.TrimSpace(eresp.Error.Message)
	if msg == "" {
		msg = resp.Status
	}
	err = fmt.Errorf("sentiment: status %d: %s", resp.StatusCode, msg)

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil {
			return "", time.Duration(secs) * time.Second, err
		}
		return "", 0, err
	}
	return "", -1, err
}

// AnalyzeOrEmpty logs any failure and returns an empty string instead.
func (a *Analyzer) AnalyzeOrEmpty(ctx context.Context, text string) string {
	out, err := a.Analyze(ctx, text)
	if err != nil {
		log.Errorf("Error in analyzing sentiment: %v", err)
		return ""
	}
	return out
}
