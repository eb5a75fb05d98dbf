package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePrompt(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Positive.  "}}]}`))
	}))
	defer srv.Close()

	a := NewAnalyzer(srv.URL+"/v1/", "sk-test", "gpt-3.5-turbo", 5*time.Second)
	out, err := a.Analyze(context.Background(), "AAPL beats earnings")
	require.NoError(t, err)
	assert.Equal(t, "Positive.", out)

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, message{Role: "user", Content: "AAPL beats earnings"}, got.Messages[1])
	assert.Equal(t, "system", got.Messages[2].Role)
}

func TestAnalyzeRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Neutral"}}]}`))
	}))
	defer srv.Close()

	a := NewAnalyzer(srv.URL, "", "m", 5*time.Second)
	a.Backoff = time.Millisecond
	out, err := a.Analyze(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Neutral", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnalyzeFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/bad/chat/completions":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
		default:
			w.Write([]byte(`{"choices":[]}`))
		}
	}))
	defer srv.Close()

	a := NewAnalyzer(srv.URL+"/bad", "", "m", 5*time.Second)
	_, err := a.Analyze(context.Background(), "x")
	assert.ErrorContains(t, err, "invalid api key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "401 is not retried")
	assert.Equal(t, "", a.AnalyzeOrEmpty(context.Background(), "x"))

	a = NewAnalyzer(srv.URL+"/empty", "", "m", 5*time.Second)
	_, err = a.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoResponse)
}
