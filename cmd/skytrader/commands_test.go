package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"SkyTrader/internal/sentiment"
	"SkyTrader/internal/strategy"
)

func TestHeadlineSentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down/chat/completions" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 3) {
			assert.Equal(t, "AAPL beats earnings", req.Messages[1].Content)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Positive"}}]}`))
	}))
	defer srv.Close()

	ok := sentiment.NewAnalyzer(srv.URL, "k", "m", 5*time.Second)
	assert.Equal(t, "Positive", headlineSentiment(context.Background(), ok, []string{"AAPL", "beats", "earnings"}))

	down := sentiment.NewAnalyzer(srv.URL+"/down", "k", "m", 5*time.Second)
	assert.Equal(t, "", headlineSentiment(context.Background(), down, []string{"AAPL"}))
}

func TestSignalColumns(t *testing.T) {
	assert.Equal(t, []string{strategy.IndShortMA, strategy.IndLongMA, strategy.IndRSI}, signalColumns(strategy.KindTrend))
	assert.Contains(t, signalColumns(strategy.KindThreshold), strategy.IndMACDSignal)
	assert.Contains(t, signalColumns(strategy.KindCrossover), strategy.IndShortMA)
}
