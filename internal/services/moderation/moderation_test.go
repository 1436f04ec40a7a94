package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		score    int
		toxic    bool
		category string
		matched  []string
	}{
		{"clean", "hello there", 0, false, CategoryClean, []string{}},
		{"one term", "buy SPAM now", 30, true, CategorySpam, []string{"spam"}},
		{"two terms", "this is toxic spam", 60, true, CategoryInsult, []string{"spam", "toxic"}},
		{"three terms", "insult hate spam", 90, true, CategoryHate, []string{"insult", "hate", "spam"}},
		{"capped", "insult hate spam toxic", 100, true, CategoryHate, []string{"insult", "hate", "spam", "toxic"}},
		{"repeats count once", "spam spam spam", 30, true, CategorySpam, []string{"spam"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Classify(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.toxic, res.Toxic)
			assert.Equal(t, tt.category, res.Category)
			assert.Equal(t, tt.matched, res.MatchedTerms)
		})
	}
}

func TestKeywordClassifierCustomTerms(t *testing.T) {
	c := NewKeywordClassifier(" Scam ", "scam", "")
	assert.Equal(t, []string{"scam"}, c.Terms())

	res, err := c.Classify(context.Background(), "total SCAM")
	require.NoError(t, err)
	assert.True(t, res.Toxic)
	assert.Equal(t, 30, res.Score)
}

func TestGateThresholds(t *testing.T) {
	gate := NewGate(NewKeywordClassifier(), DefaultConfig(), nopLogger{})
	ctx := context.Background()

	v, err := gate.ReviewChat(ctx, "this is toxic spam")
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, 60, v.Threshold)

	v, err = gate.ReviewChat(ctx, "just spam")
	require.NoError(t, err)
	assert.True(t, v.Allowed)

	// Comments tolerate more before blocking.
	v, err = gate.ReviewComment(ctx, "this is toxic spam")
	require.NoError(t, err)
	assert.True(t, v.Allowed)

	v, err = gate.ReviewComment(ctx, "insult hate spam")
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, 80, v.Threshold)
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (Result, error) {
	return Result{}, errors.New("unavailable")
}

func TestGatePropagatesClassifierError(t *testing.T) {
	gate := NewGate(failingClassifier{}, DefaultConfig(), nopLogger{})
	_, err := gate.ReviewChat(context.Background(), "hi")
	assert.Error(t, err)
}

func TestOpenAIClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moderations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "you are awful", body["input"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "modr-1",
			"model": "text-moderation-latest",
			"results": [{
				"flagged": true,
				"categories": {"harassment": true},
				"category_scores": {"harassment": 0.72, "hate": 0.10}
			}]
		}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	res, err := c.Classify(context.Background(), "you are awful")
	require.NoError(t, err)
	assert.True(t, res.Toxic)
	assert.Equal(t, 72, res.Score)
	assert.Equal(t, "harassment", res.Category)
	assert.Equal(t, []string{"harassment"}, res.MatchedTerms)
}

func TestOpenAIClassifierProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "hi")
	var modErr *ModerationError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, ErrTypeProvider, modErr.Type)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	assert.Error(t, cfg.Validate())

	cfg.OpenAI.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "magic"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ChatThreshold = 101
	assert.Error(t, cfg.Validate())
}

func TestNewClassifierSelectsProvider(t *testing.T) {
	c, err := NewClassifier(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &KeywordClassifier{}, c)

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.OpenAI.APIKey = "k"
	c, err = NewClassifier(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClassifier{}, c)
}

func TestOpenAIClassifierRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"modr-2","results":[{"flagged":false,"category_scores":{"hate":0.01}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{
		APIKey: "k", BaseURL: srv.URL + "/v1",
		MaxRetries: 2, RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	res, err := c.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.False(t, res.Toxic)
	assert.Equal(t, CategoryClean, res.Category)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClassifierDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{
		APIKey: "k", BaseURL: srv.URL + "/v1",
		MaxRetries: 3, RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "hello")
	var modErr *ModerationError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, ErrTypeProvider, modErr.Type)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetrierHonoursCallerDeadline(t *testing.T) {
	r := newRetrier(OpenAIConfig{MaxRetries: 5, RetryDelay: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.do(ctx, func(context.Context) error { return errors.New("connection refused") })
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
