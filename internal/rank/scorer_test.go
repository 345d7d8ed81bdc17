// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalScorer(t *testing.T) {
	scores, err := LexicalScorer{}.Score(context.Background(), "change detection", []string{
		"Deep Learning for Change Detection",
		"Protein folding with transformers",
		"",
	})
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Greater(t, scores[0], 0.5)
	assert.Equal(t, 0.0, scores[1])
	assert.Equal(t, 0.0, scores[2])
}

func TestLexicalScorerIdentical(t *testing.T) {
	scores, err := LexicalScorer{}.Score(context.Background(), "graph neural networks", []string{"Graph Neural Networks!"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[0], 1e-12)
}

func TestLexicalScorerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LexicalScorer{}.Score(ctx, "q", []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenizeDropsStopwords(t *testing.T) {
	assert.Equal(t, []string{"survey", "change", "detection"}, tokenize("A Survey of the Change-Detection"))
}

func TestNewOllamaScorerDefaults(t *testing.T) {
	s := NewOllamaScorer()
	assert.Equal(t, DefaultOllamaURL, s.baseURL)
	assert.Equal(t, DefaultOllamaModel, s.Model())
	assert.Equal(t, DefaultOllamaTimeout, s.client.Timeout)
}

func TestNewOllamaScorerOptions(t *testing.T) {
	s := NewOllamaScorer(WithBaseURL("http://gpu:11434/"), WithModel("mxbai"), WithTimeout(time.Second))
	assert.Equal(t, "http://gpu:11434", s.baseURL)
	assert.Equal(t, "mxbai", s.Model())
	assert.Equal(t, time.Second, s.client.Timeout)

	s = NewOllamaScorer(WithBaseURL(""), WithModel(""))
	assert.Equal(t, DefaultOllamaURL, s.baseURL)
	assert.Equal(t, DefaultOllamaModel, s.Model())
}

func TestOllamaScorerScore(t *testing.T) {
	vectors := map[string][]float64{
		"query": {1, 0},
		"near":  {0.9, 0.1},
		"far":   {0, 1},
	}
	var models []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPathEmbeddings, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		models = append(models, req.Model)
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: vectors[req.Prompt]})
	}))
	defer ts.Close()

	s := NewOllamaScorer(WithBaseURL(ts.URL), WithModel("test-model"))
	scores, err := s.Score(context.Background(), "query", []string{"near", "far"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], 0.9)
	assert.InDelta(t, 0.0, scores[1], 1e-12)
	assert.Equal(t, []string{"test-model", "test-model", "test-model"}, models)
}

func TestOllamaScorerHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer ts.Close()

	_, err := NewOllamaScorer(WithBaseURL(ts.URL)).Score(context.Background(), "q", []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaScorerEmptyEmbedding(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer ts.Close()

	_, err := NewOllamaScorer(WithBaseURL(ts.URL)).Embed(context.Background(), "q")
	assert.Error(t, err)
}

func TestFormatErrorBody(t *testing.T) {
	assert.Equal(t, "(empty body)", formatErrorBody(http.NoBody))
}
