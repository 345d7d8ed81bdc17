// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model.
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultOllamaTimeout bounds a single embedding request.
	DefaultOllamaTimeout = 30 * time.Second

	apiPathEmbeddings = "/api/embeddings"
)

// OllamaScorer embeds the query and each paper text with an Ollama model
// and scores papers by cosine similarity.
type OllamaScorer struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures an OllamaScorer.
type OllamaOption func(*OllamaScorer)

// WithBaseURL sets the Ollama endpoint. Empty keeps the default.
func WithBaseURL(url string) OllamaOption {
	return func(s *OllamaScorer) {
		if url != "" {
			s.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithModel sets the embedding model. Empty keeps the default.
func WithModel(model string) OllamaOption {
	return func(s *OllamaScorer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithTimeout sets the HTTP timeout per request.
func WithTimeout(timeout time.Duration) OllamaOption {
	return func(s *OllamaScorer) {
		s.client.Timeout = timeout
	}
}

// NewOllamaScorer returns a scorer with defaults applied before opts.
func NewOllamaScorer(opts ...OllamaOption) *OllamaScorer {
	s := &OllamaScorer{
		baseURL: DefaultOllamaURL,
		model:   DefaultOllamaModel,
		client:  &http.Client{Timeout: DefaultOllamaTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the embedding model name.
func (s *OllamaScorer) Model() string {
	return s.model
}

// Score implements Scorer.
func (s *OllamaScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	q, err := s.Embed(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "embedding query")
	}
	out := make([]float64, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, eris.Wrapf(err, "embedding paper %d", i)
		}
		out[i] = Cosine(q, v)
	}
	return out, nil
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (s *OllamaScorer) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: s.model, Prompt: text})
	if err != nil {
		return nil, eris.Wrap(err, "marshaling embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+apiPathEmbeddings, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "creating embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ollama request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("ollama returned %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "decoding embed response")
	}
	if len(out.Embedding) == 0 {
		return nil, eris.Errorf("ollama model %s returned an empty embedding", s.model)
	}
	return out.Embedding, nil
}

func formatErrorBody(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return "(empty body)"
	}
	return msg
}
