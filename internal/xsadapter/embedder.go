package xsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms/ollama"
)

// EmbedFunc is the spec's caller-supplied embed(list<string>) -> list<vector>
// (§6). The Hydrator calls it once per batch of chunk content.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Embedder adapts sevigo/goframe's embeddings.Embedder to EmbedFunc, the
// same construction the teacher uses to build its Qdrant vector store's
// embedder (internal/wire/providers.go#provideEmbedder), minus the Gemini
// branch: the engine's embedding backend is out of scope (§1), so only the
// local Ollama path is kept here as the concrete realization.
type Embedder struct {
	inner embeddings.Embedder
}

// NewOllamaEmbedder builds an Embedder backed by a local Ollama server.
func NewOllamaEmbedder(serverURL, model string, logger *slog.Logger) (*Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		ollama.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("xsadapter: create ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("xsadapter: create embedder: %w", err)
	}
	return &Embedder{inner: embedder}, nil
}

// Embed implements EmbedFunc.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("xsadapter: embed documents: %w", err)
	}
	return vectors, nil
}
