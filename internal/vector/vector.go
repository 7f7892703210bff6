// Package vector provides the embedding client and vector search used by the
// search_documents tool.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"google.golang.org/genai"

	"github.com/ragstack/ragstack/pkg/llm/tools"
)

// Embedder embeds text with the Gemini embedding models on Vertex AI.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder creates an embedder using ambient project credentials, like the
// vertex chat adapter.
func NewEmbedder(ctx context.Context, project, location, model string) (*Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  model,
	}, nil
}

// Embed returns the embedding vector for one piece of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{genai.NewPartFromText(text)}},
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding api error: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding api returned no embeddings")
	}

	return resp.Embeddings[0].Values, nil
}

// IndexedChunk is a stored chunk together with its embedding.
type IndexedChunk struct {
	Chunk  tools.Chunk
	Vector []float32
}

// InMemorySearcher is a cosine-similarity searcher over per-agent chunk sets.
// Suitable for development and tests; production deployments point the
// search_documents tool at a real vector database instead.
type InMemorySearcher struct {
	mu     sync.RWMutex
	chunks map[string][]IndexedChunk
}

// NewInMemorySearcher creates an empty searcher.
func NewInMemorySearcher() *InMemorySearcher {
	return &InMemorySearcher{
		chunks: make(map[string][]IndexedChunk),
	}
}

// Index adds chunks to an agent's knowledge scope.
func (s *InMemorySearcher) Index(agentID string, chunks ...IndexedChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks[agentID] = append(s.chunks[agentID], chunks...)
}

// SearchSimilarChunks returns the agent's chunks ranked by cosine similarity
// to the query vector, highest first.
func (s *InMemorySearcher) SearchSimilarChunks(ctx context.Context, agentID string, vector []float32, limit int) ([]tools.Chunk, error) {
	s.mu.RLock()
	indexed := s.chunks[agentID]
	s.mu.RUnlock()

	scored := make([]tools.Chunk, 0, len(indexed))
	for _, ic := range indexed {
		chunk := ic.Chunk
		chunk.Score = cosineSimilarity(vector, ic.Vector)
		scored = append(scored, chunk)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}

	return scored, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
