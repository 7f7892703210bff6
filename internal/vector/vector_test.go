package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragstack/pkg/llm/tools"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestInMemorySearcher_RanksBySimilarity(t *testing.T) {
	searcher := NewInMemorySearcher()

	searcher.Index("agent-a",
		IndexedChunk{Chunk: tools.Chunk{Content: "far", DocumentID: "d1"}, Vector: []float32{0, 1}},
		IndexedChunk{Chunk: tools.Chunk{Content: "near", DocumentID: "d2"}, Vector: []float32{1, 0}},
		IndexedChunk{Chunk: tools.Chunk{Content: "middle", DocumentID: "d3"}, Vector: []float32{1, 1}},
	)

	chunks, err := searcher.SearchSimilarChunks(context.Background(), "agent-a", []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "near", chunks[0].Content)
	assert.Equal(t, "middle", chunks[1].Content)
	assert.Equal(t, "far", chunks[2].Content)

	assert.InDelta(t, 1.0, chunks[0].Score, 1e-9)
	assert.Greater(t, chunks[1].Score, chunks[2].Score)
}

func TestInMemorySearcher_Limit(t *testing.T) {
	searcher := NewInMemorySearcher()

	searcher.Index("agent-a",
		IndexedChunk{Chunk: tools.Chunk{Content: "a"}, Vector: []float32{1, 0}},
		IndexedChunk{Chunk: tools.Chunk{Content: "b"}, Vector: []float32{0.9, 0.1}},
		IndexedChunk{Chunk: tools.Chunk{Content: "c"}, Vector: []float32{0, 1}},
	)

	chunks, err := searcher.SearchSimilarChunks(context.Background(), "agent-a", []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestInMemorySearcher_ScopedToAgent(t *testing.T) {
	searcher := NewInMemorySearcher()

	searcher.Index("agent-a", IndexedChunk{Chunk: tools.Chunk{Content: "private"}, Vector: []float32{1, 0}})

	chunks, err := searcher.SearchSimilarChunks(context.Background(), "agent-b", []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
