// Package tools provides the built-in tools registered at startup.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/ragstack/ragstack/pkg/llm/tool"
)

// Embedder turns text into an embedding vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds the document chunks most similar to a query vector within
// one agent's knowledge scope.
type Searcher interface {
	SearchSimilarChunks(ctx context.Context, agentID string, vector []float32, limit int) ([]Chunk, error)
}

// Chunk is one scored piece of an indexed document.
type Chunk struct {
	Content    string  `json:"content"`
	Filename   string  `json:"filename"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

const defaultSearchLimit = 5

// NewCurrentTimeTool builds the get_current_time tool. An invalid timezone
// falls back to UTC rather than failing the call.
func NewCurrentTimeTool() (*tool.Tool, error) {
	return tool.New(tool.Options{
		Name:        "get_current_time",
		Description: "Get the current date and time, optionally in a specific timezone",
		Parameters: []tool.Parameter{
			{
				Name: "timezone",
				ParameterSpec: tool.ParameterSpec{
					Type:        tool.TypeString,
					Description: "IANA timezone name, e.g. Europe/Istanbul",
					Default:     "UTC",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any, tc tool.Context) (any, error) {
			zone, _ := args["timezone"].(string)

			loc, err := time.LoadLocation(zone)
			if err != nil {
				loc = time.UTC
			}

			now := time.Now().In(loc)

			return map[string]any{
				"time":     now.Format(time.RFC3339),
				"timezone": loc.String(),
				"unix":     now.Unix(),
				"weekday":  now.Weekday().String(),
			}, nil
		},
	})
}

// NewSearchDocumentsTool builds the search_documents tool on top of an
// embedder and a vector searcher. Results are scoped to the calling agent's
// knowledge base.
func NewSearchDocumentsTool(embedder Embedder, searcher Searcher) (*tool.Tool, error) {
	return tool.New(tool.Options{
		Name:        "search_documents",
		Description: "Search the agent's knowledge base for document chunks relevant to a query",
		Parameters: []tool.Parameter{
			{
				Name: "query",
				ParameterSpec: tool.ParameterSpec{
					Type:        tool.TypeString,
					Description: "Natural-language search query",
					Required:    true,
				},
			},
			{
				Name: "limit",
				ParameterSpec: tool.ParameterSpec{
					Type:        tool.TypeNumber,
					Description: "Maximum number of chunks to return",
					Default:     float64(defaultSearchLimit),
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any, tc tool.Context) (any, error) {
			query, _ := args["query"].(string)

			limit := defaultSearchLimit
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}

			vector, err := embedder.Embed(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("failed to embed query: %w", err)
			}

			chunks, err := searcher.SearchSimilarChunks(ctx, tc.AgentID, vector, limit)
			if err != nil {
				return nil, fmt.Errorf("failed to search chunks: %w", err)
			}

			return map[string]any{
				"query":  query,
				"chunks": chunks,
			}, nil
		},
	})
}
