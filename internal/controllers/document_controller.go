package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ragstack/ragstack/internal/vector"
	"github.com/ragstack/ragstack/pkg/llm/tools"
)

// ChunkIndexer stores embedded chunks under an agent's knowledge scope.
type ChunkIndexer interface {
	Index(agentID string, chunks ...vector.IndexedChunk)
}

// DocumentController ingests documents into an agent's knowledge base so
// search_documents has content to search.
type DocumentController struct {
	embedder tools.Embedder
	indexer  ChunkIndexer
}

type DocumentControllerDependencies struct {
	Embedder tools.Embedder
	Indexer  ChunkIndexer
}

func NewDocumentController(deps DocumentControllerDependencies) *DocumentController {
	return &DocumentController{
		embedder: deps.Embedder,
		indexer:  deps.Indexer,
	}
}

type indexDocumentRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type indexDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// IndexDocument splits a document into chunks, embeds each chunk and stores
// them under the agent's scope.
func (c *DocumentController) IndexDocument(ctx fiber.Ctx) error {
	var req indexDocumentRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Content == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Content is required")
	}

	agentID := ctx.Params("agentID")
	documentID := uuid.New().String()

	pieces := splitChunks(req.Content)

	indexed := make([]vector.IndexedChunk, 0, len(pieces))
	for _, piece := range pieces {
		embedding, err := c.embedder.Embed(ctx.RequestCtx(), piece)
		if err != nil {
			log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to embed document chunk")
			return fiber.NewError(fiber.StatusBadGateway, "Embedding request failed")
		}

		indexed = append(indexed, vector.IndexedChunk{
			Chunk: tools.Chunk{
				Content:    piece,
				Filename:   req.Filename,
				DocumentID: documentID,
			},
			Vector: embedding,
		})
	}

	c.indexer.Index(agentID, indexed...)

	log.Info().Str("agent_id", agentID).Str("document_id", documentID).
		Int("chunks", len(indexed)).Msg("Indexed document")

	return ctx.Status(fiber.StatusCreated).JSON(indexDocumentResponse{
		DocumentID: documentID,
		Chunks:     len(indexed),
	})
}

// splitChunks splits a document on blank lines, dropping empty pieces.
func splitChunks(content string) []string {
	var chunks []string

	for _, piece := range strings.Split(content, "\n\n") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			chunks = append(chunks, piece)
		}
	}

	return chunks
}
