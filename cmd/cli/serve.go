package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ragstack/ragstack/internal/auth"
	"github.com/ragstack/ragstack/internal/config"
	"github.com/ragstack/ragstack/internal/controllers"
	"github.com/ragstack/ragstack/internal/server"
	"github.com/ragstack/ragstack/internal/store"
	"github.com/ragstack/ragstack/internal/store/inmemory"
	"github.com/ragstack/ragstack/internal/store/mongodb"
	"github.com/ragstack/ragstack/internal/vector"
	"github.com/ragstack/ragstack/pkg/llm/router"
	"github.com/ragstack/ragstack/pkg/llm/tool"
	"github.com/ragstack/ragstack/pkg/llm/tools"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	registry := tool.NewRegistry()
	documentController := registerBuiltinTools(ctx, registry, cfg)

	chatRouter := router.New(registry,
		router.WithVertexProject(cfg.VertexProject, cfg.VertexLocation),
	)

	conversations, err := buildConversationStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect conversation store")
	}

	agents := inmemory.NewAgentStore(&store.Agent{
		ID:           "default",
		Name:         "Default Assistant",
		SystemPrompt: "You are a helpful assistant.",
		Provider:     cfg.DefaultProvider,
		ToolsEnabled: true,
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	chatController := controllers.NewChatController(controllers.ChatControllerDependencies{
		Router:            chatRouter,
		AgentStore:        agents,
		ConversationStore: conversations,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		AnthropicAPIKey:   cfg.AnthropicAPIKey,
	})

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		ChatController:     chatController,
		DocumentController: documentController,
		TokenVerifier:      auth.NewJWTVerifier(cfg.JWTSecret),
	})

	log.Info().Str("address", cfg.HTTPAddress).Msg("Starting chat API server")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Chat API server stopped")

	return nil
}

// registerBuiltinTools registers the built-in tools and, when document search
// is configured, returns the controller that feeds the search index.
func registerBuiltinTools(ctx context.Context, registry *tool.Registry, cfg *config.Config) *controllers.DocumentController {
	currentTime, err := tools.NewCurrentTimeTool()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build get_current_time tool")
	}
	registry.Register(currentTime)

	if cfg.VertexProject == "" {
		log.Warn().Msg("No Vertex project configured, document search disabled")
		return nil
	}

	embedder, err := vector.NewEmbedder(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.EmbeddingModel)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build embedder, document search disabled")
		return nil
	}

	// The search tool and the document ingestion endpoint share one index
	searcher := vector.NewInMemorySearcher()

	searchDocuments, err := tools.NewSearchDocumentsTool(embedder, searcher)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build search_documents tool")
	}
	registry.Register(searchDocuments)

	return controllers.NewDocumentController(controllers.DocumentControllerDependencies{
		Embedder: embedder,
		Indexer:  searcher,
	})
}

func buildConversationStore(ctx context.Context, cfg *config.Config) (store.ConversationStore, error) {
	if cfg.MongoURI == "" {
		log.Warn().Msg("No Mongo URI configured, conversations are kept in memory")
		return inmemory.NewConversationStore(), nil
	}

	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return mongodb.NewConversationStore(client.Database(cfg.MongoDatabase)), nil
}
