// Package config loads service configuration from files and the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all API service configuration
type Config struct {
	HTTPAddress string

	// Default provider used when an agent config leaves the provider unset
	DefaultProvider string

	// BYOK fallback credentials; agents may carry their own keys
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Vertex ambient project identity
	VertexProject  string
	VertexLocation string

	// Embedding model used by the search_documents tool
	EmbeddingModel string

	MongoURI      string
	MongoDatabase string

	JWTSecret string
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":     "HTTP_ADDRESS",
		"DefaultProvider": "DEFAULT_PROVIDER",
		"OpenAIAPIKey":    "OPENAI_API_KEY",
		"AnthropicAPIKey": "ANTHROPIC_API_KEY",
		"VertexProject":   "GOOGLE_CLOUD_PROJECT",
		"VertexLocation":  "GOOGLE_CLOUD_LOCATION",
		"EmbeddingModel":  "EMBEDDING_MODEL",
		"MongoURI":        "MONGO_URI",
		"MongoDatabase":   "MONGO_DATABASE",
		"JWTSecret":       "JWT_SECRET",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("ragstack_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.ragstack")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("DefaultProvider", "vertex")
	v.SetDefault("VertexLocation", "us-central1")
	v.SetDefault("EmbeddingModel", "text-embedding-004")
	v.SetDefault("MongoDatabase", "ragstack")
}
