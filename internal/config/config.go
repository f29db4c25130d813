package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thefailures/jarvis/internal/logging"
)

// Config holds everything the session needs injected: collaborator
// credentials, persistence paths, and feature toggles.
type Config struct {
	StatePath    string `yaml:"state_path"`
	CohereAPIKey string `yaml:"cohere_api_key"`
	UserName     string `yaml:"user_name"`
	UserLocation string `yaml:"user_location"`

	EmbedModel     string        `yaml:"embed_model"`
	ChatModel      string        `yaml:"chat_model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Debug       bool   `yaml:"debug"`
	EntityTags  bool   `yaml:"entity_tags"`
	ArchivePath string `yaml:"archive_path"`
}

// Load builds configuration from .env, the environment, and an optional
// YAML file named by JARVIS_CONFIG. YAML values win over environment values
// so a config file can pin a full setup.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "no .env file, using environment variables")
	}

	cfg := &Config{
		StatePath:      envOr("STATE_PATH", "state"),
		CohereAPIKey:   os.Getenv("COHERE_API_KEY"),
		UserName:       envOr("USER_NAME", "User"),
		UserLocation:   os.Getenv("USER_LOCATION"),
		EmbedModel:     os.Getenv("EMBED_MODEL"),
		ChatModel:      os.Getenv("CHAT_MODEL"),
		RequestTimeout: 30 * time.Second,
		Debug:          os.Getenv("DEBUG_MODE") == "true",
		EntityTags:     os.Getenv("ENTITY_TAGS") == "true",
		ArchivePath:    os.Getenv("ARCHIVE_PATH"),
	}

	if path := os.Getenv("JARVIS_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if cfg.CohereAPIKey == "" {
		return nil, fmt.Errorf("COHERE_API_KEY not set")
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// StateFile returns the path of a store file inside the state directory
func (c *Config) StateFile(name string) string {
	return filepath.Join(c.StatePath, name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
