package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the engine configuration loaded from config.toml. Credentials
// are read from the environment, not the file, so the file can be checked
// into dotfiles safely.
type Config struct {
	// DataDir is where the metadata database lives.
	DataDir string `toml:"data_dir"`

	// UserID scopes every operation of this installation.
	UserID string `toml:"user_id"`

	Embedding struct {
		// Model is the OpenAI text embedding model.
		Model string `toml:"model"`

		// ClipURL is the CLIP inference server base URL.
		ClipURL string `toml:"clip_url"`
	} `toml:"embedding"`

	Detector struct {
		// URL is the OWL-ViT inference server base URL.
		URL string `toml:"url"`

		// RequestsPerSec caps detector calls.
		RequestsPerSec float64 `toml:"requests_per_sec"`
	} `toml:"detector"`

	Pinecone struct {
		// TextHost, UploadedImagesHost and ExtractedImagesHost are the
		// per-index data plane hosts.
		TextHost            string `toml:"text_host"`
		UploadedImagesHost  string `toml:"uploaded_images_host"`
		ExtractedImagesHost string `toml:"extracted_images_host"`
	} `toml:"pinecone"`

	LLM struct {
		// Model is the generation model.
		Model string `toml:"model"`
	} `toml:"llm"`

	Tagging struct {
		// Workers bounds concurrent tagging jobs.
		Workers int `toml:"workers"`
	} `toml:"tagging"`
}

// DefaultConfigDir returns ~/.mural.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".mural"), nil
}

// LoadConfig reads config.toml from the given directory. A missing file
// yields the zero config rather than an error; every field has a usable
// default downstream.
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the configuration back to config.toml.
func SaveConfig(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, "config.toml"), data, 0600)
}
