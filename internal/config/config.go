// Package config holds the runtime configuration for the pipeline. Stages
// never read the environment themselves; everything they need arrives
// through a Config built here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "1s" or "500ms" decode.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// PipelineConfig holds the knobs of the five processing stages.
type PipelineConfig struct {
	SimilarityThreshold       float64  `yaml:"similarity_threshold"`
	BatchSize                 int      `yaml:"batch_size"`
	BatchDelay                Duration `yaml:"batch_delay"`
	GenerationTimeout         Duration `yaml:"generation_timeout"`
	RequestsPerSecond         float64  `yaml:"requests_per_second"`
	MaxPromptLength           int      `yaml:"max_prompt_length"`
	Style                     string   `yaml:"style"`
	Locale                    string   `yaml:"locale"`
	PreferCDNURLs             bool     `yaml:"prefer_cdn_urls"`
	PreserveOriginalOnFailure bool     `yaml:"preserve_original_on_failure"`
	ValidateURLs              bool     `yaml:"validate_urls"`
	ValidationTimeout         Duration `yaml:"validation_timeout"`
	// ReplaceInPlace skips the deep copy and mutates the input document.
	ReplaceInPlace bool `yaml:"replace_in_place"`
}

// ProvidersConfig selects the text and image generation backends.
type ProvidersConfig struct {
	Text        string  `yaml:"text"`  // gemini, openai or ollama
	Image       string  `yaml:"image"` // openai or sdwebui
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// StorageConfig locates the image store.
type StorageConfig struct {
	Dir        string `yaml:"dir"`
	BaseURL    string `yaml:"base_url"`
	CDNBaseURL string `yaml:"cdn_base_url"`
}

// Config is the full runtime configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			SimilarityThreshold: 0.8,
			BatchSize:           3,
			BatchDelay:          Duration(time.Second),
			GenerationTimeout:   Duration(2 * time.Minute),
			MaxPromptLength:     400,
			Style:               "professional",
			Locale:              "en",
			ValidationTimeout:   Duration(5 * time.Second),
		},
		Providers: ProvidersConfig{
			Text:        "gemini",
			Image:       "sdwebui",
			Model:       "gemini-2.0-flash",
			Temperature: 0.7,
		},
		Storage: StorageConfig{
			Dir:     "images",
			BaseURL: "http://localhost:8080/images",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file if given,
// then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays MOCKPIX_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("MOCKPIX_TEXT_PROVIDER"); v != "" {
		c.Providers.Text = v
	}
	if v := os.Getenv("MOCKPIX_IMAGE_PROVIDER"); v != "" {
		c.Providers.Image = v
	}
	if v := os.Getenv("MOCKPIX_MODEL"); v != "" {
		c.Providers.Model = v
	}
	if v := os.Getenv("MOCKPIX_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("MOCKPIX_STORAGE_BASE_URL"); v != "" {
		c.Storage.BaseURL = v
	}
	if v := os.Getenv("MOCKPIX_STORAGE_CDN_URL"); v != "" {
		c.Storage.CDNBaseURL = v
	}
	if v := os.Getenv("MOCKPIX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.BatchSize = n
		}
	}
	if v := os.Getenv("MOCKPIX_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Pipeline.SimilarityThreshold = f
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pipeline.SimilarityThreshold < 0 || c.Pipeline.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0,1], got %v", c.Pipeline.SimilarityThreshold)
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.MaxPromptLength <= 0 {
		return fmt.Errorf("max_prompt_length must be positive, got %d", c.Pipeline.MaxPromptLength)
	}

	switch c.Providers.Text {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unknown text provider %q", c.Providers.Text)
	}
	switch c.Providers.Image {
	case "openai", "sdwebui":
	default:
		return fmt.Errorf("unknown image provider %q", c.Providers.Image)
	}

	if c.Storage.Dir == "" {
		return fmt.Errorf("storage dir must not be empty")
	}
	if c.Storage.BaseURL == "" {
		return fmt.Errorf("storage base_url must not be empty")
	}
	return nil
}
