package cmd

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/mockpix/mockpix/internal/config"
	"github.com/mockpix/mockpix/internal/gemini"
	"github.com/mockpix/mockpix/internal/ollama"
	"github.com/mockpix/mockpix/internal/openai"
	"github.com/mockpix/mockpix/internal/providers"
	"github.com/mockpix/mockpix/internal/sdwebui"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "mockpix",
		Short: "Mock data generator with AI-generated images for placeholder URLs",
		Long: `Mockpix generates synthetic JSON records from a sample structure and
replaces placeholder image URLs (picsum.photos and friends) with real
AI-generated images hosted on your own storage.

The image pipeline extracts every placeholder URL from a document, derives a
generation prompt from the surrounding fields, deduplicates similar images so
only one master per group is generated, and rewrites the document with the
new URLs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}

// textProvider resolves the configured text-generation backend.
func textProvider(cfg *config.Config) (providers.TextProvider, error) {
	switch cfg.Providers.Text {
	case "gemini":
		return gemini.New(), nil
	case "openai":
		return openai.New(), nil
	case "ollama":
		return ollama.New(), nil
	default:
		return nil, fmt.Errorf("unknown text provider: %s", cfg.Providers.Text)
	}
}

// imageProvider resolves the configured image-generation backend.
func imageProvider(cfg *config.Config) (providers.ImageProvider, error) {
	switch cfg.Providers.Image {
	case "openai":
		return openai.New(), nil
	case "sdwebui":
		return sdwebui.New(), nil
	default:
		return nil, fmt.Errorf("unknown image provider: %s", cfg.Providers.Image)
	}
}
