package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mockpix/mockpix/internal/config"
	"github.com/mockpix/mockpix/internal/mockdata"
	"github.com/mockpix/mockpix/internal/pipeline"
	"github.com/mockpix/mockpix/internal/report"
	"github.com/mockpix/mockpix/internal/storage"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var samplePath string
	var outputPath string
	var configPath string
	var count int
	var offline bool
	var process bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate mock JSON records from a sample structure",
		Long: `Generate synthetic records shaped like a sample JSON file.

By default the configured text provider writes the records; --offline skips
the provider and fills the structure with locally faked values instead.
With --process the generated records are fed straight into the image
pipeline, so their placeholder URLs come back as real hosted images.`,
		Example: `  # 10 records from sample.json via the configured LLM
  mockpix generate --sample sample.json --output records.json

  # 50 records without any network calls
  mockpix generate --sample sample.json --count 50 --offline

  # Generate and replace placeholder images in one go
  mockpix generate --sample sample.json --process`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(samplePath)
			if err != nil {
				return fmt.Errorf("failed to read sample file: %w", err)
			}
			var sample any
			if err := json.Unmarshal(raw, &sample); err != nil {
				return fmt.Errorf("failed to parse sample file: %w", err)
			}

			generator := mockdata.New(nil, cfg.Providers.Model, cfg.Providers.Temperature)
			if !offline {
				provider, err := textProvider(cfg)
				if err != nil {
					return err
				}
				generator = mockdata.New(provider, cfg.Providers.Model, cfg.Providers.Temperature)
			}

			records, err := generator.Generate(cmd.Context(), sample, count)
			if err != nil {
				return err
			}

			var output any = records
			if process {
				provider, err := imageProvider(cfg)
				if err != nil {
					return err
				}
				store := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL, cfg.Storage.CDNBaseURL)

				result, err := pipeline.New(cfg, provider, store).Process(cmd.Context(), records)
				if err != nil {
					return err
				}
				output = result.ProcessedData

				reportPath := outputPath + ".report.json"
				if err := report.SaveJSON(report.FromResult(result), reportPath); err != nil {
					return err
				}
				slog.Info("Saved run report", "path", reportPath)

				if !result.Success {
					slog.Warn("Image processing failed, records keep their placeholder URLs", "errors", result.Errors)
				}
			}

			encoded, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal records: %w", err)
			}
			if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			fmt.Printf("Wrote %d records to %s\n", len(records), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&samplePath, "sample", "", "Path to the sample JSON record (required)")
	cmd.Flags().StringVar(&outputPath, "output", "mock_data.json", "Path to the output JSON file")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a mockpix YAML config file")
	cmd.Flags().IntVar(&count, "count", 10, "Number of records to generate")
	cmd.Flags().BoolVar(&offline, "offline", false, "Generate locally without a text provider")
	cmd.Flags().BoolVar(&process, "process", false, "Run the image pipeline over the generated records")
	_ = cmd.MarkFlagRequired("sample")

	return cmd
}
