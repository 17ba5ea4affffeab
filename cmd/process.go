package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mockpix/mockpix/internal/config"
	"github.com/mockpix/mockpix/internal/pipeline"
	"github.com/mockpix/mockpix/internal/report"
	"github.com/mockpix/mockpix/internal/storage"
	"github.com/spf13/cobra"
)

func newProcessCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var reportPath string
	var configPath string
	var noBackup bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Replace placeholder image URLs in a JSON file with generated images",
		Long: `Run the five-stage image pipeline over a JSON document: extract
placeholder URLs, derive prompts from the surrounding fields, group similar
images, generate one master image per group, and rewrite the document with
the new URLs.

Without --output the input file is rewritten in place; a .backup copy of the
original is kept unless --no-backup is set.`,
		Example: `  # Rewrite data.json in place, keeping data.json.backup
  mockpix process --input data.json

  # Write to a separate file with a custom config
  mockpix process --input data.json --output processed.json --config mockpix.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			var doc any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("failed to parse input file: %w", err)
			}

			provider, err := imageProvider(cfg)
			if err != nil {
				return err
			}
			store := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL, cfg.Storage.CDNBaseURL)

			result, err := pipeline.New(cfg, provider, store).Process(cmd.Context(), doc)
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = inputPath
			}
			if outputPath == inputPath && !noBackup {
				if err := os.WriteFile(inputPath+".backup", raw, 0644); err != nil {
					return fmt.Errorf("failed to write backup file: %w", err)
				}
				slog.Info("Saved backup", "path", inputPath+".backup")
			}

			encoded, err := json.MarshalIndent(result.ProcessedData, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal processed document: %w", err)
			}
			if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			if reportPath == "" {
				reportPath = outputPath + ".report.json"
			}
			rep := report.FromResult(result)
			if err := report.SaveJSON(rep, reportPath); err != nil {
				return err
			}

			report.WriteSummary(os.Stdout, rep)
			fmt.Printf("\nReport saved to: %s\n", reportPath)

			if !result.Success {
				return fmt.Errorf("pipeline failed: %s", result.Errors[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to the JSON file to process (required)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Path to the output file (default: rewrite input)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Path to the run report (default: <output>.report.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a mockpix YAML config file")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the .backup copy when rewriting in place")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
