package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mockpix/mockpix/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Convert a saved run report to another format",
		Long: `Convert the JSON run report written by 'mockpix process' into YAML, a
parquet file of URL mappings, or a human-readable text summary.`,
		Example: `  # Print a text summary
  mockpix report --input data.json.report.json

  # Export the URL mappings as parquet for analysis
  mockpix report --input data.json.report.json --format parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := report.LoadJSON(inputPath)
			if err != nil {
				return err
			}

			switch format {
			case "text":
				report.WriteSummary(os.Stdout, r)
				return nil
			case "yaml":
				if outputPath == "" {
					outputPath = replaceExt(inputPath, ".yaml")
				}
				if err := report.SaveYAML(r, outputPath); err != nil {
					return err
				}
			case "parquet":
				if outputPath == "" {
					outputPath = replaceExt(inputPath, ".parquet")
				}
				if err := report.SaveParquet(r, outputPath); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (supported: text, yaml, parquet)", format)
			}

			fmt.Printf("Report written to: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to the JSON run report (required)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Path to the converted file (default: derived from input)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, yaml or parquet")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i] + ext
	}
	return path + ext
}
