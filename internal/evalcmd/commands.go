package evalcmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command for batch evaluation against a labelled dataset
func NewRunCmd(setup Setup) *cobra.Command {
	var opts RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate extraction against a labelled passport dataset",
		Long: `Runs the full OCR and LLM pipeline over every image in a labelled dataset
and compares each extracted field with its label.

The dataset is a .jsonl or .parquet file with one sample per row: an "image"
path relative to the dataset file and one column per passport field.`,
		Example: `  # Evaluate the first 20 samples with the configured provider
  passport-extractor eval run --dataset ./passports.jsonl --sample 20

  # Evaluate everything, four images at a time
  passport-extractor eval run --dataset ./passports.parquet --sample 0 --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			if env.Close != nil {
				defer env.Close()
			}

			_, err = executeRun(cmd.Context(), env, opts, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "Path to .jsonl or .parquet dataset (required)")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", 10, "Number of samples to evaluate (0 for all)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 1, "Number of images processed at once")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "evals", "Directory for the YAML results file")
	cmd.Flags().StringVar(&opts.OutputJSON, "output-json", "", "Optional path for aggregate JSON results")
	cmd.Flags().StringVar(&opts.Report, "output-report", "", "Optional path for a detailed text report")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// NewReportCmd creates the report command for a saved YAML evaluation
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a saved evaluation",
		Example: `  passport-extractor eval report --results evals/gemini-2.5-flash-2025-01-02_03-04-05.yaml --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(resultsPath, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to a YAML file written by eval run (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")

	_ = cmd.MarkFlagRequired("results")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset samples and check their images",
		Example: `  # Inspect first 5 samples
  passport-extractor eval inspect --dataset ./passports.jsonl --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}
			return executeInspect(datasetPath, limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to .jsonl or .parquet dataset (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of samples to inspect (0 for all)")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
