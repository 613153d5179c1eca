package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/passport-extractor/passport-extractor/internal/eval/results"
	"github.com/passport-extractor/passport-extractor/internal/passport"
)

func executeReport(path, format string, out io.Writer) error {
	spec, err := results.LoadYAML(path)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(spec, out)
	case "json":
		return printJSONReport(spec, out)
	case "csv":
		return printCSVReport(spec, out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(spec *results.EvalSpec, out io.Writer) error {
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "Passport Extraction Evaluation Report")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Provider:  %s\n", spec.Config.Provider)
	fmt.Fprintf(out, "Model:     %s\n", spec.Config.Model)
	fmt.Fprintf(out, "OCR:       %s\n", spec.Config.OCREngine)
	fmt.Fprintf(out, "Timestamp: %s\n", spec.Config.Timestamp)

	for i, result := range spec.Results {
		fmt.Fprintf(out, "\n[%d] Sample: %s\n", i+1, result.Identifier)

		if result.Error != "" {
			fmt.Fprintf(out, "  Error: %s\n", result.Error)
			continue
		}

		fmt.Fprintf(out, "  Overall Score: %.2f%%\n", result.OverallScore*100)
		fmt.Fprintf(out, "  Completeness:  %.2f%%\n", result.Completeness.AccuracyPercent)
		for _, issue := range result.Issues {
			fmt.Fprintf(out, "  Issue: %s\n", issue)
		}

		fmt.Fprintln(out, "  Field Scores:")
		var fields []string
		for field := range result.FieldScores {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(out, "    %s: %.2f%%\n", field, result.FieldScores[field]*100)
		}
	}

	return nil
}

func printJSONReport(spec *results.EvalSpec, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spec)
}

func printCSVReport(spec *results.EvalSpec, out io.Writer) error {
	writer := csv.NewWriter(out)

	header := []string{"ID", "Overall Score", "Completeness", "Issues", "Error"}
	for _, name := range passport.Fields {
		header = append(header, "Field_"+name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range spec.Results {
		row := []string{
			result.Identifier,
			fmt.Sprintf("%.4f", result.OverallScore),
			fmt.Sprintf("%.2f", result.Completeness.AccuracyPercent),
			fmt.Sprintf("%d", len(result.Issues)),
			result.Error,
		}
		for _, name := range passport.Fields {
			row = append(row, fmt.Sprintf("%.4f", result.FieldScores[name]))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
