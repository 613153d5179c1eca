package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/passport-extractor/passport-extractor/internal/passport"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract passport fields from a local image",
		Example: `  passport-extractor extract ./passport.jpg

  # Machine-readable output
  passport-extractor extract ./passport.jpg --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.pipeline.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ext := result.Extraction

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(struct {
					OCRText  string           `json:"ocr_text"`
					Passport json.RawMessage  `json:"passport"`
					Metrics  passport.Metrics `json:"metrics"`
					Issues   []passport.Issue `json:"issues,omitempty"`
				}{
					OCRText:  result.OCRText,
					Passport: rawOrNull(ext.Record.PrettyJSON()),
					Metrics:  ext.Metrics,
					Issues:   ext.Issues,
				})
			}

			pretty, err := ext.Record.PrettyJSON()
			if err != nil {
				return err
			}
			metrics, err := json.MarshalIndent(ext.Metrics, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "OCR TEXT:")
			fmt.Fprintln(out, result.OCRText)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "JSON:")
			fmt.Fprintln(out, pretty)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "METRICS:")
			fmt.Fprintln(out, string(metrics))
			for _, issue := range ext.Issues {
				fmt.Fprintf(out, "note: %s\n", issue)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a single JSON document")

	return cmd
}

func rawOrNull(s string, err error) json.RawMessage {
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}
