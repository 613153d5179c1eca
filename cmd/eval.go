package cmd

import (
	"github.com/passport-extractor/passport-extractor/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Passport extraction evaluation tools",
		Long: `Evaluation tools for measuring field-level accuracy of the OCR and LLM
pipeline against labelled passport images.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd(evalSetup))
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())

	return cmd
}
