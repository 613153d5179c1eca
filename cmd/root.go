package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// flagEnv maps persistent flags onto the environment variables config reads
var flagEnv = map[string]string{
	"provider":   "LLM_PROVIDER",
	"model":      "LLM_MODEL",
	"ocr-engine": "OCR_ENGINE",
	"log-level":  "LOG_LEVEL",
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passport-extractor",
		Short: "Passport data extraction with OCR and LLM structuring",
		Long: `passport-extractor reads a passport image with OCR, asks an LLM to turn the
text into a fixed JSON schema and reports how many fields were filled in.

It can run as a small web app (serve), on a single file (extract), or over a
labelled dataset (eval).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			for flag, key := range flagEnv {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					_ = os.Setenv(key, f.Value.String())
				}
			}

			setupLogging(os.Getenv("LOG_LEVEL"))
		},
	}

	cmd.PersistentFlags().String("provider", "", "LLM provider (gemini, openai, ollama); overrides LLM_PROVIDER")
	cmd.PersistentFlags().String("model", "", "LLM model; overrides LLM_MODEL")
	cmd.PersistentFlags().String("ocr-engine", "", "OCR engine (tesseract, vision); overrides OCR_ENGINE")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}

func setupLogging(level string) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			slog.Warn("Ignoring invalid LOG_LEVEL", "value", level)
			lvl = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
