package results

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/passport-extractor/passport-extractor/internal/eval/metrics"
	"github.com/passport-extractor/passport-extractor/internal/passport"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	OCREngine   string  `yaml:"ocrengine"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxtokens"`
	DatasetPath string  `yaml:"datasetpath"`
	SampleSize  int     `yaml:"samplesize"`
	Timestamp   string  `yaml:"timestamp"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier       string             `yaml:"identifier"`
	Image            string             `yaml:"image"`
	ProviderResponse string             `yaml:"providerresponse,omitempty"`
	Error            string             `yaml:"error,omitempty"`
	Completeness     passport.Metrics   `yaml:"completeness"`
	Issues           []string           `yaml:"issues,omitempty"`
	OverallScore     float64            `yaml:"overallscore"`
	FieldsMatched    int                `yaml:"fieldsmatched"`
	FieldsMissing    int                `yaml:"fieldsmissing"`
	FieldsIncorrect  int                `yaml:"fieldsincorrect"`
	FieldScores      map[string]float64 `yaml:"fieldscores,omitempty"`
}

// EvalSpec represents the complete evaluation specification
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Results []EvalResult `yaml:"results"`
}

// NewEvalSpec builds the YAML document for a finished run
func NewEvalSpec(cfg EvalConfig, results []metrics.EvaluationResult) EvalSpec {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	spec := EvalSpec{
		Config:  cfg,
		Results: make([]EvalResult, 0, len(results)),
	}

	for _, r := range results {
		evalResult := EvalResult{
			Identifier:       r.SampleID,
			Image:            r.Image,
			ProviderResponse: r.GeneratedJSON,
			Error:            r.Error,
			Completeness:     r.Completeness,
		}
		for _, issue := range r.Issues {
			evalResult.Issues = append(evalResult.Issues, issue.String())
		}

		if r.Comparison != nil {
			evalResult.OverallScore = r.Comparison.OverallScore
			evalResult.FieldsMatched = r.Comparison.FieldsMatched
			evalResult.FieldsMissing = r.Comparison.FieldsMissing
			evalResult.FieldsIncorrect = r.Comparison.FieldsIncorrect

			evalResult.FieldScores = make(map[string]float64, len(r.Comparison.Fields))
			for name, match := range r.Comparison.Fields {
				evalResult.FieldScores[name] = match.Score
			}
		}

		spec.Results = append(spec.Results, evalResult)
	}

	return spec
}

// SaveToYAML writes the evaluation to <dir>/<model>-<timestamp>.yaml and
// returns the file path
func SaveToYAML(dir string, cfg EvalConfig, results []metrics.EvaluationResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	spec := NewEvalSpec(cfg, results)

	// model names like mistral-small3.2:24b carry path-hostile characters
	name := strings.NewReplacer("/", "_", ":", "_").Replace(spec.Config.Model)
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", name, spec.Config.Timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	slog.Info("Evaluation results saved", "path", filename, "results", len(spec.Results))
	return filename, nil
}

// LoadYAML reads a report written by SaveToYAML
func LoadYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return &spec, nil
}
