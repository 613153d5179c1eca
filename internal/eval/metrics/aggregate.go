package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/passport-extractor/passport-extractor/internal/passport"
)

// EvaluationResult represents the results for a single passport image
type EvaluationResult struct {
	SampleID       string
	Image          string
	GeneratedJSON  string
	Completeness   passport.Metrics
	Issues         []passport.Issue
	Comparison     *PassportComparison
	ProcessingTime time.Duration
	Error          string // If the pipeline failed
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int
	SuccessCount int
	FailureCount int

	// Field-level statistics, keyed by passport field
	FieldAccuracy map[string]*FieldStats

	// Overall label agreement, 0.0 to 1.0
	OverallAccuracy float64
	// Mean of the per-image completeness percentage
	AverageCompleteness float64
	// Responses with at least one schema deviation
	RecordsWithIssues int

	// Timing
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	// Detailed results
	Results []EvaluationResult

	// Metadata
	EvaluationDate time.Time
	Provider       string
	Model          string
	OCREngine      string
	SampleSize     int
}

// FieldStats contains statistics for a specific passport field
type FieldStats struct {
	ExactMatches    int
	FuzzyMatches    int
	NoMatches       int
	MissingFields   int
	CorrectNulls    int
	UnexpectedValue int
	AverageScore    float64
	Scores          []float64
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult, provider, model, ocrEngine string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		FieldAccuracy:  make(map[string]*FieldStats, len(passport.Fields)),
		Results:        results,
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
		OCREngine:      ocrEngine,
		SampleSize:     len(results),
	}
	for _, name := range passport.Fields {
		agg.FieldAccuracy[name] = &FieldStats{Scores: []float64{}}
	}

	totalOverallScore := 0.0
	totalCompleteness := 0.0
	var totalDuration time.Duration
	var successDuration time.Duration

	for _, result := range results {
		totalDuration += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime
		totalCompleteness += result.Completeness.AccuracyPercent
		if len(result.Issues) > 0 {
			agg.RecordsWithIssues++
		}

		if result.Comparison == nil {
			continue
		}

		for name, match := range result.Comparison.Fields {
			stats, ok := agg.FieldAccuracy[name]
			if !ok {
				stats = &FieldStats{Scores: []float64{}}
				agg.FieldAccuracy[name] = stats
			}
			aggregateFieldStats(stats, match)
		}

		totalOverallScore += result.Comparison.OverallScore
	}

	if agg.SuccessCount > 0 {
		for _, stats := range agg.FieldAccuracy {
			stats.AverageScore = calculateAverage(stats.Scores)
		}
		agg.OverallAccuracy = totalOverallScore / float64(agg.SuccessCount)
		agg.AverageCompleteness = totalCompleteness / float64(agg.SuccessCount)
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}

	agg.TotalProcessingTime = totalDuration

	return agg
}

// aggregateFieldStats updates field statistics
func aggregateFieldStats(stats *FieldStats, match FieldMatch) {
	stats.Scores = append(stats.Scores, match.Score)

	switch match.Method {
	case "exact":
		stats.ExactMatches++
	case "fuzzy_high", "fuzzy_medium":
		stats.FuzzyMatches++
	case "no_match":
		stats.NoMatches++
	case "actual_missing":
		stats.MissingFields++
	case "both_missing":
		stats.CorrectNulls++
	case "unexpected_value":
		stats.UnexpectedValue++
	}
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}

// PrintSummary writes a human-readable summary of the evaluation to w
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "PASSPORT EXTRACTION EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Provider: %s\n", a.Provider)
	fmt.Fprintf(w, "Model: %s\n", a.Model)
	fmt.Fprintf(w, "OCR Engine: %s\n", a.OCREngine)
	fmt.Fprintf(w, "Sample Size: %d records\n", a.SampleSize)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PROCESSING STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Records: %d\n", a.TotalRecords)
	fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", a.SuccessCount, percent(a.SuccessCount, a.TotalRecords))
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", a.FailureCount, percent(a.FailureCount, a.TotalRecords))
	fmt.Fprintf(w, "With Schema Issues: %d\n", a.RecordsWithIssues)
	fmt.Fprintf(w, "Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FIELD-LEVEL ACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, name := range passport.Fields {
		if stats, ok := a.FieldAccuracy[name]; ok {
			printFieldStats(w, name, stats)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL SCORE")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Overall Accuracy: %.2f%% (%.3f)\n", a.OverallAccuracy*100, a.OverallAccuracy)
	fmt.Fprintf(w, "Average Completeness: %.2f%%\n", a.AverageCompleteness)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// printFieldStats prints statistics for a single field
func printFieldStats(w io.Writer, fieldName string, stats *FieldStats) {
	fmt.Fprintf(w, "\n%s:\n", fieldName)
	fmt.Fprintf(w, "  Average Score: %.2f%% (%.3f)\n", stats.AverageScore*100, stats.AverageScore)
	fmt.Fprintf(w, "  Exact Matches: %d\n", stats.ExactMatches)
	fmt.Fprintf(w, "  Fuzzy Matches: %d\n", stats.FuzzyMatches)
	fmt.Fprintf(w, "  No Matches: %d\n", stats.NoMatches)
	fmt.Fprintf(w, "  Missing Fields: %d\n", stats.MissingFields)
	fmt.Fprintf(w, "  Correct Nulls: %d\n", stats.CorrectNulls)
	fmt.Fprintf(w, "  Unexpected Values: %d\n", stats.UnexpectedValue)
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}

// SaveDetailedReport saves a detailed report with individual results
func (a *AggregateResults) SaveDetailedReport(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "PASSPORT EXTRACTION DETAILED REPORT\n")
	fmt.Fprintf(file, "Generated: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Provider: %s, Model: %s, OCR: %s\n", a.Provider, a.Model, a.OCREngine)
	separator := strings.Repeat("=", 80)
	fmt.Fprintf(file, "%s\n\n", separator)

	dash := strings.Repeat("-", 80)
	for i, result := range a.Results {
		fmt.Fprintf(file, "RECORD %d: %s\n", i+1, result.SampleID)
		fmt.Fprintf(file, "%s\n", dash)
		fmt.Fprintf(file, "Image: %s\n", result.Image)
		fmt.Fprintf(file, "Processing Time: %s\n", result.ProcessingTime)

		if result.Error != "" {
			fmt.Fprintf(file, "ERROR: %s\n", result.Error)
		} else {
			fmt.Fprintf(file, "Completeness: %.2f%% (%d/%d fields)\n",
				result.Completeness.AccuracyPercent,
				result.Completeness.ExtractedFields,
				result.Completeness.TotalFields)
			for _, issue := range result.Issues {
				fmt.Fprintf(file, "Issue: %s\n", issue)
			}
			if result.Comparison != nil {
				fmt.Fprintf(file, "\nField Comparisons:\n")
				for _, name := range passport.Fields {
					match, ok := result.Comparison.Fields[name]
					if !ok {
						continue
					}
					fmt.Fprintf(file, "  %-25s %.2f (%s) - Expected: %s, Actual: %s\n",
						name+":", match.Score, match.Method, match.Expected, match.Actual)
				}
				fmt.Fprintf(file, "\nOverall Score: %.2f%%\n", result.Comparison.OverallScore*100)
			}
		}

		fmt.Fprintf(file, "\n%s\n\n", separator)
	}

	return nil
}
