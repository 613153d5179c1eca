package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"

	"github.com/passport-extractor/passport-extractor/internal/passport"
)

// PassportComparison is the field-by-field comparison of one extracted
// record against its labels
type PassportComparison struct {
	Fields          map[string]FieldMatch
	OverallScore    float64
	FieldsMatched   int
	FieldsMissing   int
	FieldsIncorrect int
}

// FieldMatch represents the comparison result for a single field
type FieldMatch struct {
	Expected string
	Actual   string
	Score    float64 // 0.0 to 1.0
	Method   string  // "exact", "fuzzy_high", "fuzzy_medium", "no_match", "both_missing", "actual_missing", "unexpected_value"
	Notes    string
}

// ComparePassport scores every schema field of rec against labels. Keys the
// model invented are ignored; keys it dropped count as missing.
func ComparePassport(labels map[string]string, rec *passport.Record) *PassportComparison {
	comparison := &PassportComparison{
		Fields: make(map[string]FieldMatch, len(passport.Fields)),
	}

	total := 0.0
	for _, name := range passport.Fields {
		match := compareField(labels[name], rec.StringValue(name))
		comparison.Fields[name] = match
		total += match.Score

		switch match.Method {
		case "exact", "both_missing", "fuzzy_high":
			comparison.FieldsMatched++
		case "actual_missing":
			comparison.FieldsMissing++
		default:
			comparison.FieldsIncorrect++
		}
	}
	comparison.OverallScore = total / float64(len(passport.Fields))

	return comparison
}

func compareField(expected, actual string) FieldMatch {
	match := FieldMatch{
		Expected: expected,
		Actual:   actual,
	}

	expNorm := normalizeForComparison(expected)
	actNorm := normalizeForComparison(actual)

	// a correctly null field is a correct answer
	if expNorm == "" && actNorm == "" {
		match.Score = 1.0
		match.Method = "both_missing"
		match.Notes = "Both fields are empty"
		return match
	}

	if expNorm == "" {
		match.Score = 0.0
		match.Method = "unexpected_value"
		match.Notes = "Model returned a value for a field absent from the document"
		return match
	}

	if actNorm == "" {
		match.Score = 0.0
		match.Method = "actual_missing"
		match.Notes = "Model returned null for this field"
		return match
	}

	if expNorm == actNorm {
		match.Score = 1.0
		match.Method = "exact"
		match.Notes = "Exact match"
		return match
	}

	similarity := strutil.Similarity(expNorm, actNorm, strmetrics.NewJaroWinkler())
	match.Score = similarity
	if similarity > 0.9 {
		match.Method = "fuzzy_high"
		match.Notes = fmt.Sprintf("High similarity (%.2f)", similarity)
	} else if similarity > 0.7 {
		match.Method = "fuzzy_medium"
		match.Notes = fmt.Sprintf("Medium similarity (%.2f)", similarity)
	} else {
		match.Method = "no_match"
		match.Notes = fmt.Sprintf("Low similarity (%.2f)", similarity)
	}

	return match
}

var punctuation = regexp.MustCompile(`[^\w\s]`)

// normalizeForComparison lowercases, drops punctuation and collapses whitespace
func normalizeForComparison(text string) string {
	text = strings.ToLower(text)
	text = punctuation.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
