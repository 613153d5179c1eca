package metrics

import (
	"testing"

	"github.com/passport-extractor/passport-extractor/internal/passport"
)

func TestCompareField(t *testing.T) {
	tests := []struct {
		name           string
		expected       string
		actual         string
		expectedMethod string
		minScore       float64
		maxScore       float64
	}{
		{"exact match", "SHARMA", "SHARMA", "exact", 1.0, 1.0},
		{"case and punctuation", "Rahul Kumar", "RAHUL, KUMAR.", "exact", 1.0, 1.0},
		{"dates normalize", "1990-01-02", "1990/01/02", "exact", 1.0, 1.0},
		{"both missing", "", "", "both_missing", 1.0, 1.0},
		{"actual missing", "SHARMA", "", "actual_missing", 0.0, 0.0},
		{"unexpected value", "", "SHARMA", "unexpected_value", 0.0, 0.0},
		{"one letter off", "SHARMA", "SHARNA", "fuzzy_high", 0.9, 1.0},
		{"unrelated", "SHARMA", "Z1234567", "no_match", 0.0, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := compareField(tt.expected, tt.actual)
			if result.Method != tt.expectedMethod {
				t.Errorf("Expected method %s, got %s (score %.3f)", tt.expectedMethod, result.Method, result.Score)
			}
			if result.Score < tt.minScore || result.Score > tt.maxScore {
				t.Errorf("Expected score between %.2f and %.2f, got %.3f", tt.minScore, tt.maxScore, result.Score)
			}
		})
	}
}

func TestNormalizeForComparison(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  P<INDSHARMA  ", "pindsharma"},
		{"NEW   DELHI", "new delhi"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeForComparison(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestComparePassport(t *testing.T) {
	rec, err := passport.ParseRecord(`{"surname":"SHARMA","given_names":"RAHUL","sex":"F","address":null,"invented":"x"}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	labels := map[string]string{
		"surname":         "SHARMA",
		"given_names":     "RAHUL",
		"sex":             "M",
		"passport_number": "A1234567",
	}

	comparison := ComparePassport(labels, rec)

	if len(comparison.Fields) != len(passport.Fields) {
		t.Errorf("Expected %d compared fields, got %d", len(passport.Fields), len(comparison.Fields))
	}
	if _, ok := comparison.Fields["invented"]; ok {
		t.Error("Expected keys outside the schema to be ignored")
	}
	if comparison.Fields["passport_number"].Method != "actual_missing" {
		t.Errorf("Expected passport_number actual_missing, got %s", comparison.Fields["passport_number"].Method)
	}
	if comparison.Fields["sex"].Method != "no_match" {
		t.Errorf("Expected sex no_match, got %s", comparison.Fields["sex"].Method)
	}
	// surname, given_names and 15 empty-on-both fields
	if comparison.FieldsMatched != 17 {
		t.Errorf("Expected 17 matched fields, got %d", comparison.FieldsMatched)
	}
	if comparison.FieldsMissing != 1 || comparison.FieldsIncorrect != 1 {
		t.Errorf("Expected 1 missing and 1 incorrect, got %d and %d", comparison.FieldsMissing, comparison.FieldsIncorrect)
	}
	expected := 17.0 / 19.0
	if comparison.OverallScore < expected-0.0001 || comparison.OverallScore > expected+0.0001 {
		t.Errorf("Expected overall score %.4f, got %.4f", expected, comparison.OverallScore)
	}
}
