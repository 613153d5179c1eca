package passport

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `  {"a":1}  `, `{"a":1}`},
		{"single line", "```json{\"a\":1}```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"inner backticks kept", "```json\n{\"a\":\"``x``\"}\n```", "{\"a\":\"``x``\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCodeFences(tt.input)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseResponseFenced(t *testing.T) {
	rec, err := ParseResponse("```json\n{\"a\":1,\"b\":null}\n```")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rec.Fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(rec.Fields))
	}
	if rec.Fields[0].Key != "a" || string(rec.Fields[0].Value) != "1" {
		t.Errorf("Expected a=1, got %s=%s", rec.Fields[0].Key, rec.Fields[0].Value)
	}
	if rec.Fields[1].Key != "b" || !rec.Fields[1].IsNull() {
		t.Errorf("Expected b=null, got %s=%s", rec.Fields[1].Key, rec.Fields[1].Value)
	}
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"prose", "Sorry, I cannot read this passport."},
		{"trailing prose", `{"a":1} hope this helps`},
		{"truncated", `{"a":1,"b":`},
		{"array", `[1,2,3]`},
		{"string", `"hello"`},
		{"number", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.input)
			if !errors.Is(err, ErrSchemaParse) {
				t.Errorf("Expected ErrSchemaParse, got %v", err)
			}
		})
	}
}

func TestParseRecordDuplicateKeys(t *testing.T) {
	rec, err := ParseRecord(`{"a":1,"b":2,"a":3}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rec.Fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(rec.Fields))
	}
	if rec.Fields[0].Key != "a" || string(rec.Fields[0].Value) != "3" {
		t.Errorf("Expected first field a=3, got %s=%s", rec.Fields[0].Key, rec.Fields[0].Value)
	}
}

func passportJSON(nulls int) string {
	parts := make([]string, 0, len(Fields))
	for i, name := range Fields {
		if i < nulls {
			parts = append(parts, fmt.Sprintf("%q: null", name))
			continue
		}
		if name == "holder_signature_present" {
			parts = append(parts, fmt.Sprintf("%q: true", name))
			continue
		}
		parts = append(parts, fmt.Sprintf("%q: \"X\"", name))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Metrics
	}{
		{
			name:     "passport with five nulls",
			input:    passportJSON(5),
			expected: Metrics{TotalFields: 19, NullFields: 5, ExtractedFields: 14, AccuracyPercent: 73.68},
		},
		{
			name:     "all filled",
			input:    passportJSON(0),
			expected: Metrics{TotalFields: 19, NullFields: 0, ExtractedFields: 19, AccuracyPercent: 100},
		},
		{
			name:     "all null",
			input:    `{"a":null,"b":null}`,
			expected: Metrics{TotalFields: 2, NullFields: 2, ExtractedFields: 0, AccuracyPercent: 0},
		},
		{
			name:     "falsy values count as extracted",
			input:    `{"a":false,"b":"","c":0,"d":null}`,
			expected: Metrics{TotalFields: 4, NullFields: 1, ExtractedFields: 3, AccuracyPercent: 75},
		},
		{
			name:     "thirds round to two decimals",
			input:    `{"a":1,"b":null,"c":null}`,
			expected: Metrics{TotalFields: 3, NullFields: 2, ExtractedFields: 1, AccuracyPercent: 33.33},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			got, err := rec.Metrics()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
			if got.TotalFields != got.NullFields+got.ExtractedFields {
				t.Errorf("Expected total to equal null + extracted, got %+v", got)
			}
		})
	}
}

func TestMetricsEmptyRecord(t *testing.T) {
	rec, err := ParseRecord(`{}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := rec.Metrics(); !errors.Is(err, ErrEmptyRecord) {
		t.Errorf("Expected ErrEmptyRecord, got %v", err)
	}
}

func TestPrettyJSONKeepsOrder(t *testing.T) {
	rec, err := ParseRecord(`{"z":1,"a":{"y":2,"b":[1,2]},"m":null}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err := rec.PrettyJSON()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := "{\n  \"z\": 1,\n  \"a\": {\n    \"y\": 2,\n    \"b\": [\n      1,\n      2\n    ]\n  },\n  \"m\": null\n}"
	if got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestStringValue(t *testing.T) {
	rec, err := ParseRecord(`{"surname":"SHARMA","flag":true,"none":null}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := rec.StringValue("surname"); got != "SHARMA" {
		t.Errorf("Expected SHARMA, got %q", got)
	}
	if got := rec.StringValue("flag"); got != "true" {
		t.Errorf("Expected true, got %q", got)
	}
	if got := rec.StringValue("none"); got != "" {
		t.Errorf("Expected empty string for null, got %q", got)
	}
	if got := rec.StringValue("missing"); got != "" {
		t.Errorf("Expected empty string for missing key, got %q", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	ocrText := "REPUBLIC OF INDIA P<INDSHARMA<<RAHUL"
	first := BuildPrompt(ocrText)
	second := BuildPrompt(ocrText)
	if first != second {
		t.Error("Expected identical prompts for identical input")
	}
	for _, want := range []string{
		"Return ONLY valid JSON.",
		"Use MRZ as ground truth.",
		"Use null for missing fields.",
		"YYYY-MM-DD",
		schemaTemplate,
		`"""` + ocrText + `"""`,
	} {
		if !strings.Contains(first, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
	for _, name := range Fields {
		if !strings.Contains(schemaTemplate, `"`+name+`"`) {
			t.Errorf("Expected schema to contain field %q", name)
		}
	}
}
