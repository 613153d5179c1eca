package passport

import (
	"fmt"
	"regexp"
)

// Issue is a schema deviation found in a parsed record. Issues are reported
// alongside the result and never change the metrics.
type Issue struct {
	Field   string `json:"field" yaml:"field"`
	Problem string `json:"problem" yaml:"problem"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Problem)
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var dateFields = map[string]bool{
	"date_of_birth":  true,
	"date_of_issue":  true,
	"date_of_expiry": true,
}

// Validate compares the record against Fields: missing keys, unexpected keys,
// wrong value types and dates not in YYYY-MM-DD form.
func (r *Record) Validate() []Issue {
	var issues []Issue

	expected := make(map[string]bool, len(Fields))
	for _, name := range Fields {
		expected[name] = true
		if _, ok := r.Lookup(name); !ok {
			issues = append(issues, Issue{Field: name, Problem: "missing"})
		}
	}

	for _, f := range r.Fields {
		if !expected[f.Key] {
			issues = append(issues, Issue{Field: f.Key, Problem: "unexpected field"})
			continue
		}
		if f.IsNull() {
			continue
		}

		kind := valueKind(f.Value)
		want := "string"
		if f.Key == "holder_signature_present" {
			want = "boolean"
		}
		if kind != want {
			issues = append(issues, Issue{Field: f.Key, Problem: fmt.Sprintf("expected %s or null, got %s", want, kind)})
			continue
		}

		if dateFields[f.Key] && !isoDate.MatchString(r.StringValue(f.Key)) {
			issues = append(issues, Issue{Field: f.Key, Problem: "date not in YYYY-MM-DD format"})
		}
	}

	return issues
}

func valueKind(raw []byte) string {
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	case '{':
		return "object"
	case '[':
		return "array"
	default:
		return "number"
	}
}
