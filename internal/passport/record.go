package passport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSchemaParse is returned when a model response is not a JSON object
	ErrSchemaParse = errors.New("failed to parse passport JSON")
	// ErrEmptyRecord is returned when metrics are requested for an object with no keys
	ErrEmptyRecord = errors.New("passport JSON has no fields")
)

// Field is one top-level key of the parsed response with its raw JSON value.
type Field struct {
	Key   string
	Value json.RawMessage
}

// IsNull reports whether the value is JSON null
func (f Field) IsNull() bool {
	return bytes.Equal(bytes.TrimSpace(f.Value), []byte("null"))
}

// Record is the JSON object returned by the model, in the order the keys
// appeared. Duplicate keys keep their first position and their last value.
type Record struct {
	Fields []Field
}

// Metrics summarizes how many fields the model managed to fill in
type Metrics struct {
	TotalFields     int     `json:"total_fields" yaml:"total_fields"`
	NullFields      int     `json:"null_fields" yaml:"null_fields"`
	ExtractedFields int     `json:"extracted_fields" yaml:"extracted_fields"`
	AccuracyPercent float64 `json:"accuracy_percent" yaml:"accuracy_percent"`
}

// ParseResponse strips code fences from a model response and parses it.
func ParseResponse(raw string) (*Record, error) {
	return ParseRecord(StripCodeFences(raw))
}

// ParseRecord parses s as a single top-level JSON object.
func ParseRecord(s string) (*Record, error) {
	data := []byte(s)
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, fmt.Errorf("%w: %w", ErrSchemaParse, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaParse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrSchemaParse)
	}

	rec := &Record{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchemaParse, err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrSchemaParse, key, err)
		}

		if i, ok := index[key]; ok {
			rec.Fields[i].Value = value
			continue
		}
		index[key] = len(rec.Fields)
		rec.Fields = append(rec.Fields, Field{Key: key, Value: value})
	}

	return rec, nil
}

// Lookup returns the field named key
func (r *Record) Lookup(key string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// StringValue returns the value of key as plain text: strings unquoted,
// other scalars as written, null or missing as "".
func (r *Record) StringValue(key string) string {
	f, ok := r.Lookup(key)
	if !ok || f.IsNull() {
		return ""
	}
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}
	return string(f.Value)
}

// Metrics computes completeness over the keys actually returned, whether or
// not they match Fields.
func (r *Record) Metrics() (Metrics, error) {
	total := len(r.Fields)
	if total == 0 {
		return Metrics{}, ErrEmptyRecord
	}

	nulls := 0
	for _, f := range r.Fields {
		if f.IsNull() {
			nulls++
		}
	}
	extracted := total - nulls

	return Metrics{
		TotalFields:     total,
		NullFields:      nulls,
		ExtractedFields: extracted,
		AccuracyPercent: round2(100 * float64(extracted) / float64(total)),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PrettyJSON renders the record with two-space indentation in key order
func (r *Record) PrettyJSON() (string, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return "", fmt.Errorf("failed to encode key %q: %w", f.Key, err)
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(f.Value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", fmt.Errorf("failed to indent passport JSON: %w", err)
	}
	return out.String(), nil
}
