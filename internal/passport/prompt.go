package passport

import "fmt"

// Fields lists the top-level keys the prompt asks the model to return, in order.
var Fields = []string{
	"country",
	"passport_type",
	"nationality",
	"passport_number",
	"surname",
	"given_names",
	"date_of_birth",
	"sex",
	"place_of_birth",
	"place_of_issue",
	"date_of_issue",
	"date_of_expiry",
	"father_name",
	"mother_name",
	"spouse_name",
	"address",
	"pin_code",
	"file_number",
	"holder_signature_present",
}

// schemaTemplate is embedded in the prompt verbatim. Values are hints for the
// model, not defaults.
const schemaTemplate = `{
  "country": "INDIA",
  "passport_type": "P",
  "nationality": "INDIAN",
  "passport_number": "Verify against MRZ",
  "surname": "From VIZ",
  "given_names": "From VIZ",
  "date_of_birth": "YYYY-MM-DD",
  "sex": "M/F",
  "place_of_birth": null,
  "place_of_issue": null,
  "date_of_issue": "YYYY-MM-DD",
  "date_of_expiry": "YYYY-MM-DD",
  "father_name": null,
  "mother_name": null,
  "spouse_name": null,
  "address": null,
  "pin_code": null,
  "file_number": null,
  "holder_signature_present": true/false
}`

// BuildPrompt returns the extraction prompt for ocrText. The output depends
// only on ocrText.
func BuildPrompt(ocrText string) string {
	return fmt.Sprintf(`
You are a specialized Indian Passport Data Extraction agent.

Return ONLY valid JSON.
Use MRZ as ground truth.
Use null for missing fields.
Format dates as YYYY-MM-DD.

JSON SCHEMA:
%s

OCR TEXT:
"""%s"""
`, schemaTemplate, ocrText)
}
