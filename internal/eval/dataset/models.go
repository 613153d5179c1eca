package dataset

import "github.com/passport-extractor/passport-extractor/internal/passport"

// Sample is one labelled passport image. Empty label strings and a nil
// HolderSignaturePresent mean the field is absent from the document.
type Sample struct {
	ID    string `json:"id" parquet:"id"`
	Image string `json:"image" parquet:"image"` // relative to the dataset file

	Country        string `json:"country" parquet:"country"`
	PassportType   string `json:"passport_type" parquet:"passport_type"`
	Nationality    string `json:"nationality" parquet:"nationality"`
	PassportNumber string `json:"passport_number" parquet:"passport_number"`
	Surname        string `json:"surname" parquet:"surname"`
	GivenNames     string `json:"given_names" parquet:"given_names"`
	DateOfBirth    string `json:"date_of_birth" parquet:"date_of_birth"`
	Sex            string `json:"sex" parquet:"sex"`
	PlaceOfBirth   string `json:"place_of_birth" parquet:"place_of_birth"`
	PlaceOfIssue   string `json:"place_of_issue" parquet:"place_of_issue"`
	DateOfIssue    string `json:"date_of_issue" parquet:"date_of_issue"`
	DateOfExpiry   string `json:"date_of_expiry" parquet:"date_of_expiry"`
	FatherName     string `json:"father_name" parquet:"father_name"`
	MotherName     string `json:"mother_name" parquet:"mother_name"`
	SpouseName     string `json:"spouse_name" parquet:"spouse_name"`
	Address        string `json:"address" parquet:"address"`
	PinCode        string `json:"pin_code" parquet:"pin_code"`
	FileNumber     string `json:"file_number" parquet:"file_number"`

	HolderSignaturePresent *bool `json:"holder_signature_present" parquet:"holder_signature_present,optional"`
}

// Labels returns the expected value for every passport field, keyed like the
// model output. Absent fields map to "".
func (s *Sample) Labels() map[string]string {
	labels := map[string]string{
		"country":         s.Country,
		"passport_type":   s.PassportType,
		"nationality":     s.Nationality,
		"passport_number": s.PassportNumber,
		"surname":         s.Surname,
		"given_names":     s.GivenNames,
		"date_of_birth":   s.DateOfBirth,
		"sex":             s.Sex,
		"place_of_birth":  s.PlaceOfBirth,
		"place_of_issue":  s.PlaceOfIssue,
		"date_of_issue":   s.DateOfIssue,
		"date_of_expiry":  s.DateOfExpiry,
		"father_name":     s.FatherName,
		"mother_name":     s.MotherName,
		"spouse_name":     s.SpouseName,
		"address":         s.Address,
		"pin_code":        s.PinCode,
		"file_number":     s.FileNumber,
	}
	switch {
	case s.HolderSignaturePresent == nil:
		labels["holder_signature_present"] = ""
	case *s.HolderSignaturePresent:
		labels["holder_signature_present"] = "true"
	default:
		labels["holder_signature_present"] = "false"
	}

	// keep in step with the prompt schema
	for _, name := range passport.Fields {
		if _, ok := labels[name]; !ok {
			labels[name] = ""
		}
	}
	return labels
}
