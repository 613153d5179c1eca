package cmd

// OCR engines register themselves on import.
import _ "github.com/passport-extractor/passport-extractor/internal/ocr/vision"
