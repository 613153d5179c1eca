//go:build !notesseract

package cmd

// Tesseract needs cgo and the tesseract/leptonica headers. Build with
// -tags notesseract for a pure Go binary that offers only Vision.
import _ "github.com/passport-extractor/passport-extractor/internal/ocr/tesseract"
