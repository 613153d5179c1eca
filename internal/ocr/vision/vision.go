package vision

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/passport-extractor/passport-extractor/internal/images"
	"github.com/passport-extractor/passport-extractor/internal/ocr"
	"google.golang.org/api/option"
)

func init() {
	ocr.Register("vision", func(ctx context.Context, s ocr.Settings) (ocr.Engine, error) {
		return New(ctx, s.CredentialsFile, LanguageHints(s.Language)...)
	})
}

// LanguageHints turns a language list such as "en+hi" into Vision hints
func LanguageHints(lang string) []string {
	return ocr.SplitLanguages(lang)
}

// Engine implements ocr.Engine with Google Cloud Vision document text detection.
// The annotator client is safe for concurrent use.
type Engine struct {
	client        *vision.ImageAnnotatorClient
	languageHints []string
}

// New creates the Vision client. credentialsFile may be empty to use
// application default credentials.
func New(ctx context.Context, credentialsFile string, languageHints ...string) (*Engine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision API client: %w", err)
	}

	return &Engine{client: client, languageHints: languageHints}, nil
}

func (e *Engine) Name() string { return "vision" }

// Predict returns one page per annotated page, each listing its blocks' text.
func (e *Engine) Predict(ctx context.Context, img *images.Image) ([]ocr.Page, error) {
	data, err := img.EncodePNG()
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:        &visionpb.Image{Content: data},
			Features:     []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			ImageContext: &visionpb.ImageContext{LanguageHints: e.languageHints},
		}},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API failed to detect text: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return nil, nil
	}

	r := resp.GetResponses()[0]
	if status := r.GetError(); status != nil && status.GetCode() != 0 {
		return nil, fmt.Errorf("vision API error %d: %s", status.GetCode(), status.GetMessage())
	}

	return pagesFromAnnotation(r.GetFullTextAnnotation()), nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}

func pagesFromAnnotation(annotation *visionpb.TextAnnotation) []ocr.Page {
	pages := make([]ocr.Page, 0, len(annotation.GetPages()))
	for _, page := range annotation.GetPages() {
		p := ocr.Page{RecTexts: make([]string, 0, len(page.GetBlocks()))}
		for _, block := range page.GetBlocks() {
			p.RecTexts = append(p.RecTexts, blockText(block))
		}
		pages = append(pages, p)
	}
	return pages
}

// blockText rebuilds a block's text from its symbols, using the detected
// breaks to place spaces.
func blockText(block *visionpb.Block) string {
	var sb strings.Builder
	for _, para := range block.GetParagraphs() {
		for _, word := range para.GetWords() {
			for _, sym := range word.GetSymbols() {
				sb.WriteString(sym.GetText())
				switch sym.GetProperty().GetDetectedBreak().GetType() {
				case visionpb.TextAnnotation_DetectedBreak_SPACE,
					visionpb.TextAnnotation_DetectedBreak_SURE_SPACE,
					visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
					visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
					sb.WriteByte(' ')
				}
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
