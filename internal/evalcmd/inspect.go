package evalcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/passport-extractor/passport-extractor/internal/eval/dataset"
	"github.com/passport-extractor/passport-extractor/internal/images"
	"github.com/passport-extractor/passport-extractor/internal/passport"
)

func executeInspect(datasetPath string, limit int, out io.Writer) error {
	samples, err := dataset.NewLoader(datasetPath).LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(out, "Loaded %d samples from %s\n", len(samples), datasetPath)
	fmt.Fprintln(out, strings.Repeat("=", 80))

	missing := 0
	for i, sample := range samples {
		fmt.Fprintf(out, "\nSAMPLE %d/%d: %s\n", i+1, len(samples), sample.ID)
		fmt.Fprintln(out, strings.Repeat("-", 80))

		width, height, err := images.Dimensions(sample.Image)
		if err != nil {
			missing++
			fmt.Fprintf(out, "Image:   %s (unreadable: %v)\n", sample.Image, err)
		} else {
			fmt.Fprintf(out, "Image:   %s (%dx%d)\n", sample.Image, width, height)
		}

		labels := sample.Labels()
		labelled := 0
		for _, name := range passport.Fields {
			if labels[name] == "" {
				continue
			}
			labelled++
			fmt.Fprintf(out, "  %-25s %s\n", name+":", labels[name])
		}
		fmt.Fprintf(out, "Labelled fields: %d/%d\n", labelled, len(passport.Fields))
	}

	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Unreadable images: %d\n", missing)
	return nil
}
