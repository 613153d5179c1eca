package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads labelled passport samples from a JSONL or Parquet file
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every sample in the dataset
func (l *Loader) Load() ([]Sample, error) {
	return l.LoadSample(0)
}

// LoadSample loads at most limit samples; limit <= 0 loads everything.
// Image paths are resolved against the dataset's directory.
func (l *Loader) LoadSample(limit int) ([]Sample, error) {
	var (
		samples []Sample
		err     error
	)

	ext := strings.ToLower(filepath.Ext(l.datasetPath))
	switch ext {
	case ".parquet":
		samples, err = l.loadParquet(limit)
	case ".jsonl", ".json":
		samples, err = l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(l.datasetPath)
	for i := range samples {
		if samples[i].Image != "" && !filepath.IsAbs(samples[i].Image) {
			samples[i].Image = filepath.Join(base, samples[i].Image)
		}
		if samples[i].ID == "" {
			samples[i].ID = strings.TrimSuffix(filepath.Base(samples[i].Image), filepath.Ext(samples[i].Image))
		}
	}

	slog.Debug("Loaded dataset", "path", l.datasetPath, "samples", len(samples))
	return samples, nil
}

func (l *Loader) loadJSONL(limit int) ([]Sample, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var samples []Sample
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(samples) >= limit {
			break
		}
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var sample Sample
		if err := json.Unmarshal([]byte(line), &sample); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		samples = append(samples, sample)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	return samples, nil
}

func (l *Loader) loadParquet(limit int) ([]Sample, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Sample](pf)
	defer reader.Close()

	var samples []Sample
	for {
		// fresh buffer per batch: the reader may reuse pointer fields
		rows := make([]Sample, 128)
		n, err := reader.Read(rows)
		samples = append(samples, rows[:n]...)
		if limit > 0 && len(samples) >= limit {
			return samples[:limit], nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return samples, nil
}

// WriteParquet writes samples to path. Used to convert labelled JSONL into the
// columnar format.
func WriteParquet(path string, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[Sample](file)
	if _, err := writer.Write(samples); err != nil {
		file.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return file.Close()
}
