package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FaceExtractor computes face embeddings for an image, one per detected face.
type FaceExtractor interface {
	ExtractFaces(ctx context.Context, image []byte) ([][]float32, error)
}

// DirSource enrolls one identity per image in a directory. The label is the
// file stem and the embedding is the first face the extractor finds.
type DirSource struct {
	Dir       string
	Extractor FaceExtractor
}

var enrollmentExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Name implements Source.
func (s *DirSource) Name() string {
	return s.Dir
}

// Entries implements Source. Files are visited in name order.
func (s *DirSource) Entries(ctx context.Context) ([]Entry, error) {
	if s.Extractor == nil {
		return nil, fmt.Errorf("no face extractor configured")
	}

	files, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read enrollment directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !enrollmentExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.Dir, f.Name())
		entry := Entry{Label: LabelFromFilename(f.Name()), Origin: path}

		data, err := os.ReadFile(path)
		if err != nil {
			entry.Err = fmt.Errorf("read image: %w", err)
			entries = append(entries, entry)
			continue
		}

		faces, err := s.Extractor.ExtractFaces(ctx, data)
		if err != nil {
			entry.Err = fmt.Errorf("extract faces: %w", err)
		} else if len(faces) > 0 {
			entry.Embedding = faces[0]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
