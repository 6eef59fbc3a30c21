package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/obs"
)

type Format int

const (
	FormatTOML Format = iota
	FormatJSON
)

// FormatOf picks the decoder from the file extension; anything that is not
// .json is read as TOML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatTOML
}

// Decode reads a document. Unknown keys are rejected so typos in scenario
// files surface instead of silently dropping data.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode scenario: parse json: %w", err)
		}
	default:
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode scenario: parse toml: %w", err)
		}
	}
	return &doc, nil
}

// Load reads and validates a scenario file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: read %q: %w", path, err)
	}

	doc, err := Decode(bytes.NewReader(data), FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", path, err)
	}
	return doc, nil
}

// FileRepository serves a warehouse straight from a scenario file.
type FileRepository struct {
	Path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{Path: path}
}

func (r *FileRepository) LoadLayout(ctx context.Context) (_ *domain.Layout, err error) {
	defer obs.Time(ctx, "scenario.LoadLayout")(&err)

	doc, err := Load(r.Path)
	if err != nil {
		return nil, err
	}
	return doc.Layout(), nil
}

func (r *FileRepository) ListOrderRequests(ctx context.Context) (_ []domain.OrderRequest, err error) {
	defer obs.Time(ctx, "scenario.ListOrderRequests")(&err)

	doc, err := Load(r.Path)
	if err != nil {
		return nil, err
	}
	return doc.OrderRequests(), nil
}
