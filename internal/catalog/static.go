package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/arttools/internal/core"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// StaticSource serves a catalog read from a file or from the built-in list.
type StaticSource struct {
	path string
}

// NewFileSource reads the catalog from path. Files ending in .json are
// decoded as JSON, anything else as YAML.
func NewFileSource(path string) *StaticSource {
	return &StaticSource{path: path}
}

// NewDefaultSource serves the catalog bundled with the binary.
func NewDefaultSource() *StaticSource {
	return &StaticSource{}
}

// Path returns the backing file, or "" for the built-in catalog.
func (s *StaticSource) Path() string {
	return s.path
}

// Fetch reads and decodes the catalog.
func (s *StaticSource) Fetch(ctx context.Context) ([]core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.path == "" {
		return Parse(defaultCatalog, "yaml")
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(s.path), ".json") {
		format = "json"
	}
	return Parse(content, format)
}

// Parse decodes a catalog document in the given format ("json" or "yaml").
func Parse(content []byte, format string) ([]core.Item, error) {
	var items []core.Item

	switch format {
	case "json":
		if err := json.Unmarshal(content, &items); err != nil {
			return nil, fmt.Errorf("failed to decode catalog: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(content, &items); err != nil {
			return nil, fmt.Errorf("failed to decode catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}

	return normalize(items), nil
}
