package matching

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/catalogit/core"
	"gopkg.in/yaml.v3"
)

// overrideDocument is the on-disk shape of the manual mapping file.
// JSON is a subset of YAML, so one decoder handles both.
type overrideDocument struct {
	Mappings []core.ManualMapping `yaml:"mappings"`
}

// OverrideStore holds curated spreadsheet-to-portal name mappings.
// It is immutable once loaded.
type OverrideStore struct {
	mappings map[string]string
}

// NewOverrideStore builds a store from mappings. For duplicate spreadsheet
// names the first mapping wins.
func NewOverrideStore(mappings []core.ManualMapping, logger *slog.Logger) *OverrideStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &OverrideStore{mappings: make(map[string]string, len(mappings))}
	for _, m := range mappings {
		key := strings.TrimSpace(m.CSVProduct)
		if key == "" {
			logger.Warn("ignoring override without csv_product", "portal_product", m.PortalProduct)
			continue
		}
		if existing, ok := s.mappings[key]; ok {
			logger.Warn("duplicate override, keeping first",
				"csv_product", key, "kept", existing, "ignored", m.PortalProduct)
			continue
		}
		s.mappings[key] = strings.TrimSpace(m.PortalProduct)
	}
	return s
}

// LoadOverrides reads the mapping file at path. A missing file yields an
// empty store.
func LoadOverrides(path string, logger *slog.Logger) (*OverrideStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "overrides")

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("override file not found, continuing without manual mappings", "path", path)
		return NewOverrideStore(nil, logger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open overrides: %w", err)
	}
	defer f.Close()

	store, err := ReadOverrides(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("loaded manual mappings", "path", path, "count", store.Len())
	return store, nil
}

// ReadOverrides parses a mapping document from r.
func ReadOverrides(r io.Reader, logger *slog.Logger) (*OverrideStore, error) {
	var doc overrideDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverrides, err)
	}
	return NewOverrideStore(doc.Mappings, logger), nil
}

// Lookup returns the portal product name mapped to csvProduct.
func (s *OverrideStore) Lookup(csvProduct string) (string, bool) {
	if s == nil {
		return "", false
	}
	name, ok := s.mappings[strings.TrimSpace(csvProduct)]
	return name, ok
}

// Len returns the number of mappings.
func (s *OverrideStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.mappings)
}
