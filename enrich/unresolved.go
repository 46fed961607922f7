package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/catalogit/core"
)

// UnresolvedNote is written into every unresolved artifact.
const UnresolvedNote = "These products require manual stakeholder review for portal mapping"

// UnresolvedDocument is the review artifact listing unmatched spreadsheet products.
type UnresolvedDocument struct {
	Count       int                     `json:"count"`
	LastUpdated string                  `json:"last_updated"`
	Note        string                  `json:"note"`
	Products    []*core.UnresolvedEntry `json:"products"`
}

// WriteUnresolved replaces the artifact at path. The file is written to a
// temporary sibling first and renamed into place.
func WriteUnresolved(path string, entries []*core.UnresolvedEntry, now time.Time) error {
	if entries == nil {
		entries = []*core.UnresolvedEntry{}
	}
	doc := UnresolvedDocument{
		Count:       len(entries),
		LastUpdated: now.Format(time.DateOnly),
		Note:        UnresolvedNote,
		Products:    entries,
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode unresolved products: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadUnresolved loads an artifact written by WriteUnresolved.
func ReadUnresolved(path string) (*UnresolvedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc UnresolvedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}
