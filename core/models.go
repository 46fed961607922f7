package core

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimensions is the vector width every stored embedding must have.
const EmbeddingDimensions = 1536

// DefaultSource tags products that came from the portal scraper.
const DefaultSource = "portal"

// Metadata keys owned by the enrichment phase.
const (
	MetadataProblemMappings = "problem_mappings"
	MetadataCSVCategory     = "csv_category"
	MetadataMatchScore      = "match_score"
	MetadataMatchSource     = "match_source"
	MetadataContactForPrice = "contact_for_price"
)

// Metadata is the open key/value map attached to a catalog product.
type Metadata map[string]any

// Clone returns a shallow copy of m. A nil map clones to an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ProblemMappings returns the problem_mappings entry as a string slice.
// Values decoded from JSON arrive as []any and are converted.
func (m Metadata) ProblemMappings() []string {
	raw, ok := m[MetadataProblemMappings]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Product is a canonical catalog record. URL is the sole upsert key.
type Product struct {
	Id                 uuid.UUID `json:"id"`
	URL                string    `json:"url"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Price              string    `json:"price,omitempty"`
	Category           string    `json:"category,omitempty"`
	Subcategory        string    `json:"subcategory,omitempty"`
	Embedding          []float32 `json:"embedding,omitempty"`
	EmbeddingInputHash string    `json:"embedding_input_hash,omitempty"`
	ComplianceTags     []string  `json:"compliance_tags,omitempty"`
	Metadata           Metadata  `json:"metadata"`
	Source             string    `json:"source"`
	LastScrapedAt      time.Time `json:"last_scraped_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProductDetail holds the scraper-owned fields extracted from a detail page.
// Category is never known at scrape time and stays empty.
type ProductDetail struct {
	URL         string
	Name        string
	Description string
	Price       string
	Category    string
}

// AggregatedProblem collects every distinct problem mapped to one spreadsheet product.
type AggregatedProblem struct {
	ProductName string
	Problems    []string
	Category    string
}

// ManualMapping is a curated spreadsheet-name to catalog-name override.
type ManualMapping struct {
	CSVProduct    string `json:"csv_product" yaml:"csv_product"`
	PortalProduct string `json:"portal_product" yaml:"portal_product"`
}

// MatchSource identifies how a spreadsheet product was reconciled.
type MatchSource string

const (
	MatchSourceManual MatchSource = "manual"
	MatchSourceFuzzy  MatchSource = "fuzzy"
)

// MatchResult links a spreadsheet product to a catalog product.
type MatchResult struct {
	CSVProduct string
	Product    *Product
	Score      float64
	Source     MatchSource
}

// UnresolvedEntry is a spreadsheet product queued for human review.
type UnresolvedEntry struct {
	CSVProduct string   `json:"csv_product"`
	Category   string   `json:"category"`
	Problems   []string `json:"problems"`
	Reason     string   `json:"reason"`
}

// SearchResult is a product returned from vector similarity search.
type SearchResult struct {
	Product *Product
	Score   float32
}

// RunSummary records the outcome of one pipeline phase.
type RunSummary struct {
	Phase      string         `json:"phase"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Counters   map[string]int `json:"counters"`
	Succeeded  bool           `json:"succeeded"`
	Message    string         `json:"message,omitempty"`
}
