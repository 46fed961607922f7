package search

import (
	"math"

	"github.com/poiesic/catalogit/core"
)

const (
	descriptionLimit = 200
	fallbackCategory = "Overig"
	priceOnRequest   = "Prijs op aanvraag"
	priceUnavailable = "Geen prijsinformatie beschikbaar"
)

// ProductView is a search result shaped for a downstream consumer.
type ProductView struct {
	ProductID       string   `json:"product_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           string   `json:"price"`
	URL             string   `json:"url"`
	Category        string   `json:"category"`
	Similarity      float64  `json:"similarity"`
	ProblemMappings []string `json:"problem_mappings"`
}

// Present formats a search result. Long descriptions are truncated and
// missing category and price get readable fallbacks.
func Present(result *core.SearchResult) *ProductView {
	p := result.Product

	price := p.Price
	if price == "" {
		if contact, _ := p.Metadata[core.MetadataContactForPrice].(bool); contact {
			price = priceOnRequest
		} else {
			price = priceUnavailable
		}
	}

	category := p.Category
	if category == "" {
		category = fallbackCategory
	}

	problems := p.Metadata.ProblemMappings()
	if problems == nil {
		problems = []string{}
	}

	return &ProductView{
		ProductID:       p.Id.String(),
		Name:            p.Name,
		Description:     truncate(p.Description, descriptionLimit),
		Price:           price,
		URL:             p.URL,
		Category:        category,
		Similarity:      math.Round(float64(result.Score)*100) / 100,
		ProblemMappings: problems,
	}
}

// PresentAll formats every result.
func PresentAll(results []*core.SearchResult) []*ProductView {
	views := make([]*ProductView, len(results))
	for i, r := range results {
		views[i] = Present(r)
	}
	return views
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
