package search

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/poiesic/catalogit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresent(t *testing.T) {
	id := uuid.New()
	product := &core.Product{
		Id:          id,
		URL:         "https://portal.evi360.nl/products/1",
		Name:        "Herstelcoaching",
		Description: "Kort",
		Price:       "€ 950,00",
		Category:    "Herstel",
		Metadata:    core.Metadata{core.MetadataProblemMappings: []any{"Burn-out", "Stress"}},
	}

	view := Present(&core.SearchResult{Product: product, Score: 0.87654})

	assert.Equal(t, id.String(), view.ProductID)
	assert.Equal(t, "Herstelcoaching", view.Name)
	assert.Equal(t, "Kort", view.Description)
	assert.Equal(t, "€ 950,00", view.Price)
	assert.Equal(t, "Herstel", view.Category)
	assert.Equal(t, 0.88, view.Similarity)
	assert.Equal(t, []string{"Burn-out", "Stress"}, view.ProblemMappings)
}

func TestPresent_Fallbacks(t *testing.T) {
	t.Run("price on request", func(t *testing.T) {
		view := Present(&core.SearchResult{Product: &core.Product{
			Metadata: core.Metadata{core.MetadataContactForPrice: true},
		}})
		assert.Equal(t, priceOnRequest, view.Price)
		assert.Equal(t, fallbackCategory, view.Category)
		assert.Equal(t, []string{}, view.ProblemMappings)
	})

	t.Run("no price information", func(t *testing.T) {
		view := Present(&core.SearchResult{Product: &core.Product{}})
		assert.Equal(t, priceUnavailable, view.Price)
	})
}

func TestPresent_TruncatesDescription(t *testing.T) {
	exact := strings.Repeat("é", descriptionLimit)
	view := Present(&core.SearchResult{Product: &core.Product{Description: exact}})
	assert.Equal(t, exact, view.Description)

	long := strings.Repeat("a", descriptionLimit+1)
	view = Present(&core.SearchResult{Product: &core.Product{Description: long}})
	assert.Equal(t, strings.Repeat("a", descriptionLimit)+"...", view.Description)
}

func TestProductView_JSON(t *testing.T) {
	views := PresentAll([]*core.SearchResult{{Product: &core.Product{Name: "X"}, Score: 0.5}})
	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"product_id"`)
	assert.Contains(t, string(data), `"problem_mappings":[]`)
	assert.Contains(t, string(data), `"similarity":0.5`)
}
