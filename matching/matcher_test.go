package matching

import (
	"testing"

	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog(names ...string) []*core.Product {
	products := make([]*core.Product, len(names))
	for i, name := range names {
		products[i] = &core.Product{
			URL:  "https://portal.evi360.nl/products/" + string(rune('1'+i)),
			Name: name,
		}
	}
	return products
}

func entry(name string, problems ...string) *core.AggregatedProblem {
	return &core.AggregatedProblem{ProductName: name, Problems: problems, Category: "Cat"}
}

func TestMatch_FuzzyScenario(t *testing.T) {
	m, err := NewMatcher(catalog("Bedrijfsmaatschappelijk werk", "Herstelcoaching (6-9 maanden)"), nil)
	require.NoError(t, err)

	match, miss := m.Match(entry("Herstelcoaching", "Burn-out"))
	require.Nil(t, miss)
	require.NotNil(t, match)
	assert.Equal(t, core.MatchSourceFuzzy, match.Source)
	assert.Equal(t, "Herstelcoaching (6-9 maanden)", match.Product.Name)
	assert.GreaterOrEqual(t, match.Score, 0.85)
}

func TestMatch_ManualOverridePriority(t *testing.T) {
	products := catalog("Herstelcoaching", "Loopbaanbegeleiding")
	overrides := NewOverrideStore([]core.ManualMapping{
		{CSVProduct: "Herstelcoaching", PortalProduct: "Loopbaanbegeleiding"},
	}, nil)

	m, err := NewMatcher(products, overrides)
	require.NoError(t, err)

	match, miss := m.Match(entry("Herstelcoaching"))
	require.Nil(t, miss)
	assert.Equal(t, core.MatchSourceManual, match.Source)
	assert.Equal(t, 1.0, match.Score)
	assert.Equal(t, "Loopbaanbegeleiding", match.Product.Name)
}

func TestMatch_OverrideTargetMissingFallsBackToFuzzy(t *testing.T) {
	overrides := NewOverrideStore([]core.ManualMapping{
		{CSVProduct: "Mediation", PortalProduct: "Conflictbemiddeling"},
	}, nil)

	m, err := NewMatcher(catalog("Mediation"), overrides)
	require.NoError(t, err)

	match, miss := m.Match(entry("Mediation"))
	require.Nil(t, miss)
	assert.Equal(t, core.MatchSourceFuzzy, match.Source)
	assert.Equal(t, 1.0, match.Score)
}

func TestMatch_OverrideRequiresExactName(t *testing.T) {
	overrides := NewOverrideStore([]core.ManualMapping{
		{CSVProduct: "Coach", PortalProduct: "loopbaancoaching"},
	}, nil)
	stub := func(a, b string) float64 { return 0 }

	m, err := NewMatcher(catalog("Loopbaancoaching"), overrides, WithScorer(stub))
	require.NoError(t, err)

	match, miss := m.Match(entry("Coach"))
	assert.Nil(t, match)
	require.NotNil(t, miss)
}

func TestMatch_ThresholdIsInclusive(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		matched bool
	}{
		{"exactly at threshold", 0.85, true},
		{"just below threshold", 0.84999, false},
		{"above threshold", 0.9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := func(a, b string) float64 { return tt.score }
			m, err := NewMatcher(catalog("Anything"), nil, WithScorer(stub))
			require.NoError(t, err)

			match, miss := m.Match(entry("Something"))
			if tt.matched {
				require.NotNil(t, match)
				assert.Equal(t, tt.score, match.Score)
				assert.Nil(t, miss)
			} else {
				assert.Nil(t, match)
				require.NotNil(t, miss)
			}
		})
	}
}

func TestMatch_FirstMaximumWins(t *testing.T) {
	stub := func(a, b string) float64 { return 0.9 }
	m, err := NewMatcher(catalog("Alpha", "Beta"), nil, WithScorer(stub))
	require.NoError(t, err)

	match, _ := m.Match(entry("Gamma"))
	require.NotNil(t, match)
	assert.Equal(t, "Alpha", match.Product.Name)
}

func TestMatch_ScorerReceivesNormalizedNames(t *testing.T) {
	var got [][2]string
	stub := func(a, b string) float64 {
		got = append(got, [2]string{a, b})
		return 0
	}
	m, err := NewMatcher(catalog("Re-integratie 2e spoor"), nil, WithScorer(stub))
	require.NoError(t, err)

	m.Match(entry("Re-integratie (2e spoor)"))
	require.Len(t, got, 1)
	assert.Equal(t, [2]string{"reintegratie 2e spoor", "reintegratie"}, got[0])
}

func TestMatch_Unresolved(t *testing.T) {
	m, err := NewMatcher(catalog("Bedrijfsfysiotherapie"), nil)
	require.NoError(t, err)

	match, miss := m.Match(entry("Vertrouwenspersoon", "Ongewenst gedrag"))
	assert.Nil(t, match)
	require.NotNil(t, miss)
	assert.Equal(t, "Vertrouwenspersoon", miss.CSVProduct)
	assert.Equal(t, "Cat", miss.Category)
	assert.Equal(t, []string{"Ongewenst gedrag"}, miss.Problems)
	assert.Equal(t, "no fuzzy match above 0.85 threshold and no manual mapping", miss.Reason)
}

func TestMatch_EmptyCatalog(t *testing.T) {
	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)

	match, miss := m.Match(entry("Mediation"))
	assert.Nil(t, match)
	assert.NotNil(t, miss)
}

func TestNewMatcher_InvalidOptions(t *testing.T) {
	_, err := NewMatcher(nil, nil, WithThreshold(1.5))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewMatcher(nil, nil, WithScorer(nil))
	assert.ErrorIs(t, err, ErrScorerRequired)
}

func TestMatchAll(t *testing.T) {
	agg := spreadsheet.ParseRows([]spreadsheet.Row{
		{Line: 2, Problem: "Burn-out", Category: "Psychisch", Product: "Herstelcoaching"},
		{Line: 3, Problem: "Conflict", Category: "Sociaal", Product: "Mediation"},
		{Line: 4, Problem: "Onbekend", Category: "Overig", Product: "Vertrouwenspersoon"},
	}, nil)
	overrides := NewOverrideStore([]core.ManualMapping{
		{CSVProduct: "Mediation", PortalProduct: "Mediation bij conflicten"},
	}, nil)

	m, err := NewMatcher(catalog("Herstelcoaching (6-9 maanden)", "Mediation bij conflicten"), overrides, WithThreshold(0.9))
	require.NoError(t, err)

	matches, unresolved := m.MatchAll(agg)
	require.Len(t, matches, 2)
	require.Len(t, unresolved, 1)

	assert.Equal(t, "Herstelcoaching", matches[0].CSVProduct)
	assert.Equal(t, core.MatchSourceFuzzy, matches[0].Source)
	assert.Equal(t, "Mediation", matches[1].CSVProduct)
	assert.Equal(t, core.MatchSourceManual, matches[1].Source)
	assert.Equal(t, "Vertrouwenspersoon", unresolved[0].CSVProduct)
	assert.Equal(t, "no fuzzy match above 0.9 threshold and no manual mapping", unresolved[0].Reason)
}
