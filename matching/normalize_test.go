package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"punctuation and case", "Gewichtsconsulent - Intake Online", "gewichtsconsulent intake online"},
		{"collapses whitespace", "  Bedrijfs   fysiotherapie\t", "bedrijfs fysiotherapie"},
		{"keeps accented letters", "Café Fit!", "café fit"},
		{"keeps digits", "Module 2 (basis)", "module 2 basis"},
		{"strips underscores", "Slaap_training", "slaaptraining"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeCatalogName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"parenthetical qualifier", "Herstelcoaching (6-9 maanden)", "herstelcoaching"},
		{"track suffix", "Re-integratie 2e spoor", "reintegratie"},
		{"legal suffix", "Arbo Dienst BV. Amsterdam", "arbo dienst"},
		{"plain name", "Mediation", "mediation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCatalogName(tt.input))
		})
	}
}

func TestNormalizationIsAsymmetric(t *testing.T) {
	assert.Equal(t, "herstelcoaching 69 maanden", Normalize("Herstelcoaching (6-9 maanden)"))
	assert.Equal(t, "herstelcoaching", NormalizeCatalogName("Herstelcoaching (6-9 maanden)"))
}
