package core

import (
	"errors"
	"testing"
)

func TestValidateDetail(t *testing.T) {
	tests := []struct {
		name     string
		detail   *ProductDetail
		wantKind error
		wantErr  error
	}{
		{
			name: "valid detail",
			detail: &ProductDetail{
				URL:         "https://portal.evi360.nl/products/12",
				Name:        "Herstelcoaching",
				Description: "Begeleiding bij herstel.",
			},
		},
		{
			name: "valid detail with empty description",
			detail: &ProductDetail{
				URL:  "https://portal.evi360.nl/products/12",
				Name: "Herstelcoaching",
			},
		},
		{
			name:     "nil detail",
			detail:   nil,
			wantKind: ErrValidation,
		},
		{
			name:     "missing url",
			detail:   &ProductDetail{Name: "Herstelcoaching"},
			wantKind: ErrValidation,
			wantErr:  ErrEmptyURL,
		},
		{
			name:     "relative url",
			detail:   &ProductDetail{URL: "/products/12", Name: "Herstelcoaching"},
			wantKind: ErrValidation,
			wantErr:  ErrInvalidURL,
		},
		{
			name:     "blank name",
			detail:   &ProductDetail{URL: "https://portal.evi360.nl/products/12", Name: "   "},
			wantKind: ErrExtraction,
			wantErr:  ErrMissingName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDetail(tt.detail)
			if tt.wantKind == nil {
				if err != nil {
					t.Errorf("ValidateDetail() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("ValidateDetail() error = %v, want kind %v", err, tt.wantKind)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDetail() error = %v, want cause %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		vector  []float32
		dim     int
		wantErr error
	}{
		{name: "exact dimension", vector: make([]float32, EmbeddingDimensions), dim: EmbeddingDimensions},
		{name: "too short", vector: make([]float32, 384), dim: EmbeddingDimensions, wantErr: ErrDimensionMismatch},
		{name: "too long", vector: make([]float32, 3072), dim: EmbeddingDimensions, wantErr: ErrDimensionMismatch},
		{name: "empty", vector: nil, dim: EmbeddingDimensions, wantErr: ErrEmptyVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbedding(tt.vector, tt.dim)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateEmbedding() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEmbedding() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
