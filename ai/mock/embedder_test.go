package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	v1, err := embedder.EmbedText(ctx, "herstelcoaching")
	require.NoError(t, err)
	v2, err := embedder.EmbedText(ctx, "herstelcoaching")
	require.NoError(t, err)

	assert.Len(t, v1, 1536)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 2, embedder.CallCount())

	var sum float64
	for _, v := range v1 {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockEmbedder_Injection(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("boom")
	}

	_, err := embedder.EmbedText(context.Background(), "x")
	assert.EqualError(t, err, "boom")

	embedder.Reset()
	assert.Equal(t, 0, embedder.CallCount())
	_, err = embedder.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestMockEmbedder_EmbedTexts(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.Dim = 4

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestMockEmbedder_PinnedVectors(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.Vectors = map[string][]float32{"burn-out": {1, 0, 0}}

	v, err := embedder.EmbedText(context.Background(), "burn-out")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)

	v[0] = 9
	assert.Equal(t, float32(1), embedder.Vectors["burn-out"][0])

	other, err := embedder.EmbedText(context.Background(), "slaap")
	require.NoError(t, err)
	assert.Len(t, other, 1536)

	assert.Equal(t, []string{"burn-out", "slaap"}, embedder.Texts())
}

func TestMockProvider_Close(t *testing.T) {
	provider := NewMockProvider().(*MockProvider)
	assert.False(t, provider.Closed())
	require.NoError(t, provider.Close())
	assert.True(t, provider.Closed())
	assert.Same(t, provider.GetMockEmbedder(), provider.Embedder())
}
