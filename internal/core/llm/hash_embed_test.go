package llm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praeceptor-ai/corpus/internal/core"
)

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHashEmbedderDimension(t *testing.T) {
	e := NewHashEmbedder(core.EmbedDim)
	vecs, err := e.EmbedTexts(context.Background(), []string{"derivatives and integrals"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Len(t, vecs[0], core.EmbedDim)
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(core.EmbedDim)
	a, err := e.EmbedTexts(context.Background(), []string{"the quadratic formula"})
	require.NoError(t, err)
	b, err := e.EmbedTexts(context.Background(), []string{"the quadratic formula"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashEmbedderUnitNorm(t *testing.T) {
	e := NewHashEmbedder(core.EmbedDim)
	vecs, err := e.EmbedTexts(context.Background(), []string{
		"a",
		"several words of study material",
		"a much longer paragraph repeating itself a much longer paragraph repeating itself",
	})
	require.NoError(t, err)
	for i, v := range vecs {
		assert.InDelta(t, 1.0, norm(v), 1e-5, "text %d", i)
	}
}

func TestHashEmbedderNoTokensZeroVector(t *testing.T) {
	e := NewHashEmbedder(core.EmbedDim)
	vecs, err := e.EmbedTexts(context.Background(), []string{"   ...!!!   "})
	require.NoError(t, err)
	assert.Equal(t, 0.0, norm(vecs[0]))
}

func TestHashEmbedderIdenticalTextMaxSimilarity(t *testing.T) {
	e := NewHashEmbedder(core.EmbedDim)
	vecs, err := e.EmbedTexts(context.Background(), []string{
		"photosynthesis in plants",
		"photosynthesis in plants",
		"an unrelated discussion of roman history",
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, dot(vecs[0], vecs[1]), 1e-5)
	// Disjoint token sets should score well below identity.
	assert.Less(t, dot(vecs[0], vecs[2]), 0.5)
}

func TestHashEmbedderSharedTokensRankHigher(t *testing.T) {
	e := NewHashEmbedder(core.EmbedDim)
	vecs, err := e.EmbedTexts(context.Background(), []string{
		"limits and continuity of functions",
		"continuity of polynomial functions",
		"baking sourdough bread at home",
	})
	require.NoError(t, err)
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestNormalizeZeroVectorUntouched(t *testing.T) {
	vec := make([]float32, 8)
	Normalize(vec)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestHashEmbedderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewHashEmbedder(core.EmbedDim)
	_, err := e.EmbedTexts(ctx, []string{"anything"})
	assert.ErrorIs(t, err, context.Canceled)
}
