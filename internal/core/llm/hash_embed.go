package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/praeceptor-ai/corpus/internal/core"
)

var _ core.EmbeddingProvider = (*HashEmbedder)(nil)

// HashEmbedder derives embedding vectors from token character codes via
// feature hashing: each token scatters a handful of signed weights into fixed
// vector positions seeded by its FNV hash. Deterministic, fixed-dimension and
// unit-normalized, so it satisfies the embedding contract without any network
// dependency. Texts sharing tokens land near each other, which is all local
// runs and tests need; swap in Gemini or OpenAI for real retrieval quality.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = core.EmbedDim
	}
	return &HashEmbedder{dim: dim}
}

// featuresPerToken controls how many vector positions each token touches.
const featuresPerToken = 8

func (h *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embedOne(t)
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, h.dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(tokens) == 0 {
		// No usable tokens: the zero vector is the one permitted exception
		// to unit normalization.
		return vec
	}

	for _, tok := range tokens {
		hash := fnv.New64a()
		hash.Write([]byte(tok))
		state := hash.Sum64()
		for j := 0; j < featuresPerToken; j++ {
			// LCG walk from the token hash; same token, same positions.
			state = state*6364136223846793005 + 1442695040888963407
			idx := int(state % uint64(h.dim))
			if state&(1<<63) != 0 {
				vec[idx] -= 1
			} else {
				vec[idx] += 1
			}
		}
	}

	Normalize(vec)
	return vec
}

// Normalize scales vec to Euclidean norm 1 in place. The zero vector is left
// untouched.
func Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
