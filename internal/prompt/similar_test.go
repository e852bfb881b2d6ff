package prompt

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/litscreen/internal/model"
)

func similarPool() ([]model.Exemplar, map[string][]float64) {
	pool := []model.Exemplar{
		{ID: "a", Review: "Yes", Label: 1, Combined: "PAPER-A", Justification: "Cells were cultured.", JustificationLabel: label(model.LabelYes)},
		{ID: "b", Review: "No", Label: 0, Combined: "PAPER-B", Justification: "Pure modelling.", JustificationLabel: label(model.LabelNo)},
		{ID: "c", Review: "Yes", Label: 1, Combined: "PAPER-C", Justification: "Not sure.", JustificationLabel: label(model.LabelNotSure)},
		{ID: "d", Review: "No", Label: 0, Combined: "PAPER-D"},
	}
	embeddings := map[string][]float64{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0.9, 0.1, 0},
	}
	return pool, embeddings
}

func TestNewSimilarShot_JoinAndFilter(t *testing.T) {
	pool, emb := similarPool()

	s, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, 2)
	require.NoError(t, err)
	assert.True(t, s.NeedsEmbedding())
	assert.Equal(t, 3, s.PoolSize(), "exemplar without embedding is dropped")

	cfg := testConfig(model.ModelGPT4)
	cfg.CoT = true
	s, err = NewSimilarShot(cfg, pool, emb, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.PoolSize())
}

func TestNewSimilarShot_TopNBounds(t *testing.T) {
	pool, emb := similarPool()

	for _, topN := range []int{0, -1, 4} {
		_, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, topN)
		require.ErrorIs(t, err, ErrInvalidConfig, "topN=%d", topN)
	}

	_, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, 3)
	require.NoError(t, err)
}

func TestNewSimilarShot_EmptyPool(t *testing.T) {
	pool, _ := similarPool()
	_, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, map[string][]float64{}, 1)
	require.ErrorIs(t, err, ErrEmptyPool)
}

func TestSimilarShot_SelfSimilarityRanksFirst(t *testing.T) {
	pool, emb := similarPool()
	s, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, 3)
	require.NoError(t, err)

	ranked, err := s.Nearest([]float64{0, 1, 0})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "b", ranked[0].Exemplar.ID)
	assert.InDelta(t, 1.0, ranked[0].Similarity, 1e-9)

	ranked, err = s.Nearest([]float64{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Similarity, ranked[i].Similarity)
	}
}

func TestSimilarShot_TiesKeepPoolOrder(t *testing.T) {
	pool := []model.Exemplar{
		{ID: "x", Review: "No", Combined: "X"},
		{ID: "y", Review: "No", Combined: "Y"},
		{ID: "z", Review: "No", Combined: "Z"},
	}
	emb := map[string][]float64{"x": {1, 1}, "y": {1, 1}, "z": {1, 1}}
	s, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, 2)
	require.NoError(t, err)

	ranked, err := s.Nearest([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(ranked))
	assert.Equal(t, ranked[0].Similarity, ranked[1].Similarity)
}

func TestSimilarShot_ZeroVectorRanksLast(t *testing.T) {
	pool := []model.Exemplar{
		{ID: "zero", Review: "No", Combined: "Z"},
		{ID: "opposite", Review: "No", Combined: "O"},
		{ID: "same", Review: "Yes", Combined: "S"},
	}
	emb := map[string][]float64{"zero": {0, 0}, "opposite": {-1, 0}, "same": {1, 0}}
	s, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, 3)
	require.NoError(t, err)

	ranked, err := s.Nearest([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"same", "opposite", "zero"}, ids(ranked))

	ranked, err = s.Nearest([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"zero", "opposite", "same"}, ids(ranked), "all NaN keeps pool order")
}

func TestSimilarShot_Build(t *testing.T) {
	pool, emb := similarPool()
	cfg := testConfig(model.ModelGPT35Turbo16)
	cfg.CoT = true
	s, err := NewSimilarShot(cfg, pool, emb, 2)
	require.NoError(t, err)

	p, err := s.Build("TEST", []float64{0.1, 1, 0})
	require.NoError(t, err)
	require.Len(t, p.Turns, 6)

	question := "Question: Does the paper use a wet-lab approach?\nLet's think step by step."
	assert.Equal(t, "Wet-lab: experiments in a laboratory.\n\nPAPER-B\n\n"+question, p.Turns[1].Content)
	assert.Equal(t, "Pure modelling.", p.Turns[2].Content)
	assert.Equal(t, "PAPER-A\n\n"+question, p.Turns[3].Content)
	assert.Equal(t, "Cells were cultured.", p.Turns[4].Content)
	assert.Equal(t, "TEST\n\n"+question, p.Turns[5].Content)
	assert.NotContains(t, p.String(), "Therefore")
}

func TestSimilarShot_BuildLegacyPlain(t *testing.T) {
	pool, emb := similarPool()
	s, err := NewSimilarShot(testConfig(model.ModelDavinci003), pool, emb, 1)
	require.NoError(t, err)

	p, err := s.Build("TEST", []float64{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, p.IsChat())
	assert.True(t, strings.HasPrefix(p.Text, "Wet-lab: experiments in a laboratory.\n\nPAPER-A\n\n"))
	assert.Contains(t, p.Text, "\nYes.\nTEST\n\n")
}

func TestSimilarShot_MissingEmbedding(t *testing.T) {
	pool, emb := similarPool()
	s, err := NewSimilarShot(testConfig(model.ModelGPT4), pool, emb, 1)
	require.NoError(t, err)

	_, err = s.Build("TEST", nil)
	require.ErrorIs(t, err, ErrMissingEmbedding)

	_, err = s.Build("TEST", []float64{1, 0})
	require.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float64{0, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(sim))

	_, err = CosineSimilarity([]float64{1}, []float64{1, 2})
	require.Error(t, err)
}

func ids(scored []Scored) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Exemplar.ID
	}
	return out
}
