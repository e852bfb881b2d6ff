package prompt

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/litscreen/internal/model"
)

// SimilarShot prompts with the TopN training exemplars closest to the test
// paper by cosine similarity of their embeddings
type SimilarShot struct {
	cfg      Config
	mode     mode
	question string
	topN     int
	pool     []model.Exemplar
}

// Scored pairs an exemplar with its similarity to the test paper
type Scored struct {
	Exemplar   model.Exemplar
	Similarity float64
}

// NewSimilarShot joins pool with embeddings by exemplar ID, dropping
// exemplars without an embedding, then filters to self-consistent exemplars
// in CoT and sub-question modes. An empty retained pool is ErrEmptyPool and a
// topN outside [1, retained size] is ErrInvalidConfig.
func NewSimilarShot(cfg Config, pool []model.Exemplar, embeddings map[string][]float64, topN int) (*SimilarShot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &SimilarShot{
		cfg:      cfg,
		mode:     cfg.mode(),
		question: cfg.questionPrompt("\n"),
		topN:     topN,
	}

	for _, ex := range pool {
		vec, ok := embeddings[ex.ID]
		if !ok {
			continue
		}
		if s.mode.filtered() && !ex.JustificationMatches() {
			continue
		}
		ex.Embedding = vec
		s.pool = append(s.pool, ex)
	}

	if len(s.pool) == 0 {
		return nil, fmt.Errorf("%w: no exemplars retained (mode %s, %d in pool)", ErrEmptyPool, s.mode, len(pool))
	}
	if topN < 1 || topN > len(s.pool) {
		return nil, fmt.Errorf("%w: top_n_similar (%d) must be between 1 and the number of training examples (%d)",
			ErrInvalidConfig, topN, len(s.pool))
	}
	return s, nil
}

// Name returns the strategy name
func (s *SimilarShot) Name() string {
	return "similar-shot"
}

// NeedsEmbedding is always true
func (s *SimilarShot) NeedsEmbedding() bool {
	return true
}

// PoolSize returns the number of retained exemplars
func (s *SimilarShot) PoolSize() int {
	return len(s.pool)
}

// Build ranks the retained pool against embedding and returns the prompt
// with the TopN closest exemplars as worked examples, most similar first
func (s *SimilarShot) Build(context string, embedding []float64) (model.Prompt, error) {
	if len(embedding) == 0 {
		return model.Prompt{}, ErrMissingEmbedding
	}

	similar, err := s.Nearest(embedding)
	if err != nil {
		return model.Prompt{}, err
	}

	turns := make([]model.Turn, 0, 2*len(similar)+1)
	for i, sc := range similar {
		definition := ""
		if i == 0 {
			definition = s.cfg.Definition
		}
		turns = append(turns, exampleTurns(s.question, definition, s.mode, sc.Exemplar, false)...)
	}
	turns = append(turns, testTurn(context, s.question))

	return s.cfg.finish(turns), nil
}

// Nearest returns the TopN retained exemplars by descending similarity.
// Ties keep pool order and zero-magnitude embeddings rank last.
func (s *SimilarShot) Nearest(embedding []float64) ([]Scored, error) {
	if len(s.pool) == 0 {
		return nil, ErrEmptyPool
	}

	scored := make([]Scored, len(s.pool))
	for i, ex := range s.pool {
		sim, err := CosineSimilarity(ex.Embedding, embedding)
		if err != nil {
			return nil, fmt.Errorf("exemplar %s: %w", ex.ID, err)
		}
		scored[i] = Scored{Exemplar: ex, Similarity: sim}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i].Similarity, scored[j].Similarity
		if math.IsNaN(a) {
			return false
		}
		return math.IsNaN(b) || a > b
	})

	if len(scored) > s.topN {
		scored = scored[:s.topN]
	}
	return scored, nil
}

func (s *SimilarShot) String() string {
	return fmt.Sprintf("%s top_n=%d retained=%d", Describe(s.Name(), s.cfg, s.question), s.topN, len(s.pool))
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|). It is NaN when either
// vector has zero magnitude.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += a[i] * b[i]
		aMag += a[i] * a[i]
		bMag += b[i] * b[i]
	}

	if aMag == 0 || bMag == 0 {
		return math.NaN(), nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
