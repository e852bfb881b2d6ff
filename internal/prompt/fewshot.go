package prompt

import (
	"fmt"
	"math/rand/v2"

	"github.com/ppiankov/litscreen/internal/model"
)

// DefaultSeed seeds the sampler when no random source is injected
const DefaultSeed = 123

// FewShotOptions configures a FewShot builder
type FewShotOptions struct {
	// PositiveFirst puts the positive worked example before the negative one
	PositiveFirst bool

	// Rand is the sampling source. Not safe for concurrent use; each builder
	// should own its source. Nil means a source seeded with DefaultSeed.
	Rand *rand.Rand
}

// FewShot prompts with one positive and one negative worked example drawn
// at random from the training pool on every call
type FewShot struct {
	cfg      Config
	mode     mode
	question string
	opts     FewShotOptions
	positive []model.Exemplar
	negative []model.Exemplar
}

// NewFewShot validates cfg and partitions pool into positive and negative
// sets. In CoT and sub-question modes only exemplars whose generated
// explanation was classified as their true answer are eligible.
func NewFewShot(cfg Config, pool []model.Exemplar, opts FewShotOptions) (*FewShot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(DefaultSeed, DefaultSeed))
	}

	f := &FewShot{
		cfg:      cfg,
		mode:     cfg.mode(),
		question: cfg.questionPrompt("\n"),
		opts:     opts,
	}
	f.positive, f.negative = partition(pool, f.mode.filtered())
	return f, nil
}

func partition(pool []model.Exemplar, filtered bool) (positive, negative []model.Exemplar) {
	for _, ex := range pool {
		if filtered && !ex.JustificationMatches() {
			continue
		}
		if ex.Label == 1 {
			positive = append(positive, ex)
		} else {
			negative = append(negative, ex)
		}
	}
	return positive, negative
}

// Name returns the strategy name
func (f *FewShot) Name() string {
	return "few-shot"
}

// NeedsEmbedding is always false
func (f *FewShot) NeedsEmbedding() bool {
	return false
}

// PoolSizes returns the number of eligible positive and negative exemplars
func (f *FewShot) PoolSizes() (positive, negative int) {
	return len(f.positive), len(f.negative)
}

// Build samples a fresh positive and negative example and returns the
// prompt for context. The embedding is ignored.
func (f *FewShot) Build(context string, _ []float64) (model.Prompt, error) {
	pos, err := f.sample(f.positive, "positive")
	if err != nil {
		return model.Prompt{}, err
	}
	neg, err := f.sample(f.negative, "negative")
	if err != nil {
		return model.Prompt{}, err
	}

	first, second := pos, neg
	if !f.opts.PositiveFirst {
		first, second = neg, pos
	}

	turns := make([]model.Turn, 0, 5)
	turns = append(turns, exampleTurns(f.question, f.cfg.Definition, f.mode, first, true)...)
	turns = append(turns, exampleTurns(f.question, "", f.mode, second, true)...)
	turns = append(turns, testTurn(context, f.question))

	return f.cfg.finish(turns), nil
}

func (f *FewShot) sample(set []model.Exemplar, kind string) (model.Exemplar, error) {
	if len(set) == 0 {
		return model.Exemplar{}, fmt.Errorf("%w: no %s exemplars (mode %s)", ErrEmptyPool, kind, f.mode)
	}
	return set[f.opts.Rand.IntN(len(set))], nil
}

func (f *FewShot) String() string {
	return fmt.Sprintf("%s positive_first=%t positives=%d negatives=%d",
		Describe(f.Name(), f.cfg, f.question), f.opts.PositiveFirst, len(f.positive), len(f.negative))
}
