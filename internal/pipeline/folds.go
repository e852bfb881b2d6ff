package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/prompt"
)

// FoldSource locates the cross-validation files
type FoldSource struct {
	DataDir  string // test_<i>.csv and embed_test_<i>.jsonl
	TrainDir string // train_<i>.csv and embed_train_<i>.jsonl; defaults to DataDir
	Folds    int
	Seed     uint64
	Parallel int // Folds run at once; at least 1
}

// FoldData is everything a builder is constructed from for one fold
type FoldData struct {
	Fold            int
	Train           []model.Exemplar
	Test            []model.Exemplar
	TrainEmbeddings map[string][]float64
	TestEmbeddings  map[string][]float64
}

// BuilderFactory creates the prompt builder for one fold. rng is private to
// the fold and seeded from the run seed and fold number.
type BuilderFactory func(data FoldData, rng *rand.Rand) (prompt.Builder, error)

// LoadFold reads one fold's train and test sets, plus their embeddings when
// withEmbeddings is set
func LoadFold(src FoldSource, fold int, cols dataset.ColumnMap, withEmbeddings bool) (FoldData, error) {
	trainDir := src.TrainDir
	if trainDir == "" {
		trainDir = src.DataDir
	}

	data := FoldData{Fold: fold}
	var err error
	if data.Train, err = dataset.LoadExemplars(dataset.TrainPath(trainDir, fold), cols); err != nil {
		return data, err
	}
	if data.Test, err = dataset.LoadExemplars(dataset.TestPath(src.DataDir, fold), cols); err != nil {
		return data, err
	}
	if !withEmbeddings {
		return data, nil
	}

	if data.TrainEmbeddings, err = dataset.LoadEmbeddings(dataset.TrainEmbeddingPath(trainDir, fold)); err != nil {
		return data, err
	}
	if data.TestEmbeddings, err = dataset.LoadEmbeddings(dataset.TestEmbeddingPath(src.DataDir, fold)); err != nil {
		return data, err
	}
	return data, nil
}

// FoldRand returns the sampling source of one fold
func FoldRand(seed uint64, fold int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(fold)))
}

// RunFolds runs every fold, up to src.Parallel at a time. The first error
// cancels the folds still running.
func (r *Runner) RunFolds(ctx context.Context, src FoldSource, withEmbeddings bool, factory BuilderFactory) error {
	if src.Folds < 1 {
		return fmt.Errorf("%w: folds must be at least 1, got %d", prompt.ErrInvalidConfig, src.Folds)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(src.Parallel, 1))

	for fold := 0; fold < src.Folds; fold++ {
		g.Go(func() error {
			data, err := LoadFold(src, fold, r.opts.Columns, withEmbeddings)
			if err != nil {
				return fmt.Errorf("fold %d: %w", fold, err)
			}

			b, err := factory(data, FoldRand(src.Seed, fold))
			if err != nil {
				return fmt.Errorf("fold %d: %w", fold, err)
			}

			if _, err := r.RunFold(ctx, b, fold, data.Test, data.TestEmbeddings); err != nil {
				return fmt.Errorf("fold %d: %w", fold, err)
			}
			return nil
		})
	}
	return g.Wait()
}
