// Package pipeline runs prompting strategies over cross-validation folds:
// it builds a prompt per test paper, queries the model, records the answer
// and maps answers to labels afterwards.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/classify"
	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/llm"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/prompt"
	"github.com/ppiankov/litscreen/internal/store"
	"github.com/ppiankov/litscreen/internal/worker"
)

// cooldownFunc is swapped out in tests
var cooldownFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configures a Runner
type Options struct {
	AnswerCol   string // Base name of the answer column, e.g. Nipah_Q2_Turbo_FewCoT
	Model       model.ModelType
	Temperature float32
	MaxTokens   int
	Cooldown    time.Duration // Pause after a failed completion
	OutputDir   string
	Columns     dataset.ColumnMap
}

// Runner sends prompts to the completion service and records the answers
type Runner struct {
	completer llm.Completer
	limiter   *worker.Limiter
	store     store.Store
	opts      Options
	runID     string
	log       logrus.FieldLogger
}

// NewRunner creates a runner. limiter and st may be nil.
func NewRunner(completer llm.Completer, limiter *worker.Limiter, st store.Store, opts Options, log logrus.FieldLogger) (*Runner, error) {
	if !opts.Model.IsSupported() {
		return nil, fmt.Errorf("%w: model type %q not one of %v", prompt.ErrInvalidConfig, opts.Model, model.SupportedModels)
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}

	runID := uuid.NewString()
	return &Runner{
		completer: completer,
		limiter:   limiter,
		store:     st,
		opts:      opts,
		runID:     runID,
		log:       log.WithField("run_id", runID),
	}, nil
}

// RunID identifies this runner's predictions in the store
func (r *Runner) RunID() string {
	return r.runID
}

// AnswerDir is the directory holding every fold's answer file
func (r *Runner) AnswerDir() string {
	return filepath.Join(r.opts.OutputDir, r.opts.AnswerCol)
}

// AnswerPath is the answer file of one fold
func (r *Runner) AnswerPath(fold int) string {
	return AnswerPath(r.opts.OutputDir, r.opts.AnswerCol, fold)
}

// PromptDir is where the prompts of one fold are dumped
func (r *Runner) PromptDir(fold int) string {
	return filepath.Join(r.AnswerDir(), model.FoldColumn(r.opts.AnswerCol, fold))
}

// Ask sends p to the model and returns the cleaned answer
func (r *Runner) Ask(ctx context.Context, p model.Prompt) (string, error) {
	if err := r.limiter.Wait(ctx, string(r.opts.Model)); err != nil {
		return "", err
	}

	answer, err := r.completer.Complete(ctx, llm.CompletionRequest{
		Model:       r.opts.Model,
		Prompt:      p,
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return classify.CleanText(answer), nil
}

// askOrError returns ErrorAnswer and waits out the cooldown when the model
// fails. Only context errors are returned.
func (r *Runner) askOrError(ctx context.Context, pmid string, p model.Prompt) (string, error) {
	answer, err := r.Ask(ctx, p)
	if err == nil {
		return answer, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	r.log.WithError(err).WithField("pmid", pmid).Error("Completion failed")
	if errors.Is(err, llm.ErrCircuitOpen) {
		r.log.WithField("cooldown", r.opts.Cooldown).Warn("Circuit open, cooling down")
	}
	if err := cooldownFunc(ctx, r.opts.Cooldown); err != nil {
		return "", err
	}
	return model.ErrorAnswer, nil
}

// RunFold answers every test paper with b and writes the fold's answer
// file. embeddings holds test embeddings by ID and is only consulted when
// the builder needs one.
func (r *Runner) RunFold(ctx context.Context, b prompt.Builder, fold int, test []model.Exemplar, embeddings map[string][]float64) ([]model.Prediction, error) {
	if r.opts.AnswerCol == "" {
		return nil, fmt.Errorf("%w: answer column must be set", prompt.ErrInvalidConfig)
	}

	log := r.log.WithFields(logrus.Fields{
		"answer_col": r.opts.AnswerCol,
		"fold":       fold,
		"builder":    b.Name(),
	})
	if s, ok := b.(fmt.Stringer); ok {
		log.Info(s.String())
	}

	promptDir := r.PromptDir(fold)
	preds := make([]model.Prediction, 0, len(test))
	failed := 0

	for _, ex := range test {
		var embedding []float64
		if b.NeedsEmbedding() {
			embedding = embeddings[ex.ID]
		}

		p, err := b.Build(ex.Combined, embedding)
		if err != nil {
			return preds, fmt.Errorf("build prompt for %s: %w", ex.ID, err)
		}
		if err := DumpPrompt(promptDir, ex.ID, r.opts.Model, p); err != nil {
			return preds, err
		}

		answer, err := r.askOrError(ctx, ex.ID, p)
		if err != nil {
			return preds, err
		}
		if answer == model.ErrorAnswer {
			failed++
		}

		pred := model.Prediction{
			RunID:       r.runID,
			AnswerCol:   r.opts.AnswerCol,
			Fold:        fold,
			PMID:        ex.ID,
			ReviewPaper: ex.ReviewPaper,
			Review:      ex.Review,
			Answer:      answer,
			Combined:    ex.Combined,
			Truth:       ex.Label,
			CreatedAt:   time.Now().UTC(),
		}
		if r.store != nil {
			if err := r.store.Save(ctx, &pred); err != nil {
				log.WithError(err).WithField("pmid", ex.ID).Warn("Failed to store prediction")
			}
		}
		preds = append(preds, pred)
	}

	if err := AnswersTable(r.opts.AnswerCol, fold, preds).Write(r.AnswerPath(fold)); err != nil {
		return preds, fmt.Errorf("write answers: %w", err)
	}

	log.WithFields(logrus.Fields{
		"answers": len(preds),
		"errors":  failed,
		"path":    r.AnswerPath(fold),
	}).Info("Fold completed")
	return preds, nil
}

// AnswerPath is <out>/<col>/<col>_<fold>.csv
func AnswerPath(outputDir, answerCol string, fold int) string {
	col := model.FoldColumn(answerCol, fold)
	return filepath.Join(outputDir, answerCol, col+".csv")
}

// AnswersTable renders predictions as PMID, Review_Paper, Review,
// <col>_<fold>, Combined
func AnswersTable(answerCol string, fold int, preds []model.Prediction) *dataset.Table {
	t := dataset.NewTable("PMID", "Review_Paper", "Review", model.FoldColumn(answerCol, fold), "Combined")
	for _, p := range preds {
		_ = t.Append(p.PMID, p.ReviewPaper, p.Review, p.Answer, p.Combined)
	}
	return t
}
