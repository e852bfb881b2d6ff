package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/classify"
	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/prompt"
)

// ExplainFunc builds the prompt that explains one paper's answer
type ExplainFunc func(context, review string) (model.Prompt, error)

// ZeroShotExplanations asks the question zero-shot; in CoT mode the answer
// is a step-by-step explanation
func ZeroShotExplanations(z *prompt.ZeroShot) ExplainFunc {
	return func(context, _ string) (model.Prompt, error) {
		return z.Build(context, nil)
	}
}

// JustificationExplanations asks the model to justify the known answer
func JustificationExplanations(j *prompt.Justification) ExplainFunc {
	return func(context, review string) (model.Prompt, error) {
		return j.Build(context, review), nil
	}
}

// Explain generates an explanation for every row of t into saveCol and the
// classification of that explanation into saveCol_TF. Prompts are dumped to
// promptDir.
func (r *Runner) Explain(ctx context.Context, t *dataset.Table, explain ExplainFunc, saveCol, promptDir string) error {
	cols := r.opts.Columns
	ids, err := t.Column(cols.ID)
	if err != nil {
		return err
	}
	reviews, err := t.Column(cols.Review)
	if err != nil {
		return err
	}
	texts, err := t.Column(cols.Text)
	if err != nil {
		return err
	}

	explanations := make([]string, t.Len())
	labels := make([]string, t.Len())
	failed := 0

	for i := range ids {
		p, err := explain(texts[i], reviews[i])
		if err != nil {
			return fmt.Errorf("build prompt for %s: %w", ids[i], err)
		}
		if err := DumpPrompt(promptDir, ids[i], r.opts.Model, p); err != nil {
			return err
		}

		answer, err := r.askOrError(ctx, ids[i], p)
		if err != nil {
			return err
		}
		if answer == model.ErrorAnswer {
			failed++
		}
		explanations[i] = answer
		labels[i] = strconv.Itoa(int(classify.Classify(answer)))
	}

	if err := t.SetColumn(saveCol, explanations); err != nil {
		return err
	}
	if err := t.SetColumn(dataset.LabelColumn(saveCol), labels); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"column": saveCol,
		"rows":   t.Len(),
		"errors": failed,
	}).Info("Explanation generation completed")
	return nil
}
