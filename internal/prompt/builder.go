package prompt

import (
	"fmt"

	"github.com/ppiankov/litscreen/internal/classify"
	"github.com/ppiankov/litscreen/internal/model"
)

// Builder produces the prompt for one test paper
type Builder interface {
	// Name identifies the strategy in logs
	Name() string

	// NeedsEmbedding reports whether Build requires the test embedding
	NeedsEmbedding() bool

	// Build returns the prompt for the given paper text. Builders that do
	// not rank by similarity ignore embedding.
	Build(context string, embedding []float64) (model.Prompt, error)
}

// Describe renders a builder's configuration for run logs
func Describe(name string, c Config, question string) string {
	return fmt.Sprintf("%s builder: model=%s mode=%s question=%q", name, c.Model, c.mode(), question)
}

// exampleAnswer formats the worked answer for one exemplar. withConclusion
// appends the final-answer sentence in CoT mode.
func exampleAnswer(m mode, ex model.Exemplar, withConclusion bool) string {
	explanation := classify.CleanText(ex.Justification)
	switch m {
	case modeSub:
		return explanation
	case modeCoT:
		if withConclusion {
			return fmt.Sprintf("%s Therefore, the final answer is %s.", explanation, ex.Review)
		}
		return explanation
	default:
		return fmt.Sprintf("%s.", ex.Review)
	}
}

// exampleTurns renders one worked example as a user/assistant pair
func exampleTurns(question, definition string, m mode, ex model.Exemplar, withConclusion bool) []model.Turn {
	user := fmt.Sprintf("%s\n\n%s", ex.Combined, question)
	if definition != "" {
		user = fmt.Sprintf("%s\n\n%s", definition, user)
	}
	return []model.Turn{
		{Role: model.RoleUser, Content: user},
		{Role: model.RoleAssistant, Content: exampleAnswer(m, ex, withConclusion)},
	}
}

func testTurn(context, question string) model.Turn {
	return model.Turn{Role: model.RoleUser, Content: fmt.Sprintf("%s\n\n%s", context, question)}
}
