package prompt

import (
	"fmt"
	"strings"

	"github.com/ppiankov/litscreen/internal/model"
)

// Justification asks the model to explain a known answer. Its output fills
// the explanation column the few-shot builders draw worked answers from.
type Justification struct {
	model      model.ModelType
	system     string
	definition string
	question   string
	instructs  string
}

// NewJustification validates the inputs of a justification prompt
func NewJustification(m model.ModelType, system, definition, question, justificationPrompt string) (*Justification, error) {
	if !m.IsSupported() {
		return nil, fmt.Errorf("%w: model type %q not one of %v", ErrInvalidConfig, m, model.SupportedModels)
	}
	names := []string{"system", "definition", "question", "justification prompt"}
	for i, v := range []string{system, definition, question, justificationPrompt} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidConfig, names[i])
		}
	}
	return &Justification{
		model:      m,
		system:     system,
		definition: definition,
		question:   question,
		instructs:  justificationPrompt,
	}, nil
}

// Build returns the prompt explaining why review is the answer for context
func (j *Justification) Build(context, review string) model.Prompt {
	text := fmt.Sprintf("%s\n%s\nQuestion: %s\nAnswer: %s.\n%s ", j.definition, context, j.question, review, j.instructs)
	if j.model.IsLegacy() {
		return model.TextPrompt(text)
	}
	return model.ChatPrompt([]model.Turn{
		{Role: model.RoleSystem, Content: j.system},
		{Role: model.RoleUser, Content: text},
	})
}
