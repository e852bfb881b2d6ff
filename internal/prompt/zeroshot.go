package prompt

import (
	"fmt"

	"github.com/ppiankov/litscreen/internal/model"
)

// ZeroShot asks the question with definitions and no worked examples
type ZeroShot struct {
	cfg      Config
	question string
}

// NewZeroShot validates cfg and fixes the question framing
func NewZeroShot(cfg Config) (*ZeroShot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ZeroShot{cfg: cfg, question: cfg.questionPrompt("\n\n")}, nil
}

// Name returns the strategy name
func (z *ZeroShot) Name() string {
	return "zero-shot"
}

// NeedsEmbedding is always false
func (z *ZeroShot) NeedsEmbedding() bool {
	return false
}

// Build returns the prompt for context. The embedding is ignored.
func (z *ZeroShot) Build(context string, _ []float64) (model.Prompt, error) {
	if z.cfg.Model.IsLegacy() {
		return model.TextPrompt(fmt.Sprintf("%s\n%s\n%s", z.cfg.Definition, context, z.question)), nil
	}
	return model.ChatPrompt([]model.Turn{
		{Role: model.RoleSystem, Content: z.cfg.System},
		{Role: model.RoleUser, Content: fmt.Sprintf("%s\n\n%s\n%s", z.cfg.Definition, context, z.question)},
	}), nil
}

func (z *ZeroShot) String() string {
	return Describe(z.Name(), z.cfg, z.question)
}
