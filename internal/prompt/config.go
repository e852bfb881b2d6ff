// Package prompt builds zero-shot, few-shot and similarity-ranked few-shot
// prompts for classifying paper abstracts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ppiankov/litscreen/internal/model"
)

// Config is the text and mode bundle every builder is constructed from
type Config struct {
	Model             model.ModelType
	System            string // System message for chat models
	Definition        string // Definitions of the biomedical terms in the question
	Question          string
	CoTPrompt         string // Framing used when CoT is set
	NonCoTPrompt      string // Framing used in plain mode
	SubQuestionPrompt string // Framing used when Sub is set
	CoT               bool
	Sub               bool // Takes precedence over CoT
}

// Validate checks the model type and that every text block is present
func (c Config) Validate() error {
	if !c.Model.IsSupported() {
		return fmt.Errorf("%w: model type %q not one of %v", ErrInvalidConfig, c.Model, model.SupportedModels)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"system", c.System},
		{"definition", c.Definition},
		{"question", c.Question},
		{"cot prompt", c.CoTPrompt},
		{"noncot prompt", c.NonCoTPrompt},
		{"subquestion prompt", c.SubQuestionPrompt},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidConfig, f.name)
		}
	}
	return nil
}

type mode int

const (
	modePlain mode = iota
	modeCoT
	modeSub
)

func (c Config) mode() mode {
	switch {
	case c.Sub:
		return modeSub
	case c.CoT:
		return modeCoT
	default:
		return modePlain
	}
}

func (m mode) String() string {
	switch m {
	case modeSub:
		return "sub"
	case modeCoT:
		return "cot"
	default:
		return "plain"
	}
}

// filtered reports whether exemplars are restricted to those whose own
// generated explanation matched the ground truth
func (m mode) filtered() bool {
	return m != modePlain
}

// questionPrompt renders the question framing. The zero-shot builder puts a
// blank line before the CoT block, the few-shot builders do not.
func (c Config) questionPrompt(cotSep string) string {
	switch c.mode() {
	case modeSub:
		return fmt.Sprintf("Primary question: %s\n%s", c.Question, c.SubQuestionPrompt)
	case modeCoT:
		return fmt.Sprintf("Question: %s%s%s", c.Question, cotSep, c.CoTPrompt)
	default:
		return fmt.Sprintf("Question: %s\n%s", c.Question, c.NonCoTPrompt)
	}
}

// finish prepends the system turn for chat models or flattens the turns for
// the legacy completion model
func (c Config) finish(turns []model.Turn) model.Prompt {
	if c.Model.IsLegacy() {
		return model.TextPrompt(model.Flatten(turns))
	}
	out := make([]model.Turn, 0, len(turns)+1)
	out = append(out, model.Turn{Role: model.RoleSystem, Content: c.System})
	return model.ChatPrompt(append(out, turns...))
}
