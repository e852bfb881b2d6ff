package model

import "strings"

// ModelType identifies a supported completion model
type ModelType string

const (
	ModelDavinci003   ModelType = "text-davinci-003" // Legacy completion-style model
	ModelGPT35Turbo   ModelType = "gpt-3.5-turbo"
	ModelGPT35Turbo16 ModelType = "gpt-3.5-turbo-16k"
	ModelGPT35Turbo03 ModelType = "gpt-3.5-turbo-0301"
	ModelGPT4         ModelType = "gpt-4"
)

// SupportedModels lists every model a prompt can be built for
var SupportedModels = []ModelType{
	ModelDavinci003,
	ModelGPT35Turbo,
	ModelGPT35Turbo16,
	ModelGPT35Turbo03,
	ModelGPT4,
}

// IsSupported reports whether m is a known model
func (m ModelType) IsSupported() bool {
	for _, s := range SupportedModels {
		if m == s {
			return true
		}
	}
	return false
}

// IsLegacy reports whether m takes a single flattened text prompt
func (m ModelType) IsLegacy() bool {
	return m == ModelDavinci003
}

// Role of a chat turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a chat prompt
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Prompt is what gets sent to the completion service. Exactly one of Text
// (legacy models) or Turns (chat models) is set.
type Prompt struct {
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Turns []Turn `json:"turns,omitempty" yaml:"turns,omitempty"`
}

// TextPrompt wraps a flattened legacy prompt
func TextPrompt(text string) Prompt {
	return Prompt{Text: text}
}

// ChatPrompt wraps a turn sequence
func ChatPrompt(turns []Turn) Prompt {
	return Prompt{Turns: turns}
}

// IsChat reports whether the prompt is a turn sequence
func (p Prompt) IsChat() bool {
	return p.Turns != nil
}

// String renders the prompt as plain text, dropping roles for chat prompts
func (p Prompt) String() string {
	if !p.IsChat() {
		return p.Text
	}
	return Flatten(p.Turns)
}

// Flatten joins turn contents with newlines, dropping role information
func Flatten(turns []Turn) string {
	contents := make([]string, len(turns))
	for i, t := range turns {
		contents[i] = t.Content
	}
	return strings.Join(contents, "\n")
}
