package pipeline

import (
	"fmt"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/prompt"
)

// LoadPromptConfig reads the prompt text blocks and bundles them with the
// model and mode flags
func LoadPromptConfig(files model.PromptFiles, m model.ModelType, cot, sub bool) (prompt.Config, error) {
	texts, err := readAll(map[string]string{
		"system":      files.System,
		"definition":  files.Definition,
		"question":    files.Question,
		"cot":         files.CoT,
		"noncot":      files.NonCoT,
		"subquestion": files.SubQuestion,
	})
	if err != nil {
		return prompt.Config{}, err
	}

	cfg := prompt.Config{
		Model:             m,
		System:            texts["system"],
		Definition:        texts["definition"],
		Question:          texts["question"],
		CoTPrompt:         texts["cot"],
		NonCoTPrompt:      texts["noncot"],
		SubQuestionPrompt: texts["subquestion"],
		CoT:               cot,
		Sub:               sub,
	}
	return cfg, cfg.Validate()
}

// LoadJustification reads the text blocks of the justification prompt
func LoadJustification(files model.PromptFiles, m model.ModelType) (*prompt.Justification, error) {
	texts, err := readAll(map[string]string{
		"system":        files.System,
		"definition":    files.Definition,
		"question":      files.Question,
		"justification": files.Justification,
	})
	if err != nil {
		return nil, err
	}
	return prompt.NewJustification(m, texts["system"], texts["definition"], texts["question"], texts["justification"])
}

func readAll(paths map[string]string) (map[string]string, error) {
	texts := make(map[string]string, len(paths))
	for name, path := range paths {
		if path == "" {
			return nil, fmt.Errorf("%w: no %s prompt file configured", prompt.ErrInvalidConfig, name)
		}
		text, err := dataset.ReadText(path)
		if err != nil {
			return nil, fmt.Errorf("read %s prompt: %w", name, err)
		}
		texts[name] = text
	}
	return texts, nil
}
