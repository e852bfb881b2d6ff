package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/litscreen/internal/model"
)

// PromptDump is the record written for every prompt sent to the model
type PromptDump struct {
	PMID  string       `yaml:"pmid"`
	Model string       `yaml:"model"`
	Text  string       `yaml:"text,omitempty"`
	Turns []model.Turn `yaml:"turns,omitempty"`
}

// DumpPrompt writes p to <dir>/<pmid>.yaml
func DumpPrompt(dir, pmid string, m model.ModelType, p model.Prompt) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	data, err := yaml.Marshal(PromptDump{PMID: pmid, Model: string(m), Text: p.Text, Turns: p.Turns})
	if err != nil {
		return fmt.Errorf("marshal prompt %s: %w", pmid, err)
	}

	path := filepath.Join(dir, pmid+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write prompt %s: %w", pmid, err)
	}
	return nil
}

// ReadPromptDump loads a prompt written by DumpPrompt
func ReadPromptDump(path string) (PromptDump, error) {
	var d PromptDump
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}
