package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/pipeline"
	"github.com/ppiankov/litscreen/internal/prompt"
)

var (
	explainOut     string
	explainSaveCol string
	explainCoT     bool
	explainSub     bool
)

var explainCmd = &cobra.Command{
	Use:   "explain <prepared.csv>",
	Short: "Generate an explanation for every paper's answer",
	Long: `Explain adds a generated explanation column and its classification
(<save-col>_TF) to a prepared dataset. With --cot the explanation is a
zero-shot chain-of-thought answer; otherwise the model justifies the
reviewers' answer. Few-shot CoT prompts draw their worked answers from
this column.

Example:
  litscreen explain Nipah_pre.csv --out Nipah_pre_explanations.csv`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"model":       "llm.model",
			"temperature": "llm.temperature",
		})
	},
	RunE: runExplain,
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed the train and test papers of every fold",
	Long: `Embed writes embed_train_<i>.jsonl and embed_test_<i>.jsonl next to the
fold files. Papers that fail to embed get a vector of -1s.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"folds":    "run.folds",
			"data-dir": "run.data_dir",
			"workers":  "embedding.workers",
		})
	},
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(explainCmd, embedCmd)

	explainCmd.Flags().StringVar(&explainOut, "out", "", "output CSV path (default: overwrite the input)")
	explainCmd.Flags().StringVar(&explainSaveCol, "save-col", "Generated_justification", "column to save explanations in")
	explainCmd.Flags().BoolVar(&explainCoT, "cot", true, "explain with a zero-shot chain-of-thought prompt")
	explainCmd.Flags().BoolVar(&explainSub, "sub", false, "sub-question prompting (with --cot)")
	explainCmd.Flags().String("model", "", fmt.Sprintf("model type %v", model.SupportedModels))
	explainCmd.Flags().Float32("temperature", 0, "sampling temperature")

	embedCmd.Flags().Int("folds", 5, "number of folds")
	embedCmd.Flags().String("data-dir", "", "directory of the cross-validation folds")
	embedCmd.Flags().Int("workers", 4, "concurrent embedding requests")
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	m := model.ModelType(cfg.LLM.Model)
	var explain pipeline.ExplainFunc
	if explainCoT {
		promptCfg, err := pipeline.LoadPromptConfig(cfg.Prompt, m, true, explainSub)
		if err != nil {
			return err
		}
		z, err := prompt.NewZeroShot(promptCfg)
		if err != nil {
			return err
		}
		explain = pipeline.ZeroShotExplanations(z)
	} else {
		j, err := pipeline.LoadJustification(cfg.Prompt, m)
		if err != nil {
			return err
		}
		explain = pipeline.JustificationExplanations(j)
	}

	t, err := dataset.ReadTable(args[0])
	if err != nil {
		return err
	}

	runner, closeStore, err := newRunner(cfg, explainSaveCol, log)
	if err != nil {
		return err
	}
	defer closeStore()

	out := explainOut
	if out == "" {
		out = args[0]
	}
	promptDir := filepath.Join(filepath.Dir(out), explainSaveCol)
	if err := runner.Explain(cmd.Context(), t, explain, explainSaveCol, promptDir); err != nil {
		return err
	}
	if err := t.Write(out); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %s and %s: %s\n", explainSaveCol, dataset.LabelColumn(explainSaveCol), out)
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	b, err := newBatchEmbedder(cfg, log)
	if err != nil {
		return err
	}
	if err := pipeline.EmbedFolds(cmd.Context(), b, cfg.Run.DataDir, cfg.Run.Folds, dataset.ColumnMapFromModel(cfg.Dataset), log); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Embedded %d folds: %s\n", cfg.Run.Folds, cfg.Run.DataDir)
	return nil
}
