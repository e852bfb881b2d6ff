package cli

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/pipeline"
	"github.com/ppiankov/litscreen/internal/prompt"
)

var (
	answerCol     string
	useCoT        bool
	useSub        bool
	trainDir      string
	positiveFirst bool
	topN          int
)

// runFlagKeys maps the shared prompting flags to configuration keys
var runFlagKeys = map[string]string{
	"model":           "llm.model",
	"temperature":     "llm.temperature",
	"folds":           "run.folds",
	"seed":            "run.seed",
	"data-dir":        "run.data_dir",
	"output-dir":      "run.output_dir",
	"parallel-folds":  "run.parallel_folds",
	"explanation-col": "dataset.explanation_column",
}

var zeroCmd = &cobra.Command{
	Use:   "zero",
	Short: "Answer every test paper with a zero-shot prompt",
	Long: `Zero asks the question with definitions and no worked examples.

Example:
  litscreen zero --answer-col Nipah_Q2_Turbo_ZeroCoT --cot`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, runFlagKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFolds(cmd, false, func(cfg prompt.Config) pipeline.BuilderFactory {
			return func(_ pipeline.FoldData, _ *rand.Rand) (prompt.Builder, error) {
				return prompt.NewZeroShot(cfg)
			}
		})
	},
}

var fewCmd = &cobra.Command{
	Use:   "few",
	Short: "Answer every test paper with one positive and one negative random example",
	Long: `Few draws one positive and one negative worked example from each fold's
training set for every test paper. With --cot or --sub only training papers
whose generated explanation agrees with their label are drawn.

Example:
  litscreen few --answer-col Nipah_Q2_Turbo_FewCoT --cot --positive-first`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, runFlagKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFolds(cmd, false, func(cfg prompt.Config) pipeline.BuilderFactory {
			return func(data pipeline.FoldData, rng *rand.Rand) (prompt.Builder, error) {
				return prompt.NewFewShot(cfg, data.Train, prompt.FewShotOptions{
					PositiveFirst: positiveFirst,
					Rand:          rng,
				})
			}
		})
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Answer every test paper with its most similar training examples",
	Long: `Similar ranks each fold's training papers by cosine similarity of their
embeddings to the test paper and uses the top N as worked examples. Run
'litscreen embed' first.

Example:
  litscreen similar --answer-col Nipah_Q2_Turbo_SimilarCoT --cot --top-n 3`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, runFlagKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFolds(cmd, true, func(cfg prompt.Config) pipeline.BuilderFactory {
			return func(data pipeline.FoldData, _ *rand.Rand) (prompt.Builder, error) {
				return prompt.NewSimilarShot(cfg, data.Train, data.TrainEmbeddings, topN)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(zeroCmd, fewCmd, similarCmd)

	for _, cmd := range []*cobra.Command{zeroCmd, fewCmd, similarCmd} {
		addRunFlags(cmd)
		cmd.Flags().StringVar(&trainDir, "train-dir", "", "read training folds from another dataset (default: --data-dir)")
	}
	fewCmd.Flags().BoolVar(&positiveFirst, "positive-first", false, "put the positive example first")
	similarCmd.Flags().IntVar(&topN, "top-n", 1, "number of most similar training examples")
}

// addRunFlags registers the flags every prompting command shares
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&answerCol, "answer-col", "", "answer column name; answers go to <output-dir>/<answer-col>/")
	cmd.Flags().BoolVar(&useCoT, "cot", false, "chain-of-thought prompting")
	cmd.Flags().BoolVar(&useSub, "sub", false, "sub-question prompting (takes precedence over --cot)")
	cmd.Flags().String("model", "", fmt.Sprintf("model type %v", model.SupportedModels))
	cmd.Flags().Float32("temperature", 0, "sampling temperature")
	cmd.Flags().Int("folds", 5, "number of folds")
	cmd.Flags().Uint64("seed", 123, "sampling seed")
	cmd.Flags().String("data-dir", "", "directory of the cross-validation folds")
	cmd.Flags().String("output-dir", "", "directory for answers and prompt dumps")
	cmd.Flags().Int("parallel-folds", 1, "folds to run at once")
	cmd.Flags().String("explanation-col", "", "column holding generated explanations")
	_ = cmd.MarkFlagRequired("answer-col")
}

func runFolds(cmd *cobra.Command, withEmbeddings bool, factory func(prompt.Config) pipeline.BuilderFactory) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	promptCfg, err := pipeline.LoadPromptConfig(cfg.Prompt, model.ModelType(cfg.LLM.Model), useCoT, useSub)
	if err != nil {
		return err
	}

	runner, closeStore, err := newRunner(cfg, answerCol, log)
	if err != nil {
		return err
	}
	defer closeStore()

	log.WithField("run_id", runner.RunID()).Infof("Running %s: %s", cmd.Name(), answerCol)

	src := pipeline.FoldSource{
		DataDir:  cfg.Run.DataDir,
		TrainDir: trainDir,
		Folds:    cfg.Run.Folds,
		Seed:     cfg.Run.Seed,
		Parallel: cfg.Run.ParallelFolds,
	}
	if err := runner.RunFolds(cmd.Context(), src, withEmbeddings, factory(promptCfg)); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ %s completed: %s\n", cmd.Name(), runner.AnswerDir())
	return nil
}
