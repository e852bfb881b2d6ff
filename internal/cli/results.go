package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/evaluate"
	"github.com/ppiankov/litscreen/internal/pipeline"
)

var (
	answerCols     []string
	answerColsFile string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map free-text answers to labels",
	Long: `Map reads <output-dir>/<col>/<col>_<fold>.csv, adds the truth Label and the
classified answer <col>_<fold>_TF, and writes <col>_<fold>_ans.csv.

Example:
  litscreen map --answer-cols-file answer_columns.txt`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, resultFlagKeys)
	},
	RunE: runMap,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score mapped answers per fold",
	Long: `Evaluate scores <col>_<fold>_ans.csv with YES as the positive class and
writes per-fold accuracy, precision, recall, F1 and label counts, followed
by mean and std rows, to <output-dir>/<col>/<col>_metrics.csv.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, resultFlagKeys)
	},
	RunE: runEvaluate,
}

var resultFlagKeys = map[string]string{
	"folds":      "run.folds",
	"output-dir": "run.output_dir",
}

func init() {
	rootCmd.AddCommand(mapCmd, evaluateCmd)

	for _, cmd := range []*cobra.Command{mapCmd, evaluateCmd} {
		cmd.Flags().StringSliceVar(&answerCols, "answer-col", nil, "answer column (repeatable)")
		cmd.Flags().StringVar(&answerColsFile, "answer-cols-file", "", "file listing one answer column per line")
		cmd.Flags().Int("folds", 5, "number of folds")
		cmd.Flags().String("output-dir", "", "directory holding the answer folders")
		cmd.MarkFlagsOneRequired("answer-col", "answer-cols-file")
	}
}

// selectedColumns merges --answer-col and the lines of --answer-cols-file
func selectedColumns() ([]string, error) {
	cols := append([]string(nil), answerCols...)
	if answerColsFile == "" {
		return cols, nil
	}

	f, err := os.Open(answerColsFile)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if col := strings.TrimSpace(sc.Text()); col != "" {
			cols = append(cols, col)
		}
	}
	return cols, sc.Err()
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	cols, err := selectedColumns()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
	}

	for _, col := range cols {
		for fold := 0; fold < cfg.Run.Folds; fold++ {
			if _, err := pipeline.MapFold(cmd.Context(), cfg.Run.OutputDir, col, fold, st, log); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(os.Stderr, "✓ Mapped %d answer columns x %d folds\n", len(cols), cfg.Run.Folds)
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cols, err := selectedColumns()
	if err != nil {
		return err
	}

	for _, col := range cols {
		folds := make([]evaluate.Metrics, 0, cfg.Run.Folds)
		for fold := 0; fold < cfg.Run.Folds; fold++ {
			t, err := dataset.ReadTable(pipeline.MappedPath(cfg.Run.OutputDir, col, fold))
			if err != nil {
				return fmt.Errorf("%s: %w (run 'litscreen map' first)", col, err)
			}
			m, err := evaluate.FromAnswers(t, col, fold)
			if err != nil {
				return fmt.Errorf("%s fold %d: %w", col, fold, err)
			}
			folds = append(folds, m)
		}

		metrics := evaluate.Table(folds)
		path := filepath.Join(cfg.Run.OutputDir, col, col+"_metrics.csv")
		if err := metrics.Write(path); err != nil {
			return err
		}

		fmt.Printf("%s\n", col)
		if err := metrics.Encode(os.Stdout); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}
