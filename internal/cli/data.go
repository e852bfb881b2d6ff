package cli

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/litscreen/internal/cache"
	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/pubmed"
)

var (
	scrapeTerm     string
	scrapeTermFile string
	scrapeStart    int
	scrapeEnd      int
	scrapeOut      string

	prepareOut string

	splitOutDir   string
	splitLabelCol string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape article metadata from PubMed search results",
	Long: `Scrape searches PubMed for a term and writes one row per article with an
abstract: PMID, Title, Abstract, Keyword, Year, Link, DOI.

Example:
  litscreen scrape --term-file terms.txt --start 1 --end 100 --out Nipah.csv`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"user-agent": "scrape.user_agent",
			"page-delay": "scrape.page_delay",
			"robots":     "scrape.respect_robots",
		})
	},
	RunE: runScrape,
}

var prepareCmd = &cobra.Command{
	Use:   "prepare <labeled.csv>",
	Short: "Build the Combined text column from a labeled article sheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrepare,
}

var splitCmd = &cobra.Command{
	Use:   "split <prepared.csv>",
	Short: "Write stratified cross-validation folds",
	Long: `Split writes train_<i>.csv and test_<i>.csv for every fold, stratified on
the label column, plus label_distribution.csv.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"folds":    "run.folds",
			"seed":     "run.seed",
			"data-dir": "run.data_dir",
		})
	},
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(scrapeCmd, prepareCmd, splitCmd)

	scrapeCmd.Flags().StringVar(&scrapeTerm, "term", "", "search term")
	scrapeCmd.Flags().StringVar(&scrapeTermFile, "term-file", "", "file holding the search term")
	scrapeCmd.Flags().IntVar(&scrapeStart, "start", 1, "first result page")
	scrapeCmd.Flags().IntVar(&scrapeEnd, "end", 100, "last result page")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "articles.csv", "output CSV path")
	scrapeCmd.Flags().String("user-agent", "", "HTTP User-Agent")
	scrapeCmd.Flags().Duration("page-delay", 0, "minimum delay between requests to PubMed")
	scrapeCmd.Flags().Bool("robots", true, "respect robots.txt")
	scrapeCmd.MarkFlagsMutuallyExclusive("term", "term-file")
	scrapeCmd.MarkFlagsOneRequired("term", "term-file")

	prepareCmd.Flags().StringVar(&prepareOut, "out", "prepared.csv", "output CSV path")

	splitCmd.Flags().Int("folds", 5, "number of folds")
	splitCmd.Flags().Uint64("seed", 123, "shuffle seed")
	splitCmd.Flags().String("data-dir", "", "output directory for the fold files")
	splitCmd.Flags().StringVar(&splitLabelCol, "label-col", "", "column to stratify on (default: the review column)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	term := scrapeTerm
	if scrapeTermFile != "" {
		if term, err = dataset.ReadText(scrapeTermFile); err != nil {
			return err
		}
	}

	client := pubmed.NewClient(cfg.Scrape, cache.New(cfg.Cache), cfg.Cache.DiskTTL, log)
	articles, err := client.Scrape(cmd.Context(), term, scrapeStart, scrapeEnd)
	if len(articles) > 0 {
		// Keep what was scraped before a failure
		if werr := dataset.ArticlesTable(articles).Write(scrapeOut); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	log.WithFields(logrus.Fields{"articles": len(articles), "path": scrapeOut}).Info("Scrape completed")
	return nil
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := dataset.ReadTable(args[0])
	if err != nil {
		return err
	}
	out, err := dataset.Prepare(in, dataset.ColumnMapFromModel(cfg.Dataset))
	if err != nil {
		return fmt.Errorf("prepare %s: %w", args[0], err)
	}
	if err := out.Write(prepareOut); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %d rows: %s\n", out.Len(), prepareOut)
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t, err := dataset.ReadTable(args[0])
	if err != nil {
		return err
	}

	labelCol := splitLabelCol
	if labelCol == "" {
		labelCol = cfg.Dataset.ReviewColumn
	}

	rng := rand.New(rand.NewPCG(cfg.Run.Seed, cfg.Run.Seed))
	folds, err := dataset.SplitFiles(t, labelCol, cfg.Run.Folds, rng, cfg.Run.DataDir)
	if err != nil {
		return fmt.Errorf("split %s: %w", args[0], err)
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %d folds: %s\n", len(folds), cfg.Run.DataDir)
	fmt.Fprintf(os.Stderr, "  Label distribution: %s\n", filepath.Join(cfg.Run.DataDir, "label_distribution.csv"))
	return nil
}
