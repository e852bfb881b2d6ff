package dataset

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strconv"
)

// Fold holds the row indices of one cross-validation split, ascending
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold splits rows into k folds that keep each class's share.
// Rows of each class are shuffled with rng and dealt round-robin, so every
// row is in exactly one test set.
func StratifiedKFold(labels []string, k int, rng *rand.Rand) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if k > len(labels) {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", len(labels), k)
	}

	byClass := make(map[string][]int)
	var classes []string
	for i, l := range labels {
		if _, ok := byClass[l]; !ok {
			classes = append(classes, l)
		}
		byClass[l] = append(byClass[l], i)
	}
	sort.Strings(classes)

	testOf := make([]int, len(labels))
	next := 0
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		// Continue dealing where the previous class stopped so small classes
		// don't all land in the first folds
		for _, r := range rows {
			testOf[r] = next % k
			next++
		}
	}

	folds := make([]Fold, k)
	for r, f := range testOf {
		for i := range folds {
			if i == f {
				folds[i].Test = append(folds[i].Test, r)
			} else {
				folds[i].Train = append(folds[i].Train, r)
			}
		}
	}
	return folds, nil
}

// SplitFiles splits t on labelCol and writes train_{i}.csv, test_{i}.csv and
// label_distribution.csv to dir
func SplitFiles(t *Table, labelCol string, k int, rng *rand.Rand, dir string) ([]Fold, error) {
	labels, err := t.Column(labelCol)
	if err != nil {
		return nil, err
	}
	folds, err := StratifiedKFold(labels, k, rng)
	if err != nil {
		return nil, err
	}

	dist := NewTable("Dataset", "Label", "Count", "Percentage")
	for i, f := range folds {
		if err := t.Subset(f.Train).Write(TrainPath(dir, i)); err != nil {
			return nil, err
		}
		if err := t.Subset(f.Test).Write(TestPath(dir, i)); err != nil {
			return nil, err
		}
		appendDistribution(dist, fmt.Sprintf("train_%d", i), labels, f.Train)
		appendDistribution(dist, fmt.Sprintf("test_%d", i), labels, f.Test)
	}

	if err := dist.Write(filepath.Join(dir, "label_distribution.csv")); err != nil {
		return nil, err
	}
	return folds, nil
}

// appendDistribution adds one row per label, most frequent first
func appendDistribution(dist *Table, name string, labels []string, rows []int) {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[labels[r]]++
	}

	keys := make([]string, 0, len(counts))
	for l := range counts {
		keys = append(keys, l)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	for _, l := range keys {
		pct := 100 * float64(counts[l]) / float64(len(rows))
		dist.Rows = append(dist.Rows, []string{
			name, l, strconv.Itoa(counts[l]), strconv.FormatFloat(pct, 'f', 2, 64),
		})
	}
}

// TrainPath is the training file of fold i
func TrainPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("train_%d.csv", i))
}

// TestPath is the test file of fold i
func TestPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("test_%d.csv", i))
}

// TrainEmbeddingPath is the embeddings file for the training rows of fold i
func TrainEmbeddingPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("embed_train_%d.jsonl", i))
}

// TestEmbeddingPath is the embeddings file for the test rows of fold i
func TestEmbeddingPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("embed_test_%d.jsonl", i))
}
