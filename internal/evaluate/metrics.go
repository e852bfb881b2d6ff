// Package evaluate scores mapped answers against ground truth per fold.
package evaluate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/model"
)

// Metrics is the score of one fold. YES is the positive class; answers
// mapped to anything other than YES or NO count as wrong.
type Metrics struct {
	Fold      int
	Total     int
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Counts    map[model.Label]int
}

// Score computes metrics from truth labels (0/1) and mapped predictions
func Score(fold int, truth []int, predicted []model.Label) (Metrics, error) {
	if len(truth) != len(predicted) {
		return Metrics{}, fmt.Errorf("%d truth labels for %d predictions", len(truth), len(predicted))
	}

	m := Metrics{Fold: fold, Total: len(truth), Counts: make(map[model.Label]int)}
	var tp, fp, fn, correct int
	for i, p := range predicted {
		m.Counts[p]++
		switch {
		case p == model.LabelYes && truth[i] == 1:
			tp++
			correct++
		case p == model.LabelYes:
			fp++
		case truth[i] == 1:
			fn++
		case p == model.LabelNo:
			correct++
		}
	}

	m.Accuracy = ratio(correct, m.Total)
	m.Precision = ratio(tp, tp+fp)
	m.Recall = ratio(tp, tp+fn)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// FromAnswers scores a `<col>_<fold>_ans.csv` table
func FromAnswers(t *dataset.Table, answerCol string, fold int) (Metrics, error) {
	tfCol := dataset.LabelColumn(model.FoldColumn(answerCol, fold))

	truthCells, err := t.Column("Label")
	if err != nil {
		return Metrics{}, err
	}
	predCells, err := t.Column(tfCol)
	if err != nil {
		return Metrics{}, err
	}

	truth := make([]int, len(truthCells))
	predicted := make([]model.Label, len(predCells))
	for i := range truthCells {
		if truth[i], err = strconv.Atoi(truthCells[i]); err != nil {
			return Metrics{}, fmt.Errorf("row %d: truth %q: %w", i+1, truthCells[i], err)
		}
		if predicted[i], err = model.ParseLabel(predCells[i]); err != nil {
			return Metrics{}, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return Score(fold, truth, predicted)
}

// Table renders per-fold metrics followed by mean and std rows. The std is
// the sample standard deviation.
func Table(folds []Metrics) *dataset.Table {
	header := []string{"", "accuracy", "precision", "recall", "f1"}
	for _, l := range model.AllLabels {
		header = append(header, "n_"+l.String())
	}
	t := dataset.NewTable(header...)

	values := func(m Metrics) []float64 {
		v := []float64{m.Accuracy, m.Precision, m.Recall, m.F1}
		for _, l := range model.AllLabels {
			v = append(v, float64(m.Counts[l]))
		}
		return v
	}

	cols := len(header) - 1
	sum := make([]float64, cols)
	all := make([][]float64, len(folds))
	for i, m := range folds {
		all[i] = values(m)
		for c, v := range all[i] {
			sum[c] += v
		}
		t.Rows = append(t.Rows, formatRow(strconv.Itoa(m.Fold), all[i]))
	}
	if len(folds) == 0 {
		return t
	}

	mean := make([]float64, cols)
	std := make([]float64, cols)
	for c := range mean {
		mean[c] = sum[c] / float64(len(folds))
	}
	if len(folds) > 1 {
		for c := range std {
			var ss float64
			for _, row := range all {
				d := row[c] - mean[c]
				ss += d * d
			}
			std[c] = math.Sqrt(ss / float64(len(folds)-1))
		}
	}
	t.Rows = append(t.Rows, formatRow("mean", mean), formatRow("std", std))
	return t
}

func formatRow(name string, values []float64) []string {
	row := []string{name}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
	}
	return row
}
