package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/classify"
	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/store"
)

// MappedPath is <out>/<col>/<col>_<fold>_ans.csv
func MappedPath(outputDir, answerCol string, fold int) string {
	col := model.FoldColumn(answerCol, fold)
	return filepath.Join(outputDir, answerCol, col+"_ans.csv")
}

// MapAnswers adds the truth Label and the classified <col>_<fold>_TF column
// to an answer table and returns PMID, Review_Paper, Review, <col>_<fold>,
// Label, <col>_<fold>_TF
func MapAnswers(t *dataset.Table, answerCol string, fold int) (*dataset.Table, error) {
	ansCol := model.FoldColumn(answerCol, fold)
	tfCol := dataset.LabelColumn(ansCol)

	reviews, err := t.Column("Review")
	if err != nil {
		return nil, err
	}
	answers, err := t.Column(ansCol)
	if err != nil {
		return nil, err
	}

	truth := make([]string, len(reviews))
	labels := make([]string, len(answers))
	for i := range reviews {
		truth[i] = strconv.Itoa(model.LabelFromReview(reviews[i]))
		labels[i] = strconv.Itoa(int(classify.Classify(answers[i])))
	}

	out := t.Subset(allRows(t.Len()))
	if err := out.SetColumn("Label", truth); err != nil {
		return nil, err
	}
	if err := out.SetColumn(tfCol, labels); err != nil {
		return nil, err
	}
	return out.Select("PMID", "Review_Paper", "Review", ansCol, "Label", tfCol)
}

// MapFold maps the answer file of one fold, writes <col>_<fold>_ans.csv and
// records the labels in st when it is not nil
func MapFold(ctx context.Context, outputDir, answerCol string, fold int, st store.Store, log logrus.FieldLogger) (*dataset.Table, error) {
	in, err := dataset.ReadTable(AnswerPath(outputDir, answerCol, fold))
	if err != nil {
		return nil, err
	}

	mapped, err := MapAnswers(in, answerCol, fold)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", model.FoldColumn(answerCol, fold), err)
	}

	path := MappedPath(outputDir, answerCol, fold)
	if err := mapped.Write(path); err != nil {
		return nil, err
	}

	if st != nil {
		pmids, _ := mapped.Column("PMID")
		labels, _ := mapped.Column(dataset.LabelColumn(model.FoldColumn(answerCol, fold)))
		for i := range pmids {
			l, err := model.ParseLabel(labels[i])
			if err != nil {
				return nil, err
			}
			if err := st.SetLabel(ctx, answerCol, fold, pmids[i], l); err != nil {
				log.WithError(err).WithField("pmid", pmids[i]).Debug("No stored prediction to label")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"answer_col": answerCol,
		"fold":       fold,
		"rows":       mapped.Len(),
		"path":       path,
	}).Info("Mapped answers")
	return mapped, nil
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
