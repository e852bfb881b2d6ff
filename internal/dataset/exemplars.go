package dataset

import (
	"fmt"

	"github.com/ppiankov/litscreen/internal/model"
)

// ColumnMap names the columns exemplar fields are read from
type ColumnMap struct {
	ID          string
	ReviewPaper string
	Review      string
	Text        string
	Explanation string // Optional; empty skips justifications
}

// ColumnMapFromModel converts the dataset section of the run configuration
func ColumnMapFromModel(c model.DatasetConfig) ColumnMap {
	return ColumnMap{
		ID:          c.IDColumn,
		ReviewPaper: c.ReviewPaperColumn,
		Review:      c.ReviewColumn,
		Text:        c.TextColumn,
		Explanation: c.ExplanationColumn,
	}
}

// LabelColumn names the column holding the classification of a text column
func LabelColumn(column string) string {
	return column + "_TF"
}

type resolvedColumns struct {
	id, reviewPaper, review, text int
	explanation, explanationLabel int
}

// resolve looks up every column index once. Review paper, explanation and
// explanation label are optional and resolve to -1 when absent.
func (m ColumnMap) resolve(t *Table) (resolvedColumns, error) {
	var rc resolvedColumns
	var err error
	if rc.id, err = t.Index(m.ID); err != nil {
		return rc, err
	}
	if rc.review, err = t.Index(m.Review); err != nil {
		return rc, err
	}
	if rc.text, err = t.Index(m.Text); err != nil {
		return rc, err
	}

	optional := func(name string) int {
		if name == "" {
			return -1
		}
		i, err := t.Index(name)
		if err != nil {
			return -1
		}
		return i
	}
	rc.reviewPaper = optional(m.ReviewPaper)
	rc.explanation = optional(m.Explanation)
	rc.explanationLabel = -1
	if m.Explanation != "" {
		rc.explanationLabel = optional(LabelColumn(m.Explanation))
	}
	return rc, nil
}

// Exemplars converts table rows to exemplars
func Exemplars(t *Table, cols ColumnMap) ([]model.Exemplar, error) {
	rc, err := cols.resolve(t)
	if err != nil {
		return nil, err
	}

	out := make([]model.Exemplar, len(t.Rows))
	for r, row := range t.Rows {
		ex := model.Exemplar{
			ID:       row[rc.id],
			Review:   row[rc.review],
			Label:    model.LabelFromReview(row[rc.review]),
			Combined: row[rc.text],
		}
		if rc.reviewPaper >= 0 {
			ex.ReviewPaper = row[rc.reviewPaper]
		}
		if rc.explanation >= 0 {
			ex.Justification = row[rc.explanation]
		}
		if rc.explanationLabel >= 0 && row[rc.explanationLabel] != "" {
			l, err := model.ParseLabel(row[rc.explanationLabel])
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): %w", r+1, ex.ID, err)
			}
			ex.JustificationLabel = &l
		}
		out[r] = ex
	}
	return out, nil
}

// LoadExemplars reads a fold file into exemplars
func LoadExemplars(path string, cols ColumnMap) ([]model.Exemplar, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	ex, err := Exemplars(t, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ex, nil
}
