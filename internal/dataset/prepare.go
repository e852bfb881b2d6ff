package dataset

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/litscreen/internal/model"
)

// Combine renders the text a model sees for one paper. The keyword line is
// left out when keywords are missing.
func Combine(title, keywords, abstract string) string {
	var b strings.Builder
	b.WriteString("Paper:\nTitle: ")
	b.WriteString(title)
	if keywords != "" && keywords != model.Missing {
		b.WriteString("\n")
		b.WriteString(keywords)
	}
	b.WriteString("\nAbstract: ")
	b.WriteString(abstract)
	return b.String()
}

// ReviewAnswer maps a boolean review cell to "Yes" or "No"
func ReviewAnswer(cell string) (string, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(cell))
	if err != nil {
		return "", fmt.Errorf("review %q is not a boolean", cell)
	}
	if b {
		return "Yes", nil
	}
	return "No", nil
}

// Prepare turns a labeled article sheet (PMID, Review_Paper, boolean Review,
// Title, Keyword, Abstract) into the PMID, Review_Paper, Review, Combined
// table the rest of the pipeline reads
func Prepare(in *Table, cols ColumnMap) (*Table, error) {
	need := []string{cols.ID, cols.ReviewPaper, cols.Review, "Title", "Keyword", "Abstract"}
	idx := make([]int, len(need))
	for n, name := range need {
		i, err := in.Index(name)
		if err != nil {
			return nil, err
		}
		idx[n] = i
	}

	out := NewTable(cols.ID, cols.ReviewPaper, cols.Review, cols.Text)
	for r, row := range in.Rows {
		review, err := ReviewAnswer(row[idx[2]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r+1, err)
		}
		combined := Combine(row[idx[3]], row[idx[4]], row[idx[5]])
		if err := out.Append(row[idx[0]], row[idx[1]], review, combined); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ArticlesTable renders scraped articles in the column order the scraper writes
func ArticlesTable(articles []model.Article) *Table {
	t := NewTable("PMID", "Title", "Abstract", "Keyword", "Year", "Link", "DOI")
	for _, a := range articles {
		t.Rows = append(t.Rows, []string{a.PMID, a.Title, a.Abstract, a.Keywords, a.Year, a.Link, a.DOI})
	}
	return t
}

// ReadText reads a prompt text file, trimming surrounding whitespace
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
