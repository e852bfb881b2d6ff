package model

import "strings"

// Exemplar is one labeled paper from a training or test fold
type Exemplar struct {
	ID          string `json:"pmid"`                   // PubMed identifier
	ReviewPaper string `json:"review_paper,omitempty"` // Review paper the label came from
	Review      string `json:"review"`                 // Ground-truth review answer, e.g. "Yes"
	Label       int    `json:"label"`                  // 1 if Review says YES, else 0
	Combined    string `json:"combined"`               // Title, keywords and abstract

	// Justification is the LLM-generated explanation for this paper, if any
	Justification string `json:"justification,omitempty"`

	// JustificationLabel is the classification of Justification, nil when the
	// dataset carries no correctness column for it
	JustificationLabel *Label `json:"justification_label,omitempty"`

	Embedding []float64 `json:"embedding,omitempty"`
}

// LabelFromReview derives the binary ground-truth label from review text
func LabelFromReview(review string) int {
	if strings.Contains(strings.ToUpper(review), "YES") {
		return 1
	}
	return 0
}

// JustificationMatches reports whether the explanation was classified as the
// paper's ground-truth answer
func (e Exemplar) JustificationMatches() bool {
	return e.JustificationLabel != nil && int(*e.JustificationLabel) == e.Label
}

// Article is a scraped PubMed record before labeling
type Article struct {
	PMID     string `json:"pmid"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Keywords string `json:"keywords"`
	Year     string `json:"year"`
	Link     string `json:"link"`
	DOI      string `json:"doi"`
}

// Missing marks a field that could not be scraped
const Missing = "Missing"
