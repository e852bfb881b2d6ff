package model

import "time"

// ErrorAnswer is recorded in place of an answer when the completion call failed
const ErrorAnswer = "ERROR"

// Prediction is one test paper with the model's answer and its mapped label
type Prediction struct {
	RunID       string    `json:"run_id"`
	AnswerCol   string    `json:"answer_col"` // e.g. Nipah_Q2_Turbo_FewCoT
	Fold        int       `json:"fold"`
	PMID        string    `json:"pmid"`
	ReviewPaper string    `json:"review_paper,omitempty"`
	Review      string    `json:"review"`
	Answer      string    `json:"answer"`
	Combined    string    `json:"combined,omitempty"`
	Truth       int       `json:"truth"`           // Binary label derived from Review
	Predicted   *Label    `json:"label,omitempty"` // Nil until the answer is mapped
	CreatedAt   time.Time `json:"created_at"`
}

// Column returns the per-fold answer column name
func (p Prediction) Column() string {
	return FoldColumn(p.AnswerCol, p.Fold)
}
