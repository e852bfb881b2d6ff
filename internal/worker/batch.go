package worker

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/llm"
)

// EmbedItem is one text to embed
type EmbedItem struct {
	ID   string
	Text string
}

// EmbedJob embeds one item
type EmbedJob struct {
	Item     EmbedItem
	Embedder llm.Embedder
	Limiter  *Limiter
	Key      string
}

// Execute executes the embedding job
func (j *EmbedJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Key); err != nil {
			return &EmbedResult{ID: j.Item.ID, Error: err}
		}
	}
	vec, err := j.Embedder.Embed(ctx, j.Item.Text)
	return &EmbedResult{ID: j.Item.ID, Vector: vec, Error: err}
}

// EmbedResult represents the result of an embedding job
type EmbedResult struct {
	ID     string
	Vector []float64
	Error  error
}

// GetError returns the error from the embedding result
func (r *EmbedResult) GetError() error {
	return r.Error
}

// BatchEmbedder embeds many texts concurrently
type BatchEmbedder struct {
	embedder    llm.Embedder
	concurrency int
	limiter     *Limiter
	key         string
	dimensions  int
	log         logrus.FieldLogger
}

// NewBatchEmbedder creates a batch embedder. Requests share the limiter
// bucket for key. Failed items get a placeholder vector of dimensions -1s.
func NewBatchEmbedder(embedder llm.Embedder, concurrency int, limiter *Limiter, key string, dimensions int, log logrus.FieldLogger) *BatchEmbedder {
	return &BatchEmbedder{
		embedder:    embedder,
		concurrency: concurrency,
		limiter:     limiter,
		key:         key,
		dimensions:  dimensions,
		log:         log,
	}
}

// EmbedAll returns one result per item, in item order. A failed item keeps
// its error and carries the placeholder vector so row alignment holds.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, items []EmbedItem) []*EmbedResult {
	jobs := make([]Job, len(items))
	for i, item := range items {
		jobs[i] = &EmbedJob{Item: item, Embedder: b.embedder, Limiter: b.limiter, Key: b.key}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	out := make([]*EmbedResult, len(items))
	for i, r := range results {
		res, ok := r.(*EmbedResult)
		if !ok {
			res = &EmbedResult{ID: items[i].ID, Error: ctx.Err()}
		}
		if res.Error != nil {
			b.log.WithError(res.Error).WithField("id", res.ID).Warn("embedding failed, using placeholder")
			res.Vector = Placeholder(b.dimensions)
		}
		out[i] = res
	}
	return out
}

// Placeholder returns the vector recorded for a failed embedding
func Placeholder(dimensions int) []float64 {
	vec := make([]float64, dimensions)
	for i := range vec {
		vec[i] = -1
	}
	return vec
}
