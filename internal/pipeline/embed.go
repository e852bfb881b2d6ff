package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/worker"
)

// EmbedTable embeds the text column of every row of t. Failed rows carry the
// placeholder vector; failed counts them.
func EmbedTable(ctx context.Context, b *worker.BatchEmbedder, t *dataset.Table, cols dataset.ColumnMap) (records []dataset.EmbeddingRecord, failed int, err error) {
	ids, err := t.Column(cols.ID)
	if err != nil {
		return nil, 0, err
	}
	texts, err := t.Column(cols.Text)
	if err != nil {
		return nil, 0, err
	}

	items := make([]worker.EmbedItem, len(ids))
	for i := range ids {
		items[i] = worker.EmbedItem{ID: ids[i], Text: texts[i]}
	}

	results := b.EmbedAll(ctx, items)
	records = make([]dataset.EmbeddingRecord, len(results))
	for i, res := range results {
		if res.Error != nil {
			failed++
		}
		records[i] = dataset.EmbeddingRecord{ID: res.ID, Embedding: res.Vector}
	}
	if err := ctx.Err(); err != nil {
		return records, failed, err
	}
	return records, failed, nil
}

// EmbedFolds writes embed_train_<i>.jsonl and embed_test_<i>.jsonl next to
// each fold's train and test files
func EmbedFolds(ctx context.Context, b *worker.BatchEmbedder, dir string, folds int, cols dataset.ColumnMap, log logrus.FieldLogger) error {
	for fold := 0; fold < folds; fold++ {
		pairs := []struct{ in, out string }{
			{dataset.TrainPath(dir, fold), dataset.TrainEmbeddingPath(dir, fold)},
			{dataset.TestPath(dir, fold), dataset.TestEmbeddingPath(dir, fold)},
		}
		for _, p := range pairs {
			t, err := dataset.ReadTable(p.in)
			if err != nil {
				return err
			}
			records, failed, err := EmbedTable(ctx, b, t, cols)
			if err != nil {
				return fmt.Errorf("embed %s: %w", p.in, err)
			}
			if err := dataset.SaveEmbeddings(p.out, records); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"fold":   fold,
				"rows":   len(records),
				"failed": failed,
				"path":   p.out,
			}).Info("Saved embeddings")
		}
	}
	return nil
}
