package pipeline

import (
	"context"
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/worker"
)

type textEmbedder struct{}

func (textEmbedder) Name() string { return "text" }

func (textEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if text == "NEG" {
		return nil, errors.New("rejected")
	}
	return []float64{float64(len(text)), 1, 0}, nil
}

func TestEmbedFolds(t *testing.T) {
	dir := t.TempDir()
	writeFold(t, dir, 0)
	log, _ := logtest.NewNullLogger()
	b := worker.NewBatchEmbedder(textEmbedder{}, 2, nil, "text", 3, log)

	require.NoError(t, EmbedFolds(context.Background(), b, dir, 1, testColumns(), log))

	train, err := dataset.LoadEmbeddings(dataset.TrainEmbeddingPath(dir, 0))
	require.NoError(t, err)
	assert.Equal(t, map[string][]float64{
		"1train_0.csv": {3, 1, 0},
		"2train_0.csv": {-1, -1, -1},
	}, train)

	test, err := dataset.LoadEmbeddings(dataset.TestEmbeddingPath(dir, 0))
	require.NoError(t, err)
	assert.Len(t, test, 2)
}

func TestEmbedTable_MissingColumn(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	b := worker.NewBatchEmbedder(textEmbedder{}, 1, nil, "text", 3, log)

	_, _, err := EmbedTable(context.Background(), b, dataset.NewTable("PMID"), testColumns())
	require.ErrorIs(t, err, dataset.ErrMissingColumn)
}
