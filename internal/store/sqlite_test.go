package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/litscreen/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "litscreen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.Prediction{
		RunID: "run-1", AnswerCol: "Nipah_Q2_Turbo_Zero", Fold: 0,
		PMID: "111", Review: "Yes", Answer: "Yes.", Truth: 1,
	}
	second := &model.Prediction{
		RunID: "run-1", AnswerCol: "Nipah_Q2_Turbo_Zero", Fold: 0,
		PMID: "222", Review: "No", Answer: model.ErrorAnswer, Truth: 0,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	other := &model.Prediction{
		RunID: "run-1", AnswerCol: "Nipah_Q2_Turbo_Zero", Fold: 1,
		PMID: "333", Review: "No", Answer: "No.", Truth: 0,
	}
	for _, p := range []*model.Prediction{first, second, other} {
		require.NoError(t, s.Save(ctx, p))
	}
	assert.False(t, first.CreatedAt.IsZero())

	got, err := s.List(ctx, "Nipah_Q2_Turbo_Zero", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "111", got[0].PMID)
	assert.Equal(t, model.ErrorAnswer, got[1].Answer)
	assert.Nil(t, got[0].Predicted)
	assert.True(t, second.CreatedAt.Equal(got[1].CreatedAt))
}

func TestSQLiteStore_UpsertAndLabel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &model.Prediction{RunID: "run-1", AnswerCol: "col", Fold: 2, PMID: "1", Review: "Yes", Answer: model.ErrorAnswer, Truth: 1}
	require.NoError(t, s.Save(ctx, p))

	p.RunID = "run-2"
	p.Answer = "Yes, it does."
	require.NoError(t, s.Save(ctx, p))

	require.NoError(t, s.SetLabel(ctx, "col", 2, "1", model.LabelYes))
	require.Error(t, s.SetLabel(ctx, "col", 2, "missing", model.LabelYes))

	got, err := s.List(ctx, "col", 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, "Yes, it does.", got[0].Answer)
	require.NotNil(t, got[0].Predicted)
	assert.Equal(t, model.LabelYes, *got[0].Predicted)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litscreen.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), &model.Prediction{RunID: "r", AnswerCol: "c", PMID: "1", Review: "No", Answer: "No."}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.List(context.Background(), "c", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
