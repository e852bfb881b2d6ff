package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// mockEmbedder returns the text length as a one-dim vector
type mockEmbedder struct {
	calls int32
}

func (m *mockEmbedder) Name() string { return "mock" }

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	atomic.AddInt32(&m.calls, 1)
	if strings.Contains(text, "fail") {
		return nil, errors.New("embed error")
	}
	return []float64{float64(len(text)), 0, 0}, nil
}

func TestBatchEmbedder_EmbedAll(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	embedder := &mockEmbedder{}
	b := NewBatchEmbedder(embedder, 3, NewLimiter(0, 1), "ada", 3, log)

	items := []EmbedItem{
		{ID: "1", Text: "a"},
		{ID: "2", Text: "bb"},
		{ID: "3", Text: "please fail"},
		{ID: "4", Text: "dddd"},
	}

	results := b.EmbedAll(context.Background(), items)
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}

	for i, res := range results {
		if res.ID != items[i].ID {
			t.Errorf("result %d has ID %s, expected %s", i, res.ID, items[i].ID)
		}
	}
	if results[1].Vector[0] != 2 || results[1].Error != nil {
		t.Errorf("unexpected result for item 2: %+v", results[1])
	}

	failed := results[2]
	if failed.Error == nil {
		t.Fatal("expected error for failing item")
	}
	for _, v := range failed.Vector {
		if v != -1 {
			t.Fatalf("expected placeholder vector, got %v", failed.Vector)
		}
	}
	if len(failed.Vector) != 3 {
		t.Errorf("expected placeholder of 3 dims, got %d", len(failed.Vector))
	}

	if atomic.LoadInt32(&embedder.calls) != 4 {
		t.Errorf("expected 4 embed calls, got %d", embedder.calls)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.WarnLevel {
		t.Errorf("expected a warning for the failed item")
	}
}

func TestBatchEmbedder_Cancelled(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatchEmbedder(&mockEmbedder{}, 1, NewLimiter(0.001, 1), "ada", 2, log)
	b.limiter.Allow("ada")

	results := b.EmbedAll(ctx, []EmbedItem{{ID: "1", Text: "x"}, {ID: "2", Text: "y"}})
	for _, res := range results {
		if res.Error == nil {
			t.Errorf("expected error for %s under a cancelled context", res.ID)
		}
		if len(res.Vector) != 2 {
			t.Errorf("expected placeholder for %s", res.ID)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder(0); len(got) != 0 {
		t.Errorf("expected empty placeholder, got %v", got)
	}
	if got := Placeholder(1536); len(got) != 1536 || got[1535] != -1 {
		t.Errorf("unexpected placeholder")
	}
}
