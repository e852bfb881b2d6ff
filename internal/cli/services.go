package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/cache"
	"github.com/ppiankov/litscreen/internal/dataset"
	"github.com/ppiankov/litscreen/internal/llm"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/pipeline"
	"github.com/ppiankov/litscreen/internal/store"
	"github.com/ppiankov/litscreen/internal/worker"
)

// newCompleter stacks retry and, when enabled, the circuit breaker on the
// configured provider
func newCompleter(cfg *model.Config, log logrus.FieldLogger) (llm.Completer, error) {
	base, err := llm.NewCompleter(llm.ConfigFromModel(cfg.LLM), log)
	if err != nil {
		return nil, err
	}

	var c llm.Completer = llm.NewRetryingCompleter(base, llm.RetryPolicyFromModel(cfg.Retry), log)
	if cfg.Breaker.Enabled {
		c = llm.NewBreakerCompleter(c, cfg.Breaker, log)
	}
	return c, nil
}

// newBatchEmbedder builds cache -> retry -> provider behind a worker pool
func newBatchEmbedder(cfg *model.Config, log logrus.FieldLogger) (*worker.BatchEmbedder, error) {
	base, err := llm.NewEmbedder(llm.EmbeddingConfigFromModel(cfg.Embedding, cfg.LLM), log)
	if err != nil {
		return nil, err
	}

	var e llm.Embedder = llm.NewRetryingEmbedder(base, llm.RetryPolicyFromModel(cfg.Retry), log)
	e = llm.NewCachedEmbedder(e, cache.New(cfg.Cache), cfg.Embedding.Model, cfg.Cache.DiskTTL, log)

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	return worker.NewBatchEmbedder(e, cfg.Embedding.Workers, limiter, cfg.Embedding.Model, cfg.Embedding.Dimensions, log), nil
}

// openStore opens the prediction store, or returns nil when none is
// configured
func openStore(cfg *model.Config) (store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newRunner wires the completion stack, limiter and store into a runner.
// The returned func closes the store.
func newRunner(cfg *model.Config, answerCol string, log logrus.FieldLogger) (*pipeline.Runner, func(), error) {
	completer, err := newCompleter(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if st != nil {
			_ = st.Close()
		}
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	runner, err := pipeline.NewRunner(completer, limiter, st, pipeline.Options{
		AnswerCol:   answerCol,
		Model:       model.ModelType(cfg.LLM.Model),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Cooldown:    cfg.Run.Cooldown,
		OutputDir:   cfg.Run.OutputDir,
		Columns:     dataset.ColumnMapFromModel(cfg.Dataset),
	}, log)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return runner, closeStore, nil
}
