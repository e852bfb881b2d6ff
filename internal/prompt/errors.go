package prompt

import "errors"

var (
	// ErrInvalidConfig marks bad constructor arguments. Never retried.
	ErrInvalidConfig = errors.New("invalid prompt configuration")

	// ErrEmptyPool marks sampling or ranking from an empty exemplar set,
	// which points at a data-preparation problem upstream
	ErrEmptyPool = errors.New("empty exemplar pool")

	// ErrMissingEmbedding is returned when a similarity prompt is requested
	// without a test embedding
	ErrMissingEmbedding = errors.New("missing test embedding")
)
