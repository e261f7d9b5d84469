package ai

import "context"

// Embedder generates fixed-dimension vector embeddings from text.
// Implementations must be thread-safe for concurrent use; calls are
// rate-limited and fallible, so callers decide on retry policy.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Failures wrap core.ErrEmbeddingFailed.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one round trip.
	// The returned slice preserves input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// HealthReport describes the reachability of an embedding provider.
type HealthReport struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Dimension int    `json:"embedding_dimension,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthChecker is implemented by providers that can probe their backing
// service. A failed probe is reported in the HealthReport, not as an error.
type HealthChecker interface {
	HealthCheck(ctx context.Context) HealthReport
}
