package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// SentencePair is a raw sentence pair for text-level scoring backends that
// bring their own tokenizer.
type SentencePair struct {
	TextA string
	TextB string
}

// PairScorer scores raw sentence pairs directly, without the caller building
// tokenized features. Output order matches input order and every value lies
// in [0, 1].
type PairScorer interface {
	ScorePairs(ctx context.Context, pairs []SentencePair) ([]float64, error)
	Close() error
}

// EmbedEverythingScorer scores sentence pairs with a local cross-encoder
// reranker model. The reranker emits a single relevance logit per pair, which
// is calibrated into a probability with the logistic function.
type EmbedEverythingScorer struct {
	reranker *embedder.Reranker
}

// NewEmbedEverythingScorer loads a local cross-encoder model, e.g.
// "BAAI/bge-reranker-base".
func NewEmbedEverythingScorer(model string) (*EmbedEverythingScorer, error) {
	reranker, err := embedder.NewReranker(model)
	if err != nil {
		return nil, fmt.Errorf("classifier: creating reranker: %w", err)
	}
	return &EmbedEverythingScorer{reranker: reranker}, nil
}

// ScorePairs implements PairScorer.
func (s *EmbedEverythingScorer) ScorePairs(ctx context.Context, pairs []SentencePair) ([]float64, error) {
	probs := make([]float64, len(pairs))
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// go-embedeverything does not support context yet
		results, err := s.reranker.Rerank(pair.TextA, []string{pair.TextB})
		if err != nil {
			return nil, fmt.Errorf("classifier: reranking pair %d: %w", i, err)
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("classifier: reranker returned no result for pair %d", i)
		}
		probs[i] = logistic(float64(results[0].Score))
	}
	return probs, nil
}

// Close releases the underlying model.
func (s *EmbedEverythingScorer) Close() error {
	s.reranker.Close()
	return nil
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
