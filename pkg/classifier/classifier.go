/*
Package classifier runs sequence-classification models over tokenized feature
batches and turns their logits into calibrated paraphrase probabilities.

The neural architecture itself is an opaque capability: anything that can map
token ids plus an attention mask (and, for pair-segmenting architectures,
segment ids) to per-class logits satisfies the Model interface. The Engine
owns everything around that call — sequential batching with no shuffling, the
2-class softmax, and the guarantee that outputs align one-to-one with inputs.
*/
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/soundprediction/parascore/pkg/features"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 8

// Batch is the model-facing slice of a prediction group. SegmentIDs is nil
// for architectures that do not segment sentence pairs. Labels are carried
// for capability parity with training-time model signatures; inference
// implementations are free to ignore them.
type Batch struct {
	InputIDs      [][]int64
	AttentionMask [][]int64
	SegmentIDs    [][]int64
	Labels        []int64
}

// Size returns the number of pairs in the batch.
func (b Batch) Size() int {
	return len(b.InputIDs)
}

// Model is the opaque classification capability: given a batch, return one
// row of per-class logits per pair, in batch order. Implementations run in
// inference mode; no parameter updates happen anywhere in this package.
type Model interface {
	Forward(ctx context.Context, batch Batch) ([][]float32, error)
}

// Config holds engine configuration.
type Config struct {
	BatchSize int
}

// Engine batches prediction groups through a model.
type Engine struct {
	batchSize int
	logger    *slog.Logger
}

// NewEngine creates an engine. A nil logger falls back to slog.Default.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{batchSize: cfg.BatchSize, logger: logger}
}

// Predict runs the model over the group in sequential batches and returns
// the positive-class probability for every pair, in input order. The output
// length always equals group.Len() and every value lies in [0, 1].
func (e *Engine) Predict(ctx context.Context, model Model, group *features.Group, useSegmentIDs bool) ([]float64, error) {
	n := group.Len()
	probs := make([]float64, 0, n)
	for start := 0; start < n; start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + e.batchSize
		if end > n {
			end = n
		}
		batch := sliceBatch(group.Features[start:end], useSegmentIDs)

		logits, err := model.Forward(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("classifier: forward pass on pairs [%d,%d): %w", start, end, err)
		}
		if len(logits) != batch.Size() {
			return nil, fmt.Errorf("classifier: model returned %d logit rows for a batch of %d", len(logits), batch.Size())
		}
		for i, row := range logits {
			if len(row) < 2 {
				return nil, fmt.Errorf("classifier: pair %d: expected at least 2 classes, got %d", start+i, len(row))
			}
			probs = append(probs, softmax(row)[1])
		}
	}
	e.logger.Debug("prediction complete", "pairs", n, "batch_size", e.batchSize)
	return probs, nil
}

func sliceBatch(feats []features.Feature, useSegmentIDs bool) Batch {
	batch := Batch{
		InputIDs:      make([][]int64, len(feats)),
		AttentionMask: make([][]int64, len(feats)),
		Labels:        make([]int64, len(feats)),
	}
	if useSegmentIDs {
		batch.SegmentIDs = make([][]int64, len(feats))
	}
	for i, f := range feats {
		batch.InputIDs[i] = f.InputIDs
		batch.AttentionMask[i] = f.AttentionMask
		batch.Labels[i] = f.Label
		if useSegmentIDs {
			batch.SegmentIDs[i] = f.SegmentIDs
		}
	}
	return batch
}

// softmax normalizes one logit row into a probability distribution. The max
// is subtracted first so large logits cannot overflow.
func softmax(logits []float32) []float64 {
	max := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > max {
			max = float64(l)
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
