package classifier

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/soundprediction/parascore/pkg/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup(n, seqLen int) *features.Group {
	group := &features.Group{Direction: features.Source}
	for i := 0; i < n; i++ {
		f := features.Feature{
			InputIDs:      make([]int64, seqLen),
			AttentionMask: make([]int64, seqLen),
			SegmentIDs:    make([]int64, seqLen),
			Label:         int64(i % 2),
		}
		for j := range f.InputIDs {
			f.InputIDs[j] = int64(100 + i + j)
			f.AttentionMask[j] = 1
		}
		group.Keys = append(group.Keys, string(rune('a'+i)))
		group.Features = append(group.Features, f)
	}
	return group
}

// recordingModel remembers the shape of every batch it sees.
type recordingModel struct {
	batchSizes  []int
	sawSegments []bool
	logits      []float32
}

func (m *recordingModel) Forward(_ context.Context, batch Batch) ([][]float32, error) {
	m.batchSizes = append(m.batchSizes, batch.Size())
	m.sawSegments = append(m.sawSegments, batch.SegmentIDs != nil)
	rows := make([][]float32, batch.Size())
	for i := range rows {
		rows[i] = m.logits
	}
	return rows, nil
}

func TestPredictKnownLogits(t *testing.T) {
	// softmax([0.1, 0.9]) puts ~0.69 on the positive class.
	model := &StaticModel{Logits: []float32{0.1, 0.9}}
	engine := NewEngine(Config{BatchSize: 1}, nil)

	probs, err := engine.Predict(context.Background(), model, testGroup(1, 8), true)
	require.NoError(t, err)
	require.Len(t, probs, 1)
	assert.InDelta(t, 0.69, probs[0], 0.001)
	assert.InDelta(t, 1/(1+math.Exp(-0.8)), probs[0], 1e-9)
}

func TestPredictOutputAlignsWithInput(t *testing.T) {
	model := &StaticModel{Logits: []float32{-1.5, 2.0}}
	engine := NewEngine(Config{BatchSize: 2}, nil)
	group := testGroup(5, 8)

	probs, err := engine.Predict(context.Background(), model, group, true)
	require.NoError(t, err)

	assert.Len(t, probs, group.Len())
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	// 5 pairs at batch size 2: three sequential batches, no shuffling.
	assert.Equal(t, 3, model.ForwardCalls)
}

func TestPredictBatchPartition(t *testing.T) {
	model := &recordingModel{logits: []float32{0, 0}}
	engine := NewEngine(Config{BatchSize: 4}, nil)

	_, err := engine.Predict(context.Background(), model, testGroup(10, 8), true)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 2}, model.batchSizes)
}

func TestPredictOmitsSegmentIDs(t *testing.T) {
	model := &recordingModel{logits: []float32{0, 0}}
	engine := NewEngine(Config{BatchSize: 8}, nil)

	_, err := engine.Predict(context.Background(), model, testGroup(3, 8), false)
	require.NoError(t, err)
	require.Len(t, model.sawSegments, 1)
	assert.False(t, model.sawSegments[0], "segment ids must be omitted entirely for architectures without pair segmentation")

	model = &recordingModel{logits: []float32{0, 0}}
	_, err = engine.Predict(context.Background(), model, testGroup(3, 8), true)
	require.NoError(t, err)
	assert.True(t, model.sawSegments[0])
}

type brokenModel struct {
	rows int
	cols int
}

func (m *brokenModel) Forward(_ context.Context, batch Batch) ([][]float32, error) {
	rows := make([][]float32, m.rows)
	for i := range rows {
		rows[i] = make([]float32, m.cols)
	}
	return rows, nil
}

func TestPredictValidatesModelOutput(t *testing.T) {
	engine := NewEngine(Config{BatchSize: 8}, nil)

	t.Run("row count mismatch", func(t *testing.T) {
		_, err := engine.Predict(context.Background(), &brokenModel{rows: 1, cols: 2}, testGroup(3, 8), true)
		assert.ErrorContains(t, err, "logit rows")
	})

	t.Run("too few classes", func(t *testing.T) {
		_, err := engine.Predict(context.Background(), &brokenModel{rows: 3, cols: 1}, testGroup(3, 8), true)
		assert.ErrorContains(t, err, "classes")
	})
}

type failingModel struct{}

func (failingModel) Forward(context.Context, Batch) ([][]float32, error) {
	return nil, errors.New("device lost")
}

func TestPredictPropagatesModelErrors(t *testing.T) {
	engine := NewEngine(Config{BatchSize: 2}, nil)
	_, err := engine.Predict(context.Background(), failingModel{}, testGroup(3, 8), true)
	assert.ErrorContains(t, err, "device lost")
}

func TestPredictHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(Config{BatchSize: 1}, nil)
	_, err := engine.Predict(ctx, &StaticModel{Logits: []float32{0, 1}}, testGroup(2, 8), true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSoftmax(t *testing.T) {
	t.Run("sums to one", func(t *testing.T) {
		for _, row := range [][]float32{{0.1, 0.9}, {-3, 3}, {50, 50}, {-100, 100}} {
			out := softmax(row)
			sum := 0.0
			for _, p := range out {
				sum += p
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
			assert.InDelta(t, 1.0, sum, 1e-12)
		}
	})

	t.Run("large logits do not overflow", func(t *testing.T) {
		out := softmax([]float32{1000, 1001})
		assert.False(t, math.IsNaN(out[0]))
		assert.InDelta(t, 1.0, out[0]+out[1], 1e-12)
	})
}

func TestLogistic(t *testing.T) {
	assert.InDelta(t, 0.5, logistic(0), 1e-12)
	assert.Greater(t, logistic(4.0), 0.98)
	assert.Less(t, logistic(-4.0), 0.02)
}
