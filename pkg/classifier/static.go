package classifier

import "context"

// StaticModel is a deterministic Model that answers every pair with the same
// logits row. It exists for tests and for exercising the pipeline without a
// native inference runtime.
type StaticModel struct {
	Logits []float32

	// ForwardCalls counts Forward invocations, which lets tests assert that
	// cached results were served without re-running inference.
	ForwardCalls int
}

// Forward implements Model.
func (m *StaticModel) Forward(ctx context.Context, batch Batch) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.ForwardCalls++
	rows := make([][]float32, batch.Size())
	for i := range rows {
		rows[i] = m.Logits
	}
	return rows, nil
}
