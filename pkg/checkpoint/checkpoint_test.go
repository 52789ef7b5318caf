package checkpoint

import (
	"errors"
	"testing"

	"github.com/soundprediction/parascore/pkg/classifier"
	"github.com/soundprediction/parascore/pkg/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	t.Run("bert checkpoint", func(t *testing.T) {
		meta, err := ParseMetadata("/models/bert-base-german-cased_ML128")
		require.NoError(t, err)
		assert.Equal(t, "bert-base-german-cased_ML128", meta.Name)
		assert.Equal(t, FamilyBERT, meta.Family)
		assert.Equal(t, 128, meta.MaxSeqLength)
		assert.True(t, meta.UsesSegmentIDs())
	})

	t.Run("xlm-roberta checkpoint", func(t *testing.T) {
		meta, err := ParseMetadata("models/xlm-roberta-large_ML256_seed42/")
		require.NoError(t, err)
		assert.Equal(t, "xlm-roberta-large_ML256_seed42", meta.Name)
		assert.Equal(t, FamilyXLMRoberta, meta.Family)
		assert.Equal(t, 256, meta.MaxSeqLength)
		assert.False(t, meta.UsesSegmentIDs())
	})

	t.Run("missing sequence length is fatal", func(t *testing.T) {
		_, err := ParseMetadata("/models/bert-base-uncased")
		assert.ErrorIs(t, err, ErrNoSeqLength)
	})
}

func TestResultField(t *testing.T) {
	meta, err := ParseMetadata("bert_ML64")
	require.NoError(t, err)
	assert.Equal(t, "bert_ML64_source", meta.ResultField(features.Source))
	assert.Equal(t, "bert_ML64_target", meta.ResultField(features.Target))
}

func TestRegistryLoad(t *testing.T) {
	meta := Metadata{Name: "bert_ML8", Family: FamilyBERT, MaxSeqLength: 8}

	t.Run("unregistered family", func(t *testing.T) {
		_, _, err := Registry{}.Load(meta, false)
		assert.Error(t, err)
	})

	t.Run("loader receives the metadata", func(t *testing.T) {
		var got Metadata
		registry := Registry{
			FamilyBERT: func(m Metadata, doLowerCase bool) (classifier.Model, features.Tokenizer, error) {
				got = m
				return &classifier.StaticModel{Logits: []float32{0, 1}}, nil, nil
			},
		}
		model, _, err := registry.Load(meta, true)
		require.NoError(t, err)
		assert.NotNil(t, model)
		assert.Equal(t, meta, got)
	})

	t.Run("loader errors propagate", func(t *testing.T) {
		registry := Registry{
			FamilyBERT: func(Metadata, bool) (classifier.Model, features.Tokenizer, error) {
				return nil, nil, errors.New("corrupt checkpoint")
			},
		}
		_, _, err := registry.Load(meta, false)
		assert.ErrorContains(t, err, "corrupt checkpoint")
	})
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()
	meta := Metadata{Name: "bert_ML8", Family: FamilyBERT}

	// This build ships no native runtime; the registry must say so rather
	// than succeed silently.
	_, _, err := registry.Load(meta, false)
	assert.ErrorIs(t, err, classifier.ErrNoNativeRuntime)
}
