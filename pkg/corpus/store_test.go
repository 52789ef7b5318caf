package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCorpus = `{
  "7": {
    "sentence_original": {"source": "Das Wetter ist schön.", "target": "The weather is nice."},
    "sentence_paraphrase": {"source": "Es ist schönes Wetter.", "target": "It is nice weather."},
    "gold_label": 1,
    "old-model_ML64_source": 0.25
  },
  "3": {
    "sentence_original": {"source": "Er liest ein Buch.", "target": "He reads a book."},
    "sentence_paraphrase": {"source": "Sie kocht Suppe.", "target": "She cooks soup."},
    "gold_label": "0"
  }
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wmtp_sample.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCorpus), 0644))
	return path
}

func TestLoad(t *testing.T) {
	store, err := Load(writeSample(t))
	require.NoError(t, err)

	t.Run("keys keep document order", func(t *testing.T) {
		assert.Equal(t, []string{"7", "3"}, store.Keys())
		assert.Equal(t, 2, store.Len())
	})

	t.Run("sentence accessors", func(t *testing.T) {
		record, ok := store.Get("7")
		require.True(t, ok)

		original, err := record.Original()
		require.NoError(t, err)
		assert.Equal(t, "Das Wetter ist schön.", original.Source)
		assert.Equal(t, "The weather is nice.", original.Target)

		paraphrase, err := record.Paraphrase()
		require.NoError(t, err)
		assert.Equal(t, "Es ist schönes Wetter.", paraphrase.Source)
	})

	t.Run("gold label as number and as string", func(t *testing.T) {
		record, _ := store.Get("7")
		label, err := record.GoldLabel()
		require.NoError(t, err)
		assert.Equal(t, 1, label)

		record, _ = store.Get("3")
		label, err = record.GoldLabel()
		require.NoError(t, err)
		assert.Equal(t, 0, label)
	})

	t.Run("prior model results survive parsing", func(t *testing.T) {
		record, _ := store.Get("7")
		p, ok := record.Score("old-model_ML64_source")
		require.True(t, ok)
		assert.Equal(t, 0.25, p)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeSample(t)
	store, err := Load(path)
	require.NoError(t, err)

	record, _ := store.Get("7")
	record.SetScore("bert_ML128_source", 0.69)
	record, _ = store.Get("3")
	record.SetScore("bert_ML128_source", 0.12)

	require.NoError(t, store.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)

	t.Run("key order unchanged", func(t *testing.T) {
		assert.Equal(t, []string{"7", "3"}, reloaded.Keys())
	})

	t.Run("merge is additive", func(t *testing.T) {
		record, _ := reloaded.Get("7")

		p, ok := record.Score("bert_ML128_source")
		require.True(t, ok)
		assert.Equal(t, 0.69, p)

		// Everything that was there before is still there.
		p, ok = record.Score("old-model_ML64_source")
		require.True(t, ok)
		assert.Equal(t, 0.25, p)

		label, err := record.GoldLabel()
		require.NoError(t, err)
		assert.Equal(t, 1, label)

		original, err := record.Original()
		require.NoError(t, err)
		assert.Equal(t, "Das Wetter ist schön.", original.Source)
	})

	t.Run("new fields append after existing ones", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		text := string(data)
		assert.Less(t, strings.Index(text, "old-model_ML64_source"), strings.Index(text, "bert_ML128_source"))
	})

	t.Run("non-ascii survives unescaped", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "schön")
	})
}

func TestRecordMissingFields(t *testing.T) {
	var record Record
	require.NoError(t, record.UnmarshalJSON([]byte(`{"gold_label": 1}`)))

	_, err := record.Original()
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = record.Paraphrase()
	assert.ErrorIs(t, err, ErrMissingField)

	label, err := record.GoldLabel()
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}
