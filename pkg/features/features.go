// Package features converts corpus records into fixed-length tokenized
// feature batches ready for model consumption.
package features

import (
	"fmt"

	"github.com/soundprediction/parascore/pkg/corpus"
)

// Direction selects which language side of a record a prediction group is
// built from.
type Direction int

const (
	// Source scores the source-language sentence pair.
	Source Direction = iota
	// Target scores the target-language sentence pair.
	Target
)

// String returns the direction name used in result field suffixes.
func (d Direction) String() string {
	if d == Source {
		return "source"
	}
	return "target"
}

// Directions lists both directions in processing order: source first.
var Directions = [2]Direction{Source, Target}

// Tokenizer is the subword tokenizer capability a model checkpoint supplies.
// Its internal algorithm, vocabulary and special-token layout are opaque
// here; EncodePair is expected to apply the model's own pair-truncation
// convention so that at most maxLen ids come back.
type Tokenizer interface {
	// EncodePair encodes a sentence pair with the model's special tokens,
	// returning token ids and the matching segment ids (0 for the first
	// sentence, 1 for the second on architectures that segment pairs).
	EncodePair(textA, textB string, maxLen int) (ids []int64, segmentIDs []int64, err error)

	// PadID returns the tokenizer's designated padding id.
	PadID() int64
}

// ExamplePair is one raw sentence pair drawn from a corpus record.
type ExamplePair struct {
	GUID     string
	TextA    string
	TextB    string
	Language string
	Label    int64
}

// Feature is the fixed-length numeric encoding of one ExamplePair. All three
// positional slices have length Options.MaxSeqLength.
type Feature struct {
	InputIDs      []int64
	AttentionMask []int64
	SegmentIDs    []int64
	Label         int64
}

// Group is an ordered collection of features built from one corpus file for
// one direction. Keys holds the record keys in the same order as Features,
// which is how probabilities are later re-associated with records.
type Group struct {
	Direction Direction
	Keys      []string
	Features  []Feature
}

// Len returns the number of features in the group.
func (g *Group) Len() int {
	return len(g.Features)
}

// Options configures feature construction.
type Options struct {
	MaxSeqLength   int
	SourceLanguage string
	TargetLanguage string
}

const (
	// DefaultSourceLanguage tags source-side pairs when no language is configured.
	DefaultSourceLanguage = "de"
	// DefaultTargetLanguage tags target-side pairs when no language is configured.
	DefaultTargetLanguage = "en"
)

func (o Options) withDefaults() Options {
	if o.SourceLanguage == "" {
		o.SourceLanguage = DefaultSourceLanguage
	}
	if o.TargetLanguage == "" {
		o.TargetLanguage = DefaultTargetLanguage
	}
	return o
}

// Examples extracts the raw sentence pairs for one direction of a store, in
// the store's key order.
func Examples(store *corpus.Store, dir Direction, language string) ([]ExamplePair, error) {
	keys := store.Keys()
	examples := make([]ExamplePair, 0, len(keys))
	for _, key := range keys {
		record, ok := store.Get(key)
		if !ok {
			return nil, fmt.Errorf("features: store has no record for key %q", key)
		}
		original, err := record.Original()
		if err != nil {
			return nil, fmt.Errorf("features: record %q: %w", key, err)
		}
		paraphrase, err := record.Paraphrase()
		if err != nil {
			return nil, fmt.Errorf("features: record %q: %w", key, err)
		}
		label, err := record.GoldLabel()
		if err != nil {
			return nil, fmt.Errorf("features: record %q: %w", key, err)
		}
		example := ExamplePair{
			GUID:     key,
			Language: language,
			Label:    int64(label),
		}
		if dir == Source {
			example.TextA = original.Source
			example.TextB = paraphrase.Source
		} else {
			example.TextA = original.Target
			example.TextB = paraphrase.Target
		}
		examples = append(examples, example)
	}
	return examples, nil
}

// BuildGroups builds the two prediction groups of a corpus file: index 0 is
// the source-language pair, index 1 the target-language pair.
func BuildGroups(store *corpus.Store, tok Tokenizer, opts Options) ([2]*Group, error) {
	var groups [2]*Group
	opts = opts.withDefaults()
	if opts.MaxSeqLength <= 0 {
		return groups, fmt.Errorf("features: invalid max sequence length %d", opts.MaxSeqLength)
	}
	languages := [2]string{opts.SourceLanguage, opts.TargetLanguage}
	for i, dir := range Directions {
		examples, err := Examples(store, dir, languages[i])
		if err != nil {
			return groups, err
		}
		group := &Group{
			Direction: dir,
			Keys:      make([]string, 0, len(examples)),
			Features:  make([]Feature, 0, len(examples)),
		}
		for _, example := range examples {
			feature, err := convert(example, tok, opts.MaxSeqLength)
			if err != nil {
				return groups, fmt.Errorf("features: encoding %q (%s): %w", example.GUID, dir, err)
			}
			group.Keys = append(group.Keys, example.GUID)
			group.Features = append(group.Features, feature)
		}
		groups[i] = group
	}
	return groups, nil
}

// convert tokenizes one example and pads it out to maxLen. Padding is always
// on the right; the attention mask marks only real token positions.
func convert(example ExamplePair, tok Tokenizer, maxLen int) (Feature, error) {
	ids, segments, err := tok.EncodePair(example.TextA, example.TextB, maxLen)
	if err != nil {
		return Feature{}, err
	}
	if len(segments) != len(ids) {
		return Feature{}, fmt.Errorf("tokenizer returned %d segment ids for %d token ids", len(segments), len(ids))
	}
	// Tokenizers own the pair-truncation convention, but a misbehaving one
	// must not break the fixed-length invariant.
	if len(ids) > maxLen {
		ids = ids[:maxLen]
		segments = segments[:maxLen]
	}

	feature := Feature{
		InputIDs:      make([]int64, maxLen),
		AttentionMask: make([]int64, maxLen),
		SegmentIDs:    make([]int64, maxLen),
		Label:         example.Label,
	}
	padID := tok.PadID()
	for i := 0; i < maxLen; i++ {
		if i < len(ids) {
			feature.InputIDs[i] = ids[i]
			feature.AttentionMask[i] = 1
			feature.SegmentIDs[i] = segments[i]
		} else {
			feature.InputIDs[i] = padID
		}
	}
	return feature, nil
}
