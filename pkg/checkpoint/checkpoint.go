// Package checkpoint resolves model checkpoint directories into explicit
// metadata and constructs the model/tokenizer pair behind each one.
package checkpoint

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/soundprediction/parascore/pkg/classifier"
	"github.com/soundprediction/parascore/pkg/features"
)

// Family identifies the model architecture family of a checkpoint.
type Family string

const (
	// FamilyBERT covers BERT-style checkpoints, which segment sentence pairs.
	FamilyBERT Family = "bert"
	// FamilyXLMRoberta covers XLM-RoBERTa checkpoints, which do not use
	// segment ids.
	FamilyXLMRoberta Family = "xlmr"
)

// xlmRobertaMarker is the directory-name substring selecting FamilyXLMRoberta.
const xlmRobertaMarker = "xlm-roberta"

// seqLenPattern extracts the maximum sequence length a checkpoint was trained
// with from its directory name, e.g. "bert_ML128_seed42".
var seqLenPattern = regexp.MustCompile(`ML([0-9]+)`)

// ErrNoSeqLength is returned for checkpoint directories whose name does not
// encode a maximum sequence length. This is a fatal configuration error.
var ErrNoSeqLength = errors.New("checkpoint: directory name does not encode a maximum sequence length (ML<digits>)")

// Metadata is the explicit configuration a checkpoint directory name encodes.
// Name doubles as the checkpoint's identity: it scopes the prediction cache
// and prefixes the result fields written into corpus records.
type Metadata struct {
	Path         string
	Name         string
	Family       Family
	MaxSeqLength int
}

// ParseMetadata derives checkpoint metadata from a checkpoint directory path.
func ParseMetadata(dir string) (Metadata, error) {
	name := filepath.Base(filepath.Clean(dir))

	match := seqLenPattern.FindStringSubmatch(name)
	if match == nil {
		return Metadata{}, fmt.Errorf("%w: %q", ErrNoSeqLength, name)
	}
	maxSeqLength, err := strconv.Atoi(match[1])
	if err != nil || maxSeqLength <= 0 {
		return Metadata{}, fmt.Errorf("%w: %q", ErrNoSeqLength, name)
	}

	family := FamilyBERT
	if strings.Contains(name, xlmRobertaMarker) {
		family = FamilyXLMRoberta
	}

	return Metadata{
		Path:         dir,
		Name:         name,
		Family:       family,
		MaxSeqLength: maxSeqLength,
	}, nil
}

// UsesSegmentIDs reports whether the checkpoint's architecture consumes
// segment ids. XLM-RoBERTa does not; the segment input is omitted entirely
// from its batches.
func (m Metadata) UsesSegmentIDs() bool {
	return m.Family == FamilyBERT
}

// ResultField names the corpus field a probability is stored under for this
// checkpoint and direction, e.g. "bert_ML128_source".
func (m Metadata) ResultField(dir features.Direction) string {
	return fmt.Sprintf("%s_%s", m.Name, dir)
}

// Loader constructs the model and tokenizer for a checkpoint. Loading is an
// external concern (native runtimes, file formats); the pipeline only
// depends on this signature.
type Loader func(meta Metadata, doLowerCase bool) (classifier.Model, features.Tokenizer, error)

// Registry maps model families to their loaders. It is passed into the
// pipeline at construction rather than kept as package state.
type Registry map[Family]Loader

// Load resolves the loader for the checkpoint's family and invokes it.
func (r Registry) Load(meta Metadata, doLowerCase bool) (classifier.Model, features.Tokenizer, error) {
	loader, ok := r[meta.Family]
	if !ok {
		return nil, nil, fmt.Errorf("checkpoint: no loader registered for family %q", meta.Family)
	}
	model, tokenizer, err := loader(meta, doLowerCase)
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint: loading %s: %w", meta.Name, err)
	}
	return model, tokenizer, nil
}
