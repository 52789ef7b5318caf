package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Well-known record fields. Everything else in a record (earlier model
// results included) is carried through verbatim.
const (
	FieldSentenceOriginal   = "sentence_original"
	FieldSentenceParaphrase = "sentence_paraphrase"
	FieldGoldLabel          = "gold_label"
)

// ErrMissingField is returned when a record lacks one of the well-known fields.
var ErrMissingField = errors.New("corpus: record is missing a required field")

// LanguagePair holds the two language renditions of a sentence.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Record is a single corpus entry. It keeps every field it was parsed with,
// in document order, so that fields written by earlier runs survive a
// read/enrich/write cycle untouched. New score fields are appended at the end.
type Record struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, fields); err != nil {
		return err
	}
	r.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}

func (r *Record) languagePair(field string) (LanguagePair, error) {
	var pair LanguagePair
	if r.fields == nil {
		return pair, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	raw, ok := r.fields.Get(field)
	if !ok {
		return pair, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if err := json.Unmarshal(raw, &pair); err != nil {
		return pair, fmt.Errorf("corpus: decoding %s: %w", field, err)
	}
	return pair, nil
}

// Original returns the original sentence in both languages.
func (r *Record) Original() (LanguagePair, error) {
	return r.languagePair(FieldSentenceOriginal)
}

// Paraphrase returns the paraphrase candidate in both languages.
func (r *Record) Paraphrase() (LanguagePair, error) {
	return r.languagePair(FieldSentenceParaphrase)
}

// GoldLabel returns the integer-coded gold class of the record. The field may
// be stored either as a JSON number or as a string-typed integer.
func (r *Record) GoldLabel() (int, error) {
	if r.fields == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, FieldGoldLabel)
	}
	raw, ok := r.fields.Get(FieldGoldLabel)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, FieldGoldLabel)
	}
	label, err := strconv.Atoi(strings.Trim(string(raw), `"`))
	if err != nil {
		return 0, fmt.Errorf("corpus: decoding %s: %w", FieldGoldLabel, err)
	}
	return label, nil
}

// SetScore writes a scalar probability under the given field name. Existing
// fields are never removed; setting a field that already exists replaces its
// value in place, anything new is appended after the current fields.
func (r *Record) SetScore(field string, probability float64) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, json.RawMessage]()
	}
	value, _ := json.Marshal(probability)
	r.fields.Set(field, value)
}

// Score reads a scalar probability previously written with SetScore.
func (r *Record) Score(field string) (float64, bool) {
	if r.fields == nil {
		return 0, false
	}
	raw, ok := r.fields.Get(field)
	if !ok {
		return 0, false
	}
	var p float64
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, false
	}
	return p, true
}

// Has reports whether the record carries the given field.
func (r *Record) Has(field string) bool {
	if r.fields == nil {
		return false
	}
	_, ok := r.fields.Get(field)
	return ok
}

// Store is the in-memory form of one corpus file: an ordered mapping from
// example key to record. Key order is the document order of the source file
// and stays stable across load/save, which is what lets probability vectors
// be re-associated with their keys by position.
type Store struct {
	path    string
	records *orderedmap.OrderedMap[string, *Record]
}

// Load reads and parses a corpus file. A read or parse failure is fatal to
// the surrounding run, so it is returned as-is for the caller to propagate.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}
	records := orderedmap.New[string, *Record]()
	if err := json.Unmarshal(data, records); err != nil {
		return nil, fmt.Errorf("corpus: parsing %s: %w", path, err)
	}
	return &Store{path: path, records: records}, nil
}

// Save overwrites the file the store was loaded from with the enriched
// records. Writes are not transactional; a crash mid-write can leave the file
// truncated, which callers accept as a boundary limitation of the pipeline.
func (s *Store) Save() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.records); err != nil {
		return fmt.Errorf("corpus: encoding %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("corpus: writing %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	if s.records == nil {
		return 0
	}
	return s.records.Len()
}

// Keys returns the record keys in document order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.Len())
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the record stored under key.
func (s *Store) Get(key string) (*Record, bool) {
	if s.records == nil {
		return nil, false
	}
	return s.records.Get(key)
}
