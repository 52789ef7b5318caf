package parascore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/soundprediction/parascore/pkg/cache"
	"github.com/soundprediction/parascore/pkg/checkpoint"
	"github.com/soundprediction/parascore/pkg/classifier"
	"github.com/soundprediction/parascore/pkg/corpus"
	"github.com/soundprediction/parascore/pkg/features"
	"github.com/soundprediction/parascore/pkg/telemetry"
)

// Config holds pipeline configuration.
type Config struct {
	// JSONGlob matches the corpus files to score.
	JSONGlob string
	// CheckpointsGlob matches the model checkpoint directories. Only Run
	// uses it; RunScorer needs no checkpoints.
	CheckpointsGlob string
	// BatchSize is the inference batch size.
	BatchSize int
	// DoLowerCase toggles tokenizer case folding at checkpoint load time.
	DoLowerCase bool
	// SourceLanguage and TargetLanguage tag the two directions of every
	// corpus record. They default to "de" and "en".
	SourceLanguage string
	TargetLanguage string
}

// ErrNoInput is returned when the corpus glob matches nothing.
var ErrNoInput = errors.New("parascore: input glob matched no corpus files")

// Pipeline orchestrates scoring: for every checkpoint it processes every
// corpus file in both directions, reusing cached source-direction results
// where the cache policy allows, and persists each file before moving on.
//
// A pipeline is single-threaded by design. Cache state is owned exclusively
// by the running loop, so no locking is needed; parallelism, if any, lives
// inside the model's batch computation. Interrupting a run loses only the
// unpersisted merges of the file being processed.
type Pipeline struct {
	cfg      Config
	registry checkpoint.Registry
	engine   *classifier.Engine
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. A nil logger falls back to slog.Default.
func NewPipeline(cfg Config, registry checkpoint.Registry, logger *slog.Logger) (*Pipeline, error) {
	if cfg.JSONGlob == "" {
		return nil, errors.New("parascore: JSONGlob is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		registry: registry,
		engine:   classifier.NewEngine(classifier.Config{BatchSize: cfg.BatchSize}, logger),
		cache:    cache.New(),
		logger:   logger,
	}, nil
}

// Run processes every checkpoint against every corpus file. Any failure —
// malformed checkpoint name, model load error, unreadable or unparsable
// corpus file — aborts the whole run; files persisted by earlier iterations
// stay on disk in their enriched form. Nothing is retried.
func (p *Pipeline) Run(ctx context.Context) error {
	files, err := p.inputFiles()
	if err != nil {
		return err
	}
	checkpoints, err := filepath.Glob(p.cfg.CheckpointsGlob)
	if err != nil {
		return fmt.Errorf("parascore: bad checkpoints glob %q: %w", p.cfg.CheckpointsGlob, err)
	}
	if len(checkpoints) == 0 {
		return fmt.Errorf("parascore: checkpoints glob %q matched nothing", p.cfg.CheckpointsGlob)
	}

	for _, dir := range checkpoints {
		meta, err := checkpoint.ParseMetadata(dir)
		if err != nil {
			return err
		}
		ctx := telemetry.WithCheckpoint(ctx, meta.Name)
		p.logger.Info("loading model", "checkpoint", meta.Name, "family", meta.Family, "max_seq_length", meta.MaxSeqLength)

		model, tokenizer, err := p.registry.Load(meta, p.cfg.DoLowerCase)
		if err != nil {
			return err
		}

		// Cached vectors are only valid within one checkpoint's loop.
		p.cache.Reset(meta.Name)

		for _, file := range files {
			if err := p.processFile(telemetry.WithInputFile(ctx, file), file, meta, model, tokenizer); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) processFile(ctx context.Context, file string, meta checkpoint.Metadata, model classifier.Model, tokenizer features.Tokenizer) error {
	p.logger.Info("processing file", "file", file)
	store, err := corpus.Load(file)
	if err != nil {
		return err
	}

	groups, err := features.BuildGroups(store, tokenizer, features.Options{
		MaxSeqLength:   meta.MaxSeqLength,
		SourceLanguage: p.cfg.SourceLanguage,
		TargetLanguage: p.cfg.TargetLanguage,
	})
	if err != nil {
		return err
	}

	for _, group := range groups {
		ctx := telemetry.WithDirection(ctx, group.Direction.String())
		probs, err := p.groupScores(ctx, file, group.Direction, func(ctx context.Context) ([]float64, error) {
			return p.engine.Predict(ctx, model, group, meta.UsesSegmentIDs())
		})
		if err != nil {
			return err
		}
		if err := merge(store, group.Keys, probs, meta.ResultField(group.Direction)); err != nil {
			return err
		}
	}
	return store.Save()
}

// groupScores applies the cache policy for one file and direction: target
// direction is always computed fresh, source direction may reuse the vector
// cached for the file's group label under the current checkpoint.
func (p *Pipeline) groupScores(ctx context.Context, file string, dir features.Direction, compute func(context.Context) ([]float64, error)) ([]float64, error) {
	if dir == features.Target {
		p.logger.Info("initializing prediction", "direction", dir.String())
		return compute(ctx)
	}

	label, eligible := cache.LabelFor(file)
	if !eligible {
		p.logger.Info("initializing prediction", "direction", dir.String())
		return compute(ctx)
	}

	if probs, ok := p.cache.Lookup(label); ok {
		p.logger.Info("using cached results instead of re-computing", "group", string(label))
		return probs, nil
	}

	p.logger.Info("initializing prediction", "direction", dir.String(), "group", string(label))
	probs, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Store(label, probs)
	return probs, nil
}

// merge writes one probability per key into the store, purely additively:
// pre-existing fields are left untouched.
func merge(store *corpus.Store, keys []string, probs []float64, field string) error {
	if len(probs) != len(keys) {
		return fmt.Errorf("parascore: %d probabilities for %d keys under %q", len(probs), len(keys), field)
	}
	for i, key := range keys {
		record, ok := store.Get(key)
		if !ok {
			return fmt.Errorf("parascore: store has no record for key %q", key)
		}
		record.SetScore(field, probs[i])
	}
	return nil
}

func (p *Pipeline) inputFiles() ([]string, error) {
	files, err := filepath.Glob(p.cfg.JSONGlob)
	if err != nil {
		return nil, fmt.Errorf("parascore: bad input glob %q: %w", p.cfg.JSONGlob, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoInput, p.cfg.JSONGlob)
	}
	return files, nil
}
