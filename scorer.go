package parascore

import (
	"context"

	"github.com/soundprediction/parascore/pkg/cache"
	"github.com/soundprediction/parascore/pkg/classifier"
	"github.com/soundprediction/parascore/pkg/corpus"
	"github.com/soundprediction/parascore/pkg/features"
	"github.com/soundprediction/parascore/pkg/telemetry"
)

// RunScorer processes every corpus file with a text-level pair scorer
// instead of a checkpoint-backed model. The caching, merge and persistence
// semantics are identical to Run: label names the run (it scopes the cache
// and prefixes the result fields), the target direction is always computed
// fresh, and each file is persisted before the next is read.
func (p *Pipeline) RunScorer(ctx context.Context, scorer classifier.PairScorer, label string) error {
	files, err := p.inputFiles()
	if err != nil {
		return err
	}

	ctx = telemetry.WithCheckpoint(ctx, label)
	p.cache.Reset(label)

	languages := [2]string{p.sourceLanguage(), p.targetLanguage()}
	for _, file := range files {
		ctx := telemetry.WithInputFile(ctx, file)
		p.logger.Info("processing file", "file", file)

		store, err := corpus.Load(file)
		if err != nil {
			return err
		}
		for i, dir := range features.Directions {
			ctx := telemetry.WithDirection(ctx, dir.String())
			examples, err := features.Examples(store, dir, languages[i])
			if err != nil {
				return err
			}
			probs, err := p.groupScores(ctx, file, dir, func(ctx context.Context) ([]float64, error) {
				return scorer.ScorePairs(ctx, sentencePairs(examples))
			})
			if err != nil {
				return err
			}
			keys := make([]string, len(examples))
			for j, example := range examples {
				keys[j] = example.GUID
			}
			field := label + "_" + dir.String()
			if err := merge(store, keys, probs, field); err != nil {
				return err
			}
		}
		if err := store.Save(); err != nil {
			return err
		}
	}
	return nil
}

func sentencePairs(examples []features.ExamplePair) []classifier.SentencePair {
	pairs := make([]classifier.SentencePair, len(examples))
	for i, example := range examples {
		pairs[i] = classifier.SentencePair{TextA: example.TextA, TextB: example.TextB}
	}
	return pairs
}

func (p *Pipeline) sourceLanguage() string {
	if p.cfg.SourceLanguage != "" {
		return p.cfg.SourceLanguage
	}
	return features.DefaultSourceLanguage
}

func (p *Pipeline) targetLanguage() string {
	if p.cfg.TargetLanguage != "" {
		return p.cfg.TargetLanguage
	}
	return features.DefaultTargetLanguage
}

// Cache exposes the pipeline's cache for tests and diagnostics.
func (p *Pipeline) Cache() *cache.Cache {
	return p.cache
}
