// Package parascore scores sentence pairs for paraphrase likelihood across
// multiple pretrained classification checkpoints and multiple corpus files,
// persisting per-pair probabilities back into the corpus records.
//
// # Basic Usage
//
// Create a pipeline with a checkpoint registry and run it:
//
//	registry := checkpoint.DefaultRegistry()
//	pipeline, err := parascore.NewPipeline(parascore.Config{
//		JSONGlob:        "data/*_paraphrases.json",
//		CheckpointsGlob: "models/*ML128*",
//		BatchSize:       16,
//	}, registry, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := pipeline.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// For each checkpoint the pipeline loads the model and tokenizer, builds
// source- and target-direction feature groups per corpus file, runs batch
// inference (reusing cached source-direction results for files that share a
// sentence group), and writes one probability per pair back into the file
// under "<checkpoint>_source" and "<checkpoint>_target" fields.
//
// Text-level backends that bring their own tokenizer (such as the local
// cross-encoder in pkg/classifier) run through RunScorer with identical
// caching and merge semantics.
package parascore
