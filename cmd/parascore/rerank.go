package parascore

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soundprediction/parascore"
	"github.com/soundprediction/parascore/pkg/classifier"
	"github.com/soundprediction/parascore/pkg/config"
	"github.com/spf13/cobra"
)

var rerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Score corpus files with a local cross-encoder reranker",
	Long: `Score every corpus file matched by --json-glob with a local cross-encoder
reranker model instead of checkpoint directories. The reranker brings its own
tokenizer, so no checkpoint metadata is needed; probabilities are written
under "<label>_source" and "<label>_target" with the same caching behavior as
the score command.`,
	RunE: runRerank,
}

func init() {
	rootCmd.AddCommand(rerankCmd)

	rerankCmd.Flags().String("json-glob", "", "Glob matching corpus JSON files")
	rerankCmd.Flags().String("model", "", "Cross-encoder model, e.g. BAAI/bge-reranker-base")
	rerankCmd.Flags().String("label", "", "Result field prefix (defaults to a sanitized model name)")
	rerankCmd.Flags().String("source-language", "", "Language tag for source-side pairs")
	rerankCmd.Flags().String("target-language", "", "Language tag for target-side pairs")
	rerankCmd.Flags().String("telemetry-parquet-path", "", "Directory for error telemetry parquet files")
}

func runRerank(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideRerankFlags(cmd, cfg)

	if cfg.Inputs.JSONGlob == "" {
		return fmt.Errorf("--json-glob is required")
	}
	if cfg.Reranker.Model == "" {
		return fmt.Errorf("--model is required")
	}

	label, _ := cmd.Flags().GetString("label")
	if label == "" {
		label = strings.ReplaceAll(cfg.Reranker.Model, "/", "_")
	}

	log, flush, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	scorer, err := classifier.NewEmbedEverythingScorer(cfg.Reranker.Model)
	if err != nil {
		return err
	}
	defer scorer.Close()

	pipeline, err := parascore.NewPipeline(parascore.Config{
		JSONGlob:       cfg.Inputs.JSONGlob,
		SourceLanguage: cfg.Inference.SourceLanguage,
		TargetLanguage: cfg.Inference.TargetLanguage,
	}, nil, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pipeline.RunScorer(ctx, scorer, label)
}

func overrideRerankFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("json-glob") {
		cfg.Inputs.JSONGlob, _ = cmd.Flags().GetString("json-glob")
	}
	if cmd.Flags().Changed("model") {
		cfg.Reranker.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("source-language") {
		cfg.Inference.SourceLanguage, _ = cmd.Flags().GetString("source-language")
	}
	if cmd.Flags().Changed("target-language") {
		cfg.Inference.TargetLanguage, _ = cmd.Flags().GetString("target-language")
	}
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}
