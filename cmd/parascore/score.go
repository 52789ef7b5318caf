package parascore

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/soundprediction/parascore"
	"github.com/soundprediction/parascore/pkg/checkpoint"
	"github.com/soundprediction/parascore/pkg/config"
	"github.com/soundprediction/parascore/pkg/logger"
	"github.com/soundprediction/parascore/pkg/telemetry"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score corpus files with model checkpoints",
	Long: `Score every corpus file matched by --json-glob with every model checkpoint
matched by --checkpoints-glob, in both the source and target direction.

Checkpoint directory names must encode the maximum sequence length as
ML<digits> and select the model family by substring (directories containing
"xlm-roberta" load as XLM-RoBERTa, everything else as BERT). Each corpus file
is overwritten in place with "<checkpoint>_source" and "<checkpoint>_target"
probability fields added per record.`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("json-glob", "", "Glob matching corpus JSON files")
	scoreCmd.Flags().String("checkpoints-glob", "", "Glob matching model checkpoint directories")
	scoreCmd.Flags().Int("batch-size", 8, "Inference batch size")
	scoreCmd.Flags().Int64("seed", 42, "Random seed")
	scoreCmd.Flags().Bool("do-lower-case", false, "Lower-case input during tokenization")
	scoreCmd.Flags().String("source-language", "", "Language tag for source-side pairs")
	scoreCmd.Flags().String("target-language", "", "Language tag for target-side pairs")
	scoreCmd.Flags().String("telemetry-parquet-path", "", "Directory for error telemetry parquet files")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideScoreFlags(cmd, cfg)

	if cfg.Inputs.JSONGlob == "" {
		return fmt.Errorf("--json-glob is required")
	}
	if cfg.Inputs.CheckpointsGlob == "" {
		return fmt.Errorf("--checkpoints-glob is required")
	}

	// One process-wide seed; inference itself is deterministic, the seed
	// only pins down any stochastic model behavior.
	rand.Seed(cfg.Inference.Seed)

	log, flush, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	pipeline, err := parascore.NewPipeline(parascore.Config{
		JSONGlob:        cfg.Inputs.JSONGlob,
		CheckpointsGlob: cfg.Inputs.CheckpointsGlob,
		BatchSize:       cfg.Inference.BatchSize,
		DoLowerCase:     cfg.Inference.DoLowerCase,
		SourceLanguage:  cfg.Inference.SourceLanguage,
		TargetLanguage:  cfg.Inference.TargetLanguage,
	}, checkpoint.DefaultRegistry(), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pipeline.Run(ctx)
}

func overrideScoreFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("json-glob") {
		cfg.Inputs.JSONGlob, _ = cmd.Flags().GetString("json-glob")
	}
	if cmd.Flags().Changed("checkpoints-glob") {
		cfg.Inputs.CheckpointsGlob, _ = cmd.Flags().GetString("checkpoints-glob")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Inference.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Inference.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("do-lower-case") {
		cfg.Inference.DoLowerCase, _ = cmd.Flags().GetBool("do-lower-case")
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

// buildLogger assembles the slog logger: colored terminal output, optionally
// wrapped in the parquet telemetry handler. The returned flush func must be
// called before exit so buffered telemetry reaches disk.
func buildLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Log.Level)
	colorHandler := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if cfg.Telemetry.ParquetPath == "" {
		return slog.New(colorHandler), func() {}, nil
	}

	parquetHandler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize error telemetry: %w", err)
	}
	flush := func() {
		if err := parquetHandler.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to flush telemetry:", err)
		}
	}
	return slog.New(parquetHandler), flush, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
