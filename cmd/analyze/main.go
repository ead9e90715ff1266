// Package main provides a one-shot analyzer over local race card files.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/value-scanner/internal/config"
	"github.com/yourusername/value-scanner/internal/dutching"
	"github.com/yourusername/value-scanner/internal/engine"
	"github.com/yourusername/value-scanner/internal/feed"
	"github.com/yourusername/value-scanner/internal/logger"
	"github.com/yourusername/value-scanner/internal/match"
	"github.com/yourusername/value-scanner/internal/report"
	"github.com/yourusername/value-scanner/internal/service"
)

var (
	configFile     string
	valueThreshold float64
	dudMargin      float64
	minEdge        float64
	bankroll       float64
	csvOut         string
	appLog         *logrus.Logger
	cfg            *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().Float64Var(&valueThreshold, "value-threshold", 0, "Override minimum model-vs-implied gap for a value pick")
	rootCmd.Flags().Float64Var(&dudMargin, "dud-margin", 0, "Override minimum overbet gap for a dud favourite")
	rootCmd.Flags().Float64Var(&minEdge, "min-edge", 0, "Override minimum dutch edge")
	rootCmd.Flags().Float64Var(&bankroll, "bankroll", 0, "Override dutching bankroll")
	rootCmd.Flags().StringVar(&csvOut, "csv", "", "Write value picks to a CSV file")
}

var rootCmd = &cobra.Command{
	Use:   "analyze [files or directory]",
	Short: "Analyze race card files for value bets",
	Long:  `Runs the full value scan over local JSON race card files and prints the report digest.`,
	Args:  cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		applyOverrides()
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(args)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func applyOverrides() {
	if valueThreshold > 0 {
		cfg.Engine.ValueThreshold = valueThreshold
	}
	if dudMargin > 0 {
		cfg.Engine.DudMargin = dudMargin
	}
	if minEdge > 0 {
		cfg.Engine.MinEdgePercent = minEdge
	}
	if bankroll > 0 {
		cfg.Dutching.Bankroll = bankroll
	}
}

func runAnalyze(args []string) error {
	source, err := buildSource(args)
	if err != nil {
		return err
	}

	matcher := match.NewMatcher(
		match.ScorerByName(cfg.Matching.Scorer),
		cfg.Matching.SimilarityThreshold,
		cfg.Matching.AmbiguityMargin,
	)
	model := &engine.ProbabilityModel{
		Temperature:       cfg.Model.Temperature,
		StrengthFloor:     cfg.Model.StrengthFloor,
		FavBiasCorrection: cfg.Model.FavBiasCorrection,
	}
	finder := engine.NewValueFinder(engine.ValueConfig{
		ValueThreshold: cfg.Engine.ValueThreshold,
		DudMargin:      cfg.Engine.DudMargin,
		FavOddsMax:     cfg.Engine.FavOddsMax,
		MinModelProb:   cfg.Engine.MinModelProb,
		OddsMin:        cfg.Engine.OddsMin,
		OddsMax:        cfg.Engine.OddsMax,
	})
	detector := engine.NewEdgeDetector(cfg.Engine.MinEdgePercent)
	analyzer := engine.NewAnalyzer(matcher, model, finder, detector, 0, appLog)

	calculator := dutching.NewCalculator(dutching.Config{
		Bankroll:        cfg.Dutching.Bankroll,
		MinRunners:      cfg.Dutching.MinRunners,
		MaxRunners:      cfg.Dutching.MaxRunners,
		MinCombinedProb: cfg.Dutching.MinCombinedProb,
		Strict:          cfg.Dutching.Strict,
	})
	assembler := report.NewAssembler(report.Options{
		MaxRaces:      cfg.Report.MaxRaces,
		TopValuePicks: cfg.Report.TopValuePicks,
	})

	// One-shot runs analyze whatever the files hold; no start-time or
	// field-size filtering.
	scanSvc := service.NewScanService(source, analyzer, calculator, assembler, service.ScanConfig{}, appLog)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := scanSvc.Scan(ctx)
	if err != nil {
		return err
	}

	fmt.Print(result.Digest)

	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return fmt.Errorf("creating csv output: %w", err)
		}
		defer f.Close()
		if err := report.WriteValueCSV(f, result.Summaries); err != nil {
			return fmt.Errorf("writing csv output: %w", err)
		}
		appLog.WithField("path", csvOut).Info("Wrote value picks CSV")
	}

	return nil
}

// buildSource accepts a single directory or a list of JSON files
func buildSource(args []string) (feed.Source, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return feed.NewDirSource(args[0])
		}
	}
	return feed.NewFileSource(args...), nil
}
