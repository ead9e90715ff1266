// Package main provides the entry point for the value scanner service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/value-scanner/internal/config"
	"github.com/yourusername/value-scanner/internal/dutching"
	"github.com/yourusername/value-scanner/internal/engine"
	"github.com/yourusername/value-scanner/internal/feed"
	"github.com/yourusername/value-scanner/internal/health"
	"github.com/yourusername/value-scanner/internal/logger"
	"github.com/yourusername/value-scanner/internal/match"
	"github.com/yourusername/value-scanner/internal/metrics"
	"github.com/yourusername/value-scanner/internal/models"
	"github.com/yourusername/value-scanner/internal/report"
	"github.com/yourusername/value-scanner/internal/scheduler"
	"github.com/yourusername/value-scanner/internal/service"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     version,
	}).Info("Value scanner starting")

	// Initialize the odds feed
	source := feed.NewHTTPSource(cfg.Feed.BaseURL, cfg.Feed.APIKey, feed.HTTPClientConfig{
		Timeout:           cfg.FeedTimeout(),
		MaxRetries:        cfg.Feed.MaxRetries,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RateLimit:         cfg.Feed.RateLimitPerSecond,
		CircuitBreakerMax: cfg.Feed.CircuitBreakerMax,
	}, appLog)
	defer source.Close()

	// Wire the analysis pipeline
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
	analyzer := engine.NewAnalyzer(matcher, model, finder, detector, cfg.CacheTTL(), appLog)

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

	scanSvc := service.NewScanService(source, analyzer, calculator, assembler, service.ScanConfig{
		FieldMin:     cfg.Engine.FieldMin,
		FieldMax:     cfg.Engine.FieldMax,
		UpcomingOnly: true,
	}, appLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stream live price moves between polls when a stream URL is set
	if cfg.Feed.StreamURL != "" {
		stream := feed.NewStreamClient(cfg.Feed.StreamURL, cfg.Feed.APIKey, appLog)
		stream.SetReconnectConfig(feed.ReconnectConfig{
			MaxRetries:        cfg.Feed.ReconnectMaxRetries,
			InitialBackoff:    cfg.ReconnectBackoff(),
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 1.5,
		})
		stream.AddHandler(func(snapshot *models.OddsSnapshot) error {
			summary, err := scanSvc.ScanSnapshot(snapshot)
			if err != nil {
				return err
			}
			if summary != nil && summary.HasFindings() {
				fmt.Print(assembler.Digest([]report.RaceSummary{*summary}))
			}
			return nil
		})
		go func() {
			if err := stream.ConnectWithRetry(ctx); err != nil {
				appLog.WithError(err).Error("Odds stream unavailable, polling only")
			}
		}()
		defer stream.Close()
	}

	// Start metrics server
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, metrics.Handler())
			appLog.WithField("address", cfg.MetricsAddress()).Info("Metrics server listening")
			if err := http.ListenAndServe(cfg.MetricsAddress(), mux); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Start health server
	healthSrv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		Commit:      commit,
		Port:        fmt.Sprintf("%d", cfg.Metrics.HealthPort),
		Logger:      appLog,
		Feed:        source,
	})
	if err := healthSrv.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Schedule periodic scans
	sched := scheduler.NewScheduler(scanSvc, appLog)
	sched.OnResult(func(result *service.ScanResult) {
		fmt.Print(result.Digest)
	})
	if err := sched.ScheduleScans(cfg.Feed.PollCron); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule scans")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	healthSrv.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"poll_cron": cfg.Feed.PollCron,
		"next_run":  sched.GetNextRun().Format(time.RFC3339),
	}).Info("Value scanner running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthSrv.SetReady(false)
	cancel()

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}
	if err := healthSrv.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error during health server shutdown")
	}

	appLog.Info("Value scanner shut down successfully")
}
