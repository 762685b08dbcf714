package app

import (
	"context"
	"log/slog"

	"chemradar/internal/config"
	"chemradar/internal/infrastructure/feed"
	"chemradar/internal/infrastructure/feishu"
	"chemradar/internal/infrastructure/llm"
	"chemradar/internal/infrastructure/scheduler"
	"chemradar/internal/infrastructure/storage"
	"chemradar/internal/logging"
	"chemradar/internal/ports"
	"chemradar/internal/usecase"
)

// Application wires configuration to adapters and the pipeline use case.
// Missing credentials degrade the affected stage to a no-op instead of
// failing construction.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	archive  *storage.PostgresArchive
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := feed.NewRSSSource(nil, cfg.Feeds, baseLogger.With("component", "feeds"))

	var screener ports.Screener
	if s, err := llm.NewScreener(cfg.Screening); err != nil {
		baseLogger.Warn("fast screen disabled", "error", err)
	} else {
		screener = s
	}

	var analyzer ports.Analyzer
	if a, err := llm.NewAnalyzer(cfg.Analysis); err != nil {
		baseLogger.Warn("deep analysis disabled, selection will yield nothing", "error", err)
	} else {
		analyzer = a
	}

	var notifier ports.Notifier
	if cfg.Feishu.WebhookURL != "" {
		notifier = feishu.NewNotifier(cfg.Feishu.WebhookURL, cfg.Feishu.Timeout())
	} else {
		baseLogger.Warn("feishu webhook not configured, delivery disabled")
	}

	var archive *storage.PostgresArchive
	var deliveryArchive ports.DeliveryArchive
	if cfg.Database.DSN != "" {
		if a, err := storage.Open(cfg.Database.DSN); err != nil {
			baseLogger.Warn("delivery archive disabled", "error", err)
		} else {
			archive = a
			deliveryArchive = a
		}
	}

	selector := usecase.NewSelector(screener, analyzer, usecase.SelectionPolicy{
		Quotas:   cfg.Selection.Quotas,
		Priority: cfg.Selection.Priority,
		FailOpen: cfg.Screening.FastScreenFailOpen(),
	}, baseLogger.With("component", "selection"))

	committer := usecase.NewCommitter(notifier, deliveryArchive, baseLogger.With("component", "commit"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Selector:  selector,
		Committer: committer,
		StorePath: cfg.Store.Path,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, archive: archive, logger: baseLogger}
}

// Run executes the pipeline once, or on the configured schedule when the
// scheduler is enabled.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	defer a.closeArchive()

	if !a.cfg.Scheduler.Enabled {
		return a.pipeline.Run(ctx)
	}

	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval())
	runner := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := runner.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return runner.Stop(context.Background())
}

func (a *Application) closeArchive() {
	if a.archive == nil {
		return
	}
	if err := a.archive.Close(); err != nil {
		a.logger.Warn("close archive", "error", err)
	}
}
