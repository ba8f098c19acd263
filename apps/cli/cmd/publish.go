package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/apiflow/packages/core/config"
	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
	"github.com/abdul-hamid-achik/apiflow/packages/export/metrics"
	"github.com/abdul-hamid-achik/apiflow/packages/notify"
)

const publishTimeout = 15 * time.Second

// publisher sends webhook notifications and exports metrics after a run.
// It lives as long as the command so that watch mode can detect recovery.
type publisher struct {
	notifier    *notify.Manager
	exporters   []metrics.Exporter
	environment string
}

func newPublisher(cfg *config.Config) *publisher {
	p := &publisher{
		notifier:    notify.NewManager(notify.NotifyOn(cfg.Notify.When)),
		environment: cfg.Notify.Environment,
	}
	if cfg.Notify.Slack != "" {
		var opts []notify.SlackOption
		if cfg.Notify.SlackChannel != "" {
			opts = append(opts, notify.WithSlackChannel(cfg.Notify.SlackChannel))
		}
		p.notifier.AddNotifier(notify.NewSlackNotifier(cfg.Notify.Slack, opts...))
	}
	if cfg.Notify.Teams != "" {
		p.notifier.AddNotifier(notify.NewTeamsNotifier(cfg.Notify.Teams))
	}

	if file := cfg.Metrics.File; file != "" {
		if strings.EqualFold(filepath.Ext(file), ".json") {
			p.exporters = append(p.exporters, metrics.NewJSONExporter(metrics.WithJSONFile(file)))
		} else {
			p.exporters = append(p.exporters, metrics.NewPrometheusExporter(metrics.WithPrometheusFile(file)))
		}
	}
	if site := cfg.Metrics.Datadog; site != "" {
		p.exporters = append(p.exporters, metrics.NewDataDogExporter(
			metrics.WithDataDogSite(site),
			metrics.WithDataDogTags(cfg.Metrics.DatadogTags),
		))
	}
	return p
}

// publish never fails the run; problems are logged.
func (p *publisher) publish(ctx context.Context, results []*runner.RunResult, start, end time.Time) {
	if p.notifier.Len() == 0 && len(p.exporters) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if len(p.exporters) > 0 {
		report := metrics.Collect(results, start, end)
		if err := metrics.ExportAll(ctx, report, p.exporters...); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}

	if p.notifier.Len() > 0 {
		summary := notify.Summarize(results, end.Sub(start), p.environment)
		if err := p.notifier.Notify(ctx, summary); err != nil {
			logger.Warn("notification failed", zap.Error(err))
		}
	}
}
