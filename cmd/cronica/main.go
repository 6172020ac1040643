package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/cronica/internal/config"
	"github.com/crimson-sun/cronica/internal/engine"
	"github.com/crimson-sun/cronica/internal/engine/dedup"
	"github.com/crimson-sun/cronica/internal/engine/normalizer"
	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/logging"
	"github.com/crimson-sun/cronica/internal/metrics"
	"github.com/crimson-sun/cronica/internal/output"
	"github.com/crimson-sun/cronica/internal/output/async"
	"github.com/crimson-sun/cronica/internal/output/file"
	"github.com/crimson-sun/cronica/internal/output/multi"
	"github.com/crimson-sun/cronica/internal/output/stdout"
	"github.com/crimson-sun/cronica/internal/output/webhook"
	"github.com/crimson-sun/cronica/internal/pipeline"
	"github.com/crimson-sun/cronica/internal/server"
	"github.com/crimson-sun/cronica/internal/source"

	// Register source implementations.
	_ "github.com/crimson-sun/cronica/internal/source/file"
	_ "github.com/crimson-sun/cronica/internal/source/httpsource"
	_ "github.com/crimson-sun/cronica/internal/source/supabase"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cronica [-config path] [report|watch|serve]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("cronica", config.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if mode := flag.Arg(0); mode != "" {
		cfg.Mode = mode
	}

	// Reports on stdout keep logs machine-readable on stderr.
	logger := logging.Init(cfg.Output.Format == "stdout", logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("cronica failed", "mode", cfg.Mode, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var collector *metrics.Collector
	if cfg.Server.Metrics {
		collector = metrics.New(true)
	}
	eng, err := newEngine(cfg, logger, collector)
	if err != nil {
		return err
	}

	src, err := source.Open(source.Config{
		Provider:     cfg.Source.Provider,
		Path:         cfg.Source.Path,
		Endpoint:     cfg.Source.Endpoint,
		APIKey:       cfg.Source.APIKey,
		SessionID:    cfg.Source.SessionID,
		Timeout:      cfg.Source.Timeout,
		PollInterval: cfg.Source.PollInterval,
		Logger:       logger,
	})
	// Serve mode posts sessions in request bodies and needs no source.
	if err != nil && cfg.Mode != "serve" {
		return err
	}

	logger.Info("cronica starting",
		"version", config.Version,
		"mode", cfg.Mode,
		"source", cfg.Source.Provider,
		"locale", cfg.Engine.Locale,
		"output", cfg.Output.Format,
	)

	switch cfg.Mode {
	case "serve":
		return serve(ctx, cfg, eng, src, collector, logger)
	case "watch", "report":
		fs, err := cfg.Filter.State(eng.Location())
		if err != nil {
			return err
		}
		out, err := buildOutput(cfg, cfg.Mode == "watch", logger)
		if err != nil {
			return err
		}
		p := pipeline.New(src, eng, out, pipeline.WithLogger(logger))
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("output close error", "error", err)
			}
		}()
		if cfg.Mode == "watch" {
			return p.Watch(ctx, fs)
		}
		return p.Run(ctx, fs)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func serve(ctx context.Context, cfg config.Config, eng *engine.Engine, src source.Source, collector *metrics.Collector, logger *slog.Logger) error {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(collector),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	}
	if loader, ok := src.(source.SessionLoader); ok {
		opts = append(opts, server.WithSessionLoader(loader))
	}
	srv := server.New(eng, opts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.ShutdownTimeout)
	})
	if cfg.Server.Metrics {
		logger.Info("metrics enabled", "path", "/metrics")
	}

	return g.Wait()
}

func newEngine(cfg config.Config, logger *slog.Logger, collector *metrics.Collector) (*engine.Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	l, err := locale.Lookup(cfg.Engine.Locale)
	if err != nil {
		return nil, err
	}
	ids, err := normalizer.ParseIDStrategy(cfg.Engine.IDStrategy)
	if err != nil {
		return nil, err
	}
	norm := normalizer.New(
		normalizer.WithLocale(l),
		normalizer.WithLocation(loc),
		normalizer.WithLogger(logger),
		normalizer.WithIDStrategy(ids),
	)
	return engine.New(norm, dedup.New(), engine.WithMetrics(collector)), nil
}

// buildOutput creates the primary sink named by Output.Format plus a file
// and webhook sink for any further destination configured. In watch mode
// the file sink flushes per report and the webhook is decoupled through an
// async buffer.
func buildOutput(cfg config.Config, watch bool, logger *slog.Logger) (output.Output, error) {
	verbosity, err := output.ParseVerbosity(cfg.Engine.Verbosity)
	if err != nil {
		return nil, err
	}

	var outs []output.Output
	closeAll := func() {
		for _, o := range outs {
			o.Close()
		}
	}

	if cfg.Output.Format == "stdout" {
		outs = append(outs, stdout.New(verbosity, cfg.Output.Pretty))
	}
	if cfg.Output.FilePath != "" {
		opts := []file.Option{file.WithMaxSize(cfg.Output.MaxFileSize)}
		if watch {
			opts = append(opts, file.WithFlushEach())
		}
		f, err := file.New(cfg.Output.FilePath, verbosity, opts...)
		if err != nil {
			closeAll()
			return nil, err
		}
		outs = append(outs, f)
	}
	if cfg.Output.WebhookURL != "" {
		opts := []webhook.Option{
			webhook.WithHeaders(cfg.Output.Headers),
			webhook.WithVerbosity(verbosity),
			webhook.WithLogger(logger),
		}
		if !watch {
			// One report per run: post it on Write rather than waiting for the timer.
			opts = append(opts, webhook.WithBatchSize(1))
		}
		var wh output.Output = webhook.New(cfg.Output.WebhookURL, opts...)
		if watch {
			wh = async.New(wh, async.WithLogger(logger))
		}
		outs = append(outs, wh)
	}

	switch len(outs) {
	case 0:
		return nil, fmt.Errorf("no output configured for format %q", cfg.Output.Format)
	case 1:
		return outs[0], nil
	default:
		return multi.New(outs...), nil
	}
}
