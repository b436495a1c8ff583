package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imemo88/nautilus-trader/internal/cfg"
	"github.com/imemo88/nautilus-trader/internal/dbg"
	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/datasource/duckdb"
	"github.com/imemo88/nautilus-trader/pkg/engine"
	"github.com/imemo88/nautilus-trader/pkg/middleware"
)

const Version = "0.1.0"

func main() {
	configPath := flag.String("config", "dataengine.yaml", "path to the configuration file")
	flag.Parse()

	c, err := cfg.LoadAndValidate(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := dbg.NewLogger(c.Logging.Level, c.Logging.Development)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info("data engine started", zap.String("version", Version), zap.String("config", *configPath))
	defer logger.Info("data engine finished")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, c, logger); err != nil {
		logger.Error("data engine failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cfg.Config, logger *zap.Logger) error {
	live := engine.NewLiveDataEngine(engine.Config{
		DataQueueSize:    c.Engine.DataQueueSize,
		MessageQueueSize: c.Engine.MessageQueueSize,
		CheckOwner:       *c.Engine.CheckOwner,
	}, logger.Named("engine"))

	flags, err := middleware.ParseMonitorFlags(c.Monitor)
	if err != nil {
		return err
	}
	monitor := middleware.NewMonitor(logger.Named("monitor"), flags)
	telemetry := middleware.NewTelemetry(logger.Named("telemetry"))
	performance := middleware.NewPerformance(logger.Named("performance"))

	chain := []middleware.Middleware{performance.Wrap, telemetry.Wrap, monitor.Wrap}

	var ledger *middleware.Ledger
	if c.Recorder != nil {
		store := duckdb.NewClient(duckdb.Config{Venue: "RECORDER", DSN: c.Recorder.DSN, Table: c.Recorder.Table}, logger.Named("recorder"))
		if err := store.Connect(ctx); err != nil {
			return fmt.Errorf("unable to open recorder: %w", err)
		}
		defer func() {
			_ = store.Disconnect(context.Background())
		}()
		ledger = middleware.NewLedger(logger.Named("recorder"), store, c.Recorder.Batch)
		chain = append(chain, ledger.Wrap)
	}

	var pushover *middleware.Pushover
	if p := c.Alerts.Pushover; p != nil {
		pushover = middleware.NewPushover(logger.Named("pushover"), p.User, p.Token, p.Device)
		chain = append(chain, pushover.Wrap)
	}

	console := middleware.Chain(chain...)(middleware.Noop("console"))

	clients, err := buildClients(c.Clients, logger.Named("datasource"))
	if err != nil {
		return err
	}

	if err := live.Start(ctx); err != nil {
		return err
	}

	abort := func(err error) error {
		live.Stop()
		<-live.Done()
		return err
	}

	for _, client := range clients {
		if err := live.Subscribe(bus.KindStatus, client.Id(), console); err != nil {
			return abort(err)
		}
		if err := live.RegisterClient(ctx, client); err != nil {
			return abort(err)
		}
	}
	for _, s := range c.Subscriptions {
		kind, _ := bus.ParseKind(s.Kind)
		if err := live.Subscribe(kind, s.Key, console); err != nil {
			return abort(err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-live.Done():
			return nil
		case <-gctx.Done():
			live.Stop()
			<-live.Done()
			return nil
		}
	})
	if c.Engine.StatsInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(c.Engine.StatsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					live.Statistics().Print(logger)
				case <-live.Done():
					return nil
				}
			}
		})
	}
	err = g.Wait()

	if ledger != nil {
		err = errors.Join(err, ledger.Flush(context.Background()))
	}
	if pushover != nil {
		pushover.Wait()
	}
	telemetry.PrintStatistics()
	performance.PrintStatistics()
	return err
}
