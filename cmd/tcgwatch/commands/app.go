package commands

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"tcgwatch/internal/authenticity"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/internal/fetcher"
	"tcgwatch/internal/history"
	historydb "tcgwatch/internal/history/db"
	"tcgwatch/internal/notify"
	"tcgwatch/internal/pipeline"
	"tcgwatch/internal/snapshot"
	"tcgwatch/internal/tracker"
	"tcgwatch/lib/restyutil"
	libtelemetry "tcgwatch/lib/telemetry"
	"tcgwatch/lib/timezone"
	"time"
)

// app is every component of a tracker wired together from the config.
type app struct {
	config  Config
	env     Env
	request pipeline.Request
	time    chrono.StandardTime
	tel     telemetry.API

	db        *sql.DB
	history   *history.Store
	tracker   *tracker.Tracker
	telemetry libtelemetry.Telemetry
}

func setupTelemetry(ctx context.Context, name string) libtelemetry.Telemetry {
	t, err := libtelemetry.SetupFromEnv(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no telemetry.json5 found, traces and metrics are disabled")
		return t
	}
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	return t
}

func openHistory(config Config, tel telemetry.API) (*sql.DB, *history.Store, error) {
	if config.History.Database == "" {
		return nil, nil, nil
	}
	db, err := config.History.OpenDB(historydb.Schema)
	if err != nil {
		return nil, nil, err
	}
	store := history.NewStore(db, tel)
	return db, &store, nil
}

func newApp(ctx context.Context, config Config, env Env) (*app, error) {
	request, err := config.Request()
	if err != nil {
		return nil, err
	}

	location, err := timezone.Load(config.Timezone)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:    config,
		env:       env,
		request:   request,
		time:      chrono.NewStandardTime(location),
		tel:       telemetry.NewSlogAPI(nil),
		telemetry: setupTelemetry(ctx, "tcgwatch"),
	}

	fetchOpts := config.FetcherOptions()
	if config.Fetch.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(config.Fetch.DumpDir)
		if err != nil {
			return nil, err
		}
		fetchOpts.Dump = output
	}
	client := fetcher.NewClient(fetchOpts, a.tel)

	runner := pipeline.NewPipeline(
		client,
		authenticity.NewFilter(config.AuthenticityLists(), a.tel),
		config.PipelineOptions(),
		a.time,
		a.tel,
	)

	db, store, err := openHistory(config, a.tel)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.history = store

	opts := tracker.Options{
		Snapshots: snapshot.NewWriter(config.SnapshotDir, a.time, a.tel),
		Notifier:  notify.NewEmail(config.Email, nil, a.time, a.tel),
	}
	if store != nil {
		opts.History = store
	}
	a.tracker = tracker.NewTracker(runner, opts, a.time, a.tel)
	return a, nil
}

// restore publishes the newest snapshot so a restarted server does not
// start out empty.
func (a *app) restore() {
	path, ok, err := snapshot.Latest(a.config.SnapshotDir)
	if err != nil {
		slog.Warn("failed to look for snapshots", "dir", a.config.SnapshotDir, "err", err)
		return
	}
	if !ok {
		return
	}
	items, err := snapshot.Read(path)
	if err != nil {
		slog.Warn("failed to read snapshot", "path", path, "err", err)
		return
	}
	at := a.time.Now()
	if modified, err := fileModTime(path); err == nil {
		at = modified
	}
	if a.tracker.Restore(items, at) {
		slog.Info("restored previous results", "path", path, "items", len(items))
	}
}

func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (a *app) Close() {
	a.tracker.Wait()
	if a.db != nil {
		a.db.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.telemetry.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
}
