// Package tracker owns the state of the tracker: the last published result
// set, when it was published and whether a run is in progress.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/internal/history"
	"tcgwatch/internal/notify"
	"tcgwatch/internal/pipeline"
	"tcgwatch/internal/snapshot"
	"time"

	"github.com/google/uuid"
)

const (
	report_tracker_run      = "tracker.run"
	report_tracker_snapshot = "tracker.snapshot"
	report_tracker_history  = "tracker.history"
	report_tracker_notify   = "tracker.notify"
)

// ErrRunActive is returned when a run is requested while another one is in progress.
var ErrRunActive = errors.New("a run is already in progress")

// Runner is what the tracker runs, implemented by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// State is a complete, published result set. A published State is never modified.
type State struct {
	RunID      string
	Items      []catalog.ValidatedItem
	LastUpdate time.Time
	Reports    []pipeline.RetailerReport
}

type Status struct {
	// LastUpdate is nil until the first run completes.
	LastUpdate    *time.Time `json:"last_update"`
	ProductsCount int        `json:"products_count"`
	IsScraping    bool       `json:"is_scraping"`
	Retailers     []string   `json:"retailers"`
}

type Options struct {
	// Snapshots, History and Notifier are optional.
	Snapshots snapshot.API
	History   history.API
	Notifier  notify.API
}

type Tracker struct {
	runner  Runner
	opts    Options
	time    chrono.TimeAPI
	tel     telemetry.API
	slot    chan struct{}
	state   atomic.Pointer[State]
	pending sync.WaitGroup
}

func NewTracker(runner Runner, opts Options, time chrono.TimeAPI, tel telemetry.API) *Tracker {
	assert.NotNil(runner)
	assert.NotNil(time)
	assert.NotNil(tel)

	t := &Tracker{
		runner: runner,
		opts:   opts,
		time:   time,
		tel:    telemetry.NewScopedAPI("tracker", tel),
		slot:   make(chan struct{}, 1),
	}
	t.state.Store(&State{})
	return t
}

func (t *Tracker) acquire() bool {
	select {
	case t.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (t *Tracker) release() {
	<-t.slot
}

// Restore publishes items from a previous process, for example the latest
// snapshot. It does nothing while a run is in progress.
func (t *Tracker) Restore(items []catalog.ValidatedItem, at time.Time) bool {
	if !t.acquire() {
		return false
	}
	defer t.release()
	t.state.Store(&State{Items: items, LastUpdate: at})
	return true
}

// Run runs the pipeline and publishes its result, it returns ErrRunActive
// immediately if another run is in progress.
func (t *Tracker) Run(ctx context.Context, req pipeline.Request, notifyItems bool) (State, error) {
	if !t.acquire() {
		return State{}, ErrRunActive
	}
	defer t.release()
	return t.run(ctx, req, notifyItems)
}

// Trigger starts a run in the background, it returns ErrRunActive if
// another run is in progress. The run is not canceled with `ctx`.
func (t *Tracker) Trigger(ctx context.Context, req pipeline.Request) error {
	if !t.acquire() {
		return ErrRunActive
	}
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer t.release()
		defer func() {
			r := recover()
			if r != nil {
				t.tel.ReportBroken(report_tracker_run, fmt.Errorf("panic: %v", r))
			}
		}()
		_, err := t.run(context.WithoutCancel(ctx), req, true)
		if err != nil {
			t.tel.ReportBroken(report_tracker_run, err)
		}
	}()
	return nil
}

// Wait blocks until every triggered run has finished.
func (t *Tracker) Wait() {
	t.pending.Wait()
}

func (t *Tracker) run(ctx context.Context, req pipeline.Request, notifyItems bool) (State, error) {
	result, err := t.runner.Run(ctx, req)
	if err != nil {
		return State{}, fmt.Errorf("run pipeline: %w", err)
	}

	items := result.Items
	if items == nil {
		items = []catalog.ValidatedItem{}
	}
	state := &State{
		RunID:      uuid.NewString(),
		Items:      items,
		LastUpdate: t.time.Now(),
		Reports:    result.Reports,
	}
	t.state.Store(state)
	t.tel.ReportCount(report_tracker_run, int64(len(items)))

	if t.opts.Snapshots != nil {
		path, err := t.opts.Snapshots.Write(items)
		if err != nil {
			t.tel.ReportBroken(report_tracker_snapshot, err)
		} else {
			t.tel.ReportDebug("snapshot written", path)
		}
	}

	if t.opts.History != nil {
		extracted, dropped := 0, 0
		for _, report := range result.Reports {
			extracted += report.Extracted
			dropped += len(report.Dropped)
		}
		err = t.opts.History.Record(ctx, history.Run{
			ID:         state.RunID,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
			Retailers:  req.Retailers,
			Extracted:  extracted,
			Dropped:    dropped,
			Items:      items,
		})
		if err != nil {
			t.tel.ReportBroken(report_tracker_history, err)
		}
	}

	if notifyItems && t.opts.Notifier != nil && len(items) > 0 {
		err = t.opts.Notifier.Notify(ctx, items)
		if err != nil {
			t.tel.ReportBroken(report_tracker_notify, err)
		}
	}

	return *state, nil
}

// State returns the last published state, safe to call during a run.
func (t *Tracker) State() State {
	return *t.state.Load()
}

// Results returns the items of the last completed run.
func (t *Tracker) Results() []catalog.ValidatedItem {
	return t.state.Load().Items
}

func (t *Tracker) Running() bool {
	return len(t.slot) > 0
}

func (t *Tracker) Status() Status {
	state := t.state.Load()
	status := Status{
		ProductsCount: len(state.Items),
		IsScraping:    t.Running(),
		Retailers:     []string{},
	}
	if !state.LastUpdate.IsZero() {
		lastUpdate := state.LastUpdate
		status.LastUpdate = &lastUpdate
	}

	seen := map[string]bool{}
	for _, item := range state.Items {
		store := item.Retailer.StoreName()
		if seen[store] {
			continue
		}
		seen[store] = true
		status.Retailers = append(status.Retailers, store)
	}
	sort.Strings(status.Retailers)
	return status
}
