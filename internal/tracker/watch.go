package tracker

import (
	"context"
	"fmt"
	"tcgwatch/internal/pipeline"
	"time"
)

const report_tracker_watch = "tracker.watch"

type WatchOptions struct {
	// Interval is the wait between two completed runs, defaults to 30 minutes.
	Interval time.Duration
	// Cooldown is the wait after a failed run, defaults to a minute.
	Cooldown time.Duration
	Notify   bool
}

func (o WatchOptions) withDefaults() WatchOptions {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Minute
	}
	if o.Cooldown <= 0 {
		o.Cooldown = time.Minute
	}
	return o
}

func (t *Tracker) watchOnce(ctx context.Context, req pipeline.Request, notifyItems bool) (state State, err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Run(ctx, req, notifyItems)
}

// Watch runs forever until ctx is canceled. A failed run never stops the
// loop, it is reported and retried after the cooldown.
func (t *Tracker) Watch(ctx context.Context, req pipeline.Request, opts WatchOptions) error {
	opts = opts.withDefaults()
	for {
		wait := opts.Interval
		state, err := t.watchOnce(ctx, req, opts.Notify)
		if err != nil {
			t.tel.ReportBroken(report_tracker_watch, err, fmt.Sprintf("retrying in %s", opts.Cooldown))
			wait = opts.Cooldown
		} else {
			t.tel.ReportDebug(
				"run completed",
				fmt.Sprintf("%d items", len(state.Items)),
				fmt.Sprintf("next run in %s", wait),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
