package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// nextRun returns when expr fires next after from
func nextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule.Next(from), nil
}

// runScheduled calls job on the cron schedule until ctx is cancelled. A run
// still in progress when the next one is due makes that one skip.
func runScheduled(ctx context.Context, expr string, job func(context.Context)) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(expr, func() { job(ctx) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	next, _ := nextRun(expr, time.Now())
	logStep("Scheduled %q, next run at %s", expr, next.Format(timestampLayout))

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
