package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// RunBatch executes one full pipeline run: read inputs, process every ticket,
// persist one row per input, return the summary. It has no Slack dependency
// so it can be called from both the one-shot path and the scheduler.
func RunBatch(ctx context.Context, cfg Config, db *sql.DB, pipeline *Pipeline, source RecordSource) (RunSummary, []TicketRecord, error) {
	inputs, err := source.Records()
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("loading input records: %w", err)
	}
	log.Printf("batch start: %d tickets from input", len(inputs))

	if timeout := cfg.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	startedAt := time.Now()
	runID, err := StartRun(db, startedAt)
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("recording run start: %w", err)
	}

	records, err := pipeline.Run(ctx, inputs)
	if err != nil {
		return RunSummary{RunID: runID}, nil, err
	}

	if _, err := InsertTicketResults(db, runID, records); err != nil {
		return RunSummary{RunID: runID}, records, fmt.Errorf("storing results: %w", err)
	}
	summary, err := FinishRun(db, runID, records, time.Now())
	if err != nil {
		return summary, records, fmt.Errorf("recording run finish: %w", err)
	}

	log.Printf("batch done: run=%d total=%d completed=%d failed=%d high_risk=%d in %s",
		summary.RunID, summary.Total, summary.Completed, summary.Failed, summary.HighRisk,
		time.Since(startedAt).Round(time.Second))
	return summary, records, nil
}

// StartRunScheduler starts a cron-based scheduler that periodically runs the
// batch and posts results to Slack. The schedule is a standard 5-field cron
// expression (minute hour day-of-month month day-of-week).
// Examples: "0 6 * * *" (daily 6am), "0 6 * * 1-5" (weekdays 6am).
func StartRunScheduler(cfg Config, db *sql.DB, pipeline *Pipeline, source RecordSource, api *slack.Client) bool {
	schedule := strings.TrimSpace(cfg.RunSchedule)
	if schedule == "" {
		log.Println("Scheduled runs disabled (run_schedule not set)")
		return false
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid run_schedule '%s': %v — scheduled runs disabled", schedule, err)
		return false
	}

	log.Printf("Runs scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			summary, records, runErr := RunBatch(context.Background(), cfg, db, pipeline, source)
			if runErr != nil {
				log.Printf("Scheduled run error: %v", runErr)
				continue
			}
			PostRunSummary(api, cfg.SummaryChannelID, summary)
			PostHighRiskAlerts(api, cfg.AlertChannelID, records)
		}
	}()
	return true
}
