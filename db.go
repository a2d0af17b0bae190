package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS ticket_results (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          INTEGER NOT NULL DEFAULT 0,
		ticket_number   TEXT NOT NULL,
		ticket_id       TEXT DEFAULT '',
		inbound_text    TEXT DEFAULT '',
		outbound_text   TEXT DEFAULT '',
		sentiment_score REAL NOT NULL DEFAULT 0,
		sentiment_label TEXT NOT NULL DEFAULT 'Neutral',
		emotion         TEXT NOT NULL DEFAULT 'None',
		risk_score      REAL NOT NULL DEFAULT 0,
		risk_level      TEXT NOT NULL DEFAULT 'Low',
		category        TEXT DEFAULT '',
		status          TEXT NOT NULL,
		error           TEXT DEFAULT '',
		analyzed_at     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON ticket_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_ticket ON ticket_results(ticket_number);
	CREATE INDEX IF NOT EXISTS idx_results_risk ON ticket_results(risk_level);

	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME,
		total       INTEGER NOT NULL DEFAULT 0,
		completed   INTEGER NOT NULL DEFAULT 0,
		failed      INTEGER NOT NULL DEFAULT 0,
		high_risk   INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func StartRun(db *sql.DB, startedAt time.Time) (int64, error) {
	res, err := db.Exec(`INSERT INTO runs (started_at) VALUES (?)`, startedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func InsertTicketResults(db *sql.DB, runID int64, records []TicketRecord) (int, error) {
	stmt, err := db.Prepare(
		`INSERT INTO ticket_results
		 (run_id, ticket_number, ticket_id, inbound_text, outbound_text,
		  sentiment_score, sentiment_label, emotion, risk_score, risk_level,
		  category, status, error, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		_, err := stmt.Exec(
			runID, rec.TicketNumber, rec.TicketID, rec.InboundText, rec.OutboundText,
			rec.Result.SentimentScore, string(rec.Result.SentimentLabel), rec.Result.Emotion,
			rec.Result.RiskScore, string(rec.Result.RiskLevel),
			rec.Result.Category, rec.Status, rec.Err, rec.AnalyzedAt,
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// RunSummary is what the scheduler posts to Slack after a batch.
type RunSummary struct {
	RunID     int64
	Total     int
	Completed int
	Failed    int
	HighRisk  int
}

func FinishRun(db *sql.DB, runID int64, records []TicketRecord, finishedAt time.Time) (RunSummary, error) {
	s := RunSummary{RunID: runID, Total: len(records)}
	for _, rec := range records {
		if rec.Status == StatusFailed {
			s.Failed++
		} else {
			s.Completed++
		}
		if rec.Result.RiskLevel == RiskHigh {
			s.HighRisk++
		}
	}
	_, err := db.Exec(
		`UPDATE runs SET finished_at = ?, total = ?, completed = ?, failed = ?, high_risk = ? WHERE id = ?`,
		finishedAt, s.Total, s.Completed, s.Failed, s.HighRisk, runID,
	)
	return s, err
}

func ResultsForRun(db *sql.DB, runID int64) ([]TicketRecord, error) {
	rows, err := db.Query(
		`SELECT ticket_number, ticket_id, inbound_text, outbound_text,
		        sentiment_score, sentiment_label, emotion, risk_score, risk_level,
		        category, status, error, analyzed_at
		 FROM ticket_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TicketRecord
	for rows.Next() {
		var rec TicketRecord
		var label, level string
		err := rows.Scan(
			&rec.TicketNumber, &rec.TicketID, &rec.InboundText, &rec.OutboundText,
			&rec.Result.SentimentScore, &label, &rec.Result.Emotion,
			&rec.Result.RiskScore, &level,
			&rec.Result.Category, &rec.Status, &rec.Err, &rec.AnalyzedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.Result.SentimentLabel = SentimentLabel(label)
		rec.Result.RiskLevel = RiskLevel(level)
		records = append(records, rec)
	}
	return records, rows.Err()
}
