package main

import (
	"context"
	"log"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	lexicon, err := LoadLexicon(cfg.LexiconPath)
	if err != nil {
		log.Fatalf("Failed to load lexicon: %v", err)
	}
	classifier, err := NewClassifier(lexicon)
	if err != nil {
		log.Fatalf("Failed to build classifier: %v", err)
	}
	log.Printf("Lexicon version %s loaded", lexicon.Version)

	tokens := NewTokenManager(cfg)
	client := NewDeskClient(cfg, tokens)
	pipeline := NewPipeline(client, classifier, cfg)
	source := CSVSource{Path: cfg.InputFile}

	var api *slack.Client
	if cfg.SlackConfigured() {
		api = slack.New(cfg.SlackBotToken)
	}

	log.Println("Starting Ticket Sentiment Bot...")

	if StartRunScheduler(cfg, db, pipeline, source, api) {
		select {} // scheduler owns the process
	}

	summary, records, err := RunBatch(context.Background(), cfg, db, pipeline, source)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	PostRunSummary(api, cfg.SummaryChannelID, summary)
	PostHighRiskAlerts(api, cfg.AlertChannelID, records)
}
