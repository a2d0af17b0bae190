package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// PostRunSummary posts the batch outcome to the summary channel. Posting
// failures are logged, never fatal: the database already has the results.
func PostRunSummary(api *slack.Client, channelID string, s RunSummary) {
	if api == nil || channelID == "" {
		return
	}
	msg := FormatRunSummary(s)
	if _, _, err := api.PostMessage(channelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("Run summary post error: %v", err)
	}
}

func FormatRunSummary(s RunSummary) string {
	msg := fmt.Sprintf("Sentiment run #%d complete: %d tickets (%d classified, %d failed)",
		s.RunID, s.Total, s.Completed, s.Failed)
	if s.HighRisk > 0 {
		msg += fmt.Sprintf("\n:rotating_light: %d high complaint-risk ticket(s)", s.HighRisk)
	}
	return msg
}

// PostHighRiskAlerts sends one message per High-risk ticket to the alert
// channel so the support lead sees escalation candidates without opening the
// dashboard.
func PostHighRiskAlerts(api *slack.Client, channelID string, records []TicketRecord) {
	if api == nil || channelID == "" {
		return
	}
	for _, rec := range records {
		if rec.Result.RiskLevel != RiskHigh {
			continue
		}
		msg := FormatHighRiskAlert(rec)
		if _, _, err := api.PostMessage(channelID, slack.MsgOptionText(msg, false)); err != nil {
			log.Printf("High-risk alert post error for ticket %s: %v", rec.TicketNumber, err)
		}
	}
}

// alertPreviewRunes caps the quoted ticket excerpt in an alert message.
const alertPreviewRunes = 200

func FormatHighRiskAlert(rec TicketRecord) string {
	preview := rec.InboundText
	// Truncate on a rune boundary so non-ASCII ticket text stays valid UTF-8.
	if r := []rune(preview); len(r) > alertPreviewRunes {
		preview = string(r[:alertPreviewRunes]) + "…"
	}
	var b strings.Builder
	fmt.Fprintf(&b, ":warning: High complaint risk on ticket %s (score %.1f)\n", rec.TicketNumber, rec.Result.RiskScore)
	fmt.Fprintf(&b, "Sentiment: %s (%.2f) | Emotion: %s | Category: %s",
		rec.Result.SentimentLabel, rec.Result.SentimentScore, rec.Result.Emotion, rec.Result.Category)
	if preview != "" {
		fmt.Fprintf(&b, "\n> %s", preview)
	}
	return b.String()
}
