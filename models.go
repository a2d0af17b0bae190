package main

import "time"

// Direction says which way a thread message travelled: inbound messages come
// from the customer, outbound messages from a support agent.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentNegative SentimentLabel = "Negative"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type Ticket struct {
	ID             string // Desk API internal id
	Number         string // human-facing ticket number
	ContactName    string
	Channel        string
	LineOfBusiness string
	CreatedAt      time.Time
	ClosedAt       time.Time
}

type ThreadMessage struct {
	TicketID  string
	Direction Direction
	Body      string // raw body, HTML allowed
	CreatedAt time.Time
}

// ClassificationResult is the output of one classifier run. Label and level
// are always derived from their score via the lexicon thresholds; they are
// never set independently.
type ClassificationResult struct {
	SentimentScore float64
	SentimentLabel SentimentLabel
	Emotion        string // one of the lexicon's emotion set, or "None"
	RiskScore      float64
	RiskLevel      RiskLevel
	Category       string
}

// TicketRecord is one output row per input ticket. Failed tickets carry a
// non-empty Err and keep their place in the batch; they are never dropped.
type TicketRecord struct {
	TicketNumber string
	TicketID     string
	InboundText  string
	OutboundText string
	Result       ClassificationResult
	Status       string // "completed", "completed-empty", "failed"
	Err          string
	AnalyzedAt   time.Time
}

const (
	StatusCompleted      = "completed"
	StatusCompletedEmpty = "completed-empty"
	StatusFailed         = "failed"
)
