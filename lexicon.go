package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon is the rule engine's entire tuning surface: weighted cue phrases and
// fixed thresholds, kept as data so business tuning never touches scoring
// code. A YAML file in the same shape can replace the built-in tables.
type Lexicon struct {
	Version string `yaml:"version"`

	Positive []WeightedCue `yaml:"positive"`
	Negative []WeightedCue `yaml:"negative"`

	// Negation cues flip the sign of a sentiment cue appearing within
	// NegationWindow tokens after them ("not happy" scores as negative).
	Negations      []string `yaml:"negations"`
	NegationWindow int      `yaml:"negation_window"`

	// Emotion rules in tie-break priority order: when two emotions
	// accumulate equal weight, the earlier entry wins.
	Emotions []EmotionRule `yaml:"emotions"`

	Risk []WeightedCue `yaml:"risk"`

	// Category rules in tie-break priority order (supplemental output axis).
	Categories []CategoryRule `yaml:"categories"`

	// SentimentCap saturates the raw sentiment sum before clamping to [-1, 1].
	SentimentCap      float64 `yaml:"sentiment_cap"`
	PositiveThreshold float64 `yaml:"positive_threshold"`
	NegativeThreshold float64 `yaml:"negative_threshold"`
	RiskMedium        float64 `yaml:"risk_medium"`
	RiskHigh          float64 `yaml:"risk_high"`
}

type WeightedCue struct {
	Phrase string  `yaml:"phrase"`
	Weight float64 `yaml:"weight"`
}

type EmotionRule struct {
	Emotion string        `yaml:"emotion"`
	Cues    []WeightedCue `yaml:"cues"`
}

type CategoryRule struct {
	Category string        `yaml:"category"`
	Cues     []WeightedCue `yaml:"cues"`
}

const (
	EmotionNone     = "None"
	CategoryDefault = "General Query"
)

// LoadLexicon reads a YAML rule file and validates it. An empty path returns
// the built-in tables.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon yaml: %w", err)
	}
	lex.applyDefaults()
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return &lex, nil
}

func (l *Lexicon) applyDefaults() {
	if l.NegationWindow == 0 {
		l.NegationWindow = defaultNegationWindow
	}
	if l.SentimentCap == 0 {
		l.SentimentCap = defaultSentimentCap
	}
	if l.PositiveThreshold == 0 {
		l.PositiveThreshold = defaultPositiveThreshold
	}
	if l.NegativeThreshold == 0 {
		l.NegativeThreshold = defaultNegativeThreshold
	}
	if l.RiskMedium == 0 {
		l.RiskMedium = defaultRiskMedium
	}
	if l.RiskHigh == 0 {
		l.RiskHigh = defaultRiskHigh
	}
}

func (l *Lexicon) Validate() error {
	for _, set := range [][]WeightedCue{l.Positive, l.Negative} {
		for _, c := range set {
			if c.Phrase == "" {
				return fmt.Errorf("sentiment cue with empty phrase")
			}
			if c.Weight <= 0 {
				return fmt.Errorf("sentiment cue %q: weight must be > 0 (polarity comes from the list, not the sign)", c.Phrase)
			}
		}
	}
	seen := map[string]bool{}
	for _, c := range l.Positive {
		seen[c.Phrase] = true
	}
	for _, c := range l.Negative {
		if seen[c.Phrase] {
			return fmt.Errorf("cue %q appears in both positive and negative lexicons", c.Phrase)
		}
	}
	for _, e := range l.Emotions {
		if e.Emotion == "" || e.Emotion == EmotionNone {
			return fmt.Errorf("invalid emotion name %q", e.Emotion)
		}
		for _, c := range e.Cues {
			if c.Phrase == "" || c.Weight <= 0 {
				return fmt.Errorf("emotion %s: invalid cue %q", e.Emotion, c.Phrase)
			}
		}
	}
	for _, c := range l.Risk {
		if c.Phrase == "" {
			return fmt.Errorf("risk cue with empty phrase")
		}
		if c.Weight < 0 {
			return fmt.Errorf("risk cue %q: negative weight", c.Phrase)
		}
	}
	if l.SentimentCap <= 0 {
		return fmt.Errorf("sentiment_cap must be > 0")
	}
	if l.PositiveThreshold <= 0 || l.NegativeThreshold >= 0 {
		return fmt.Errorf("sentiment thresholds must straddle zero")
	}
	if l.RiskHigh <= l.RiskMedium || l.RiskMedium <= 0 {
		return fmt.Errorf("risk thresholds must satisfy 0 < medium < high")
	}
	if l.NegationWindow < 1 {
		return fmt.Errorf("negation_window must be >= 1")
	}
	return nil
}

const (
	defaultNegationWindow    = 3
	defaultSentimentCap      = 4.0
	defaultPositiveThreshold = 0.15
	defaultNegativeThreshold = -0.15
	defaultRiskMedium        = 2.0
	defaultRiskHigh          = 4.0
)

// DefaultLexicon returns the built-in rule tables, re-derived from the support
// team's historical keyword rules into weighted form.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Version:        "2026.1",
		NegationWindow: defaultNegationWindow,

		SentimentCap:      defaultSentimentCap,
		PositiveThreshold: defaultPositiveThreshold,
		NegativeThreshold: defaultNegativeThreshold,
		RiskMedium:        defaultRiskMedium,
		RiskHigh:          defaultRiskHigh,

		Positive: []WeightedCue{
			{"made our day", 4},
			{"thank you so much", 3},
			{"really appreciate", 3},
			{"great service", 3},
			{"very happy", 3},
			{"excellent", 3},
			{"thanks a lot", 2.5},
			{"amazing", 2.5},
			{"wonderful", 2.5},
			{"issue resolved", 2},
			{"problem resolved", 2},
			{"satisfied", 2},
			{"love", 2},
			{"got it now", 1.5},
			{"received it now", 1.5},
			{"thank you", 1.5},
			{"appreciate", 1.5},
			{"helpful", 1.5},
			{"happy", 1.5},
			{"great", 1.5},
			{"thanks", 1},
			{"good", 1},
		},
		Negative: []WeightedCue{
			{"cheating", 4},
			{"fraud", 4},
			{"scam", 4},
			{"cheater", 4},
			{"waste of money", 3.5},
			{"terrible", 3},
			{"horrible", 3},
			{"worst", 3},
			{"pathetic", 3},
			{"unacceptable", 3},
			{"fake", 3},
			{"refund", 2.5},
			{"money back", 2.5},
			{"cancel my order", 2.5},
			{"bad service", 2.5},
			{"useless", 2.5},
			{"disappointed", 2.5},
			{"frustrated", 2.5},
			{"angry", 2.5},
			{"not received", 2},
			{"didn't receive", 2},
			{"didnt receive", 2},
			{"still waiting", 2},
			{"not delivered", 2},
			{"no report", 2},
			{"wrong", 1.5},
			{"incorrect", 1.5},
			{"mistake", 1.5},
			{"missing", 1.5},
			{"delayed", 1.5},
			{"cancel", 1.5},
			{"complaint", 1.5},
			{"poor", 1.5},
			{"bad", 1.5},
			{"delay", 1},
		},
		Negations: []string{
			"not", "never", "no", "don't", "dont", "didn't", "didnt",
			"can't", "cant", "won't", "wont", "isn't", "isnt",
			"wasn't", "wasnt", "hardly",
		},

		// Priority order: escalation-relevant emotions win ties.
		Emotions: []EmotionRule{
			{Emotion: "Angry", Cues: []WeightedCue{
				{"cheating", 3}, {"fraud", 3}, {"scam", 3}, {"cheater", 3},
				{"angry", 3}, {"furious", 3},
				{"someone else", 2}, {"this is not mine", 2}, {"different person", 2},
				{"unacceptable", 2}, {"pathetic", 2},
			}},
			{Emotion: "Frustrated", Cues: []WeightedCue{
				{"frustrated", 3}, {"fed up", 3},
				{"still waiting", 2}, {"not received", 2}, {"didn't receive", 2},
				{"didnt receive", 2}, {"no report", 2}, {"not delivered", 2},
				{"again and again", 2}, {"how many times", 2},
			}},
			{Emotion: "Disappointed", Cues: []WeightedCue{
				{"disappointed", 3},
				{"refund", 2}, {"money back", 2}, {"waste of money", 2},
				{"bad service", 2}, {"let down", 2},
			}},
			{Emotion: "Concerned", Cues: []WeightedCue{
				{"worried", 2}, {"please correct", 2}, {"change my details", 2},
				{"concern", 1.5},
				{"wrong", 1}, {"incorrect", 1}, {"mistake", 1},
			}},
			{Emotion: "Satisfied", Cues: []WeightedCue{
				{"issue resolved", 2}, {"problem resolved", 2}, {"satisfied", 2},
				{"got it now", 1.5}, {"received it now", 1.5},
				{"thank you", 1},
			}},
			{Emotion: "Joy", Cues: []WeightedCue{
				{"made our day", 3},
				{"amazing", 2}, {"excellent", 2}, {"very happy", 2},
				{"great service", 2}, {"love", 2}, {"wow", 2},
			}},
		},

		Risk: []WeightedCue{
			{"consumer court", 4},
			{"chargeback", 3},
			{"legal", 3},
			{"lawyer", 3},
			{"cheating", 3},
			{"fraud", 3},
			{"scam", 3},
			{"never order again", 3},
			{"escalate", 2.5},
			{"escalation", 2.5},
			{"social media", 2.5},
			{"still not resolved", 2.5},
			{"refund", 2},
			{"money back", 2},
			{"complaint", 2},
			{"not resolved", 2},
			{"how many times", 2},
			{"again and again", 2},
			{"multiple times", 2},
			{"waste of money", 2},
			{"cancel", 1.5},
			{"reopen", 1.5},
			{"urgent", 1.5},
			{"immediately", 1.5},
			{"asap", 1.5},
			{"last time", 1.5},
			{"worst", 1.5},
		},

		Categories: []CategoryRule{
			{Category: "Fraud Accusation", Cues: []WeightedCue{
				{"cheating", 3}, {"fraud", 3}, {"scam", 3}, {"cheater", 3},
			}},
			{Category: "Wrong Report", Cues: []WeightedCue{
				{"someone else", 2}, {"belongs to someone", 2},
				{"different person", 2}, {"this is not mine", 2}, {"wrong report", 2},
			}},
			{Category: "Refund / Cancellation", Cues: []WeightedCue{
				{"refund", 2}, {"money back", 2}, {"cancel", 1.5}, {"waste of money", 2},
			}},
			{Category: "Unresolved Issue", Cues: []WeightedCue{
				{"not resolved", 2}, {"still not resolved", 2},
				{"not solved", 2}, {"reopen", 1.5},
			}},
			{Category: "Service Delay", Cues: []WeightedCue{
				{"not received", 2}, {"didn't receive", 2}, {"didnt receive", 2},
				{"still waiting", 2}, {"not delivered", 2}, {"no report", 2},
				{"report missing", 2},
			}},
			{Category: "Correction Request", Cues: []WeightedCue{
				{"please correct", 2}, {"change my details", 2}, {"update my", 1.5},
				{"wrong", 1}, {"incorrect", 1}, {"mistake", 1},
			}},
			{Category: "Appreciation", Cues: []WeightedCue{
				{"thank you so much", 2}, {"made our day", 2},
				{"excellent", 1.5}, {"great service", 1.5}, {"amazing", 1.5},
			}},
			{Category: "Resolved", Cues: []WeightedCue{
				{"issue resolved", 2}, {"problem resolved", 2}, {"got it now", 1.5},
			}},
		},
	}
}
