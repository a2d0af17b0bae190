package main

import (
	"strings"
	"testing"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultLexicon())
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	return c
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	text := "I want a refund, this is the worst service and I am still waiting for my report"

	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("run %d differed: got %+v, want %+v", i, got, first)
		}
	}
}

func TestClassifyScoreRanges(t *testing.T) {
	c := newTestClassifier(t)
	texts := []string{
		"",
		"thank you so much, excellent amazing wonderful great service very happy",
		"cheating fraud scam cheater waste of money worst terrible horrible pathetic refund",
		"hello, quick question about my order",
		strings.Repeat("refund money back cancel ", 50),
		strings.Repeat("thank you thanks great good ", 50),
	}
	for _, text := range texts {
		res := c.Classify(text)
		if res.SentimentScore < -1.0 || res.SentimentScore > 1.0 {
			t.Errorf("sentiment score out of range for %.40q: %f", text, res.SentimentScore)
		}
		if res.RiskScore < 0 {
			t.Errorf("negative risk score for %.40q: %f", text, res.RiskScore)
		}
	}
}

func TestClassifyLabelConsistency(t *testing.T) {
	c := newTestClassifier(t)
	texts := []string{
		"",
		"thank you so much for the quick resolution",
		"i want a refund immediately, this is fraud",
		"please correct my details",
		"not happy with the delay, still waiting",
	}
	for _, text := range texts {
		res := c.Classify(text)
		if want := c.sentimentLabel(res.SentimentScore); res.SentimentLabel != want {
			t.Errorf("%.40q: label %s does not match score %f (want %s)", text, res.SentimentLabel, res.SentimentScore, want)
		}
		if want := c.riskLevel(res.RiskScore); res.RiskLevel != want {
			t.Errorf("%.40q: risk level %s does not match score %f (want %s)", text, res.RiskLevel, res.RiskScore, want)
		}
	}
}

func TestClassifyNegationFlipsPolarity(t *testing.T) {
	c := newTestClassifier(t)

	plain := c.Classify("I am happy with the service")
	negated := c.Classify("I am not happy with the service")

	if plain.SentimentScore <= 0 {
		t.Fatalf("expected positive score for 'happy', got %f", plain.SentimentScore)
	}
	if negated.SentimentScore >= 0 {
		t.Fatalf("expected negative score for 'not happy', got %f", negated.SentimentScore)
	}
}

func TestClassifyNegationWindow(t *testing.T) {
	c := newTestClassifier(t)

	// Negation 3 tokens before the cue still flips it.
	inWindow := c.Classify("not at all happy")
	if inWindow.SentimentScore >= 0 {
		t.Errorf("expected flip within window, got %f", inWindow.SentimentScore)
	}

	// Negation far before the cue does not.
	outOfWindow := c.Classify("no idea why everyone keeps saying the support here is happy")
	if outOfWindow.SentimentScore <= 0 {
		t.Errorf("expected no flip outside window, got %f", outOfWindow.SentimentScore)
	}
}

func TestClassifyNegationInsideCueStaysConsumed(t *testing.T) {
	c := newTestClassifier(t)

	// The "not" belongs to the "not received" cue; it must not also flip
	// the trailing "still waiting" back to positive.
	res := c.Classify("report not received, still waiting")
	if res.SentimentScore >= 0 {
		t.Fatalf("expected negative score for a delay complaint, got %f", res.SentimentScore)
	}
	if res.SentimentLabel != SentimentNegative {
		t.Fatalf("label = %s, want %s", res.SentimentLabel, SentimentNegative)
	}

	// Same for "no" inside "no report".
	if got := c.Classify("no report yet, still waiting").SentimentScore; got >= 0 {
		t.Fatalf("expected negative score, got %f", got)
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		text      string
		wantLabel SentimentLabel
	}{
		// "happy" must not match inside "unhappy" or "happygolucky".
		{"the unhappy path", SentimentNeutral},
		{"user happygolucky logged in", SentimentNeutral},
		// "bad" must not match inside "badge".
		{"your badge request", SentimentNeutral},
	}
	for _, tt := range tests {
		res := c.Classify(tt.text)
		if res.SentimentLabel != tt.wantLabel {
			t.Errorf("Classify(%q) label = %s (score %f), want %s", tt.text, res.SentimentLabel, res.SentimentScore, tt.wantLabel)
		}
	}
}

func TestClassifyEmptyText(t *testing.T) {
	c := newTestClassifier(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		res := c.Classify(text)
		if res.SentimentScore != 0 || res.SentimentLabel != SentimentNeutral {
			t.Errorf("Classify(%q) sentiment = %f/%s, want 0/Neutral", text, res.SentimentScore, res.SentimentLabel)
		}
		if res.Emotion != EmotionNone {
			t.Errorf("Classify(%q) emotion = %s, want None", text, res.Emotion)
		}
		if res.RiskScore != 0 || res.RiskLevel != RiskLow {
			t.Errorf("Classify(%q) risk = %f/%s, want 0/Low", text, res.RiskScore, res.RiskLevel)
		}
	}
}

func TestClassifyEmotions(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		text string
		want string
	}{
		{"this is fraud, you are cheating me", "Angry"},
		{"i am still waiting, report not received even now", "Frustrated"},
		{"very disappointed, i want my money back", "Disappointed"},
		{"please correct my details, the date is wrong", "Concerned"},
		{"issue resolved, i am satisfied now", "Satisfied"},
		{"wow, amazing work, you made our day", "Joy"},
		{"just checking the status", "None"},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.text).Emotion; got != tt.want {
			t.Errorf("Classify(%q) emotion = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassifyEmotionTieBreakPriority(t *testing.T) {
	// A lexicon where two emotions accumulate identical weight for the same
	// text: the earlier (higher-priority) rule must win.
	lex := DefaultLexicon()
	lex.Emotions = []EmotionRule{
		{Emotion: "Angry", Cues: []WeightedCue{{"deadlock", 2}}},
		{Emotion: "Joy", Cues: []WeightedCue{{"deadlock", 2}}},
	}
	c, err := NewClassifier(lex)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if got := c.Classify("total deadlock here").Emotion; got != "Angry" {
		t.Fatalf("tie broke to %s, want Angry", got)
	}
}

func TestClassifyRiskLevels(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		text string
		want RiskLevel
	}{
		{"everything is fine, thanks", RiskLow},
		// "refund" carries weight 2, exactly the medium threshold.
		{"i want a refund", RiskMedium},
		{"refund immediately or i go to consumer court", RiskHigh},
		// "urgent" alone (1.5) stays below medium.
		{"this is urgent", RiskLow},
	}
	for _, tt := range tests {
		res := c.Classify(tt.text)
		if res.RiskLevel != tt.want {
			t.Errorf("Classify(%q) risk = %s (score %f), want %s", tt.text, res.RiskLevel, res.RiskScore, tt.want)
		}
	}
}

func TestClassifyCategories(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		text string
		want string
	}{
		{"are you guys cheating, this is a scam", "Fraud Accusation"},
		{"i want a refund and my money back", "Refund / Cancellation"},
		{"report not received, still waiting", "Service Delay"},
		{"thank you so much, excellent support", "Appreciation"},
		{"hello, a quick question", CategoryDefault},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.text).Category; got != tt.want {
			t.Errorf("Classify(%q) category = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassifyAxesIndependent(t *testing.T) {
	c := newTestClassifier(t)
	// Appreciation text with an embedded risk cue: positive sentiment must not
	// suppress the risk score and vice versa.
	res := c.Classify("thank you so much, but please process the refund")
	if res.SentimentLabel != SentimentPositive {
		t.Errorf("sentiment = %s (%f), want Positive", res.SentimentLabel, res.SentimentScore)
	}
	if res.RiskScore <= 0 {
		t.Errorf("risk score = %f, want > 0", res.RiskScore)
	}
}
