package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Classifier scores cleaned text on three independent axes (sentiment,
// emotion, complaint risk) plus a supplemental category, using the lexicon's
// rule tables. Pure and deterministic: the same text always produces the same
// result, and labels/levels are always the threshold function of their score.
type Classifier struct {
	lex        *Lexicon
	positive   []compiledCue
	negative   []compiledCue
	risk       []compiledCue
	emotions   []compiledGroup
	categories []compiledGroup
	negations  map[string]struct{}
}

type compiledCue struct {
	weight float64
	re     *regexp.Regexp
}

type compiledGroup struct {
	name string
	cues []compiledCue
}

func NewClassifier(lex *Lexicon) (*Classifier, error) {
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{lex: lex, negations: make(map[string]struct{})}

	var err error
	if c.positive, err = compileCues(lex.Positive); err != nil {
		return nil, err
	}
	if c.negative, err = compileCues(lex.Negative); err != nil {
		return nil, err
	}
	if c.risk, err = compileCues(lex.Risk); err != nil {
		return nil, err
	}
	for _, e := range lex.Emotions {
		cues, err := compileCues(e.Cues)
		if err != nil {
			return nil, err
		}
		c.emotions = append(c.emotions, compiledGroup{name: e.Emotion, cues: cues})
	}
	for _, cat := range lex.Categories {
		cues, err := compileCues(cat.Cues)
		if err != nil {
			return nil, err
		}
		c.categories = append(c.categories, compiledGroup{name: cat.Category, cues: cues})
	}
	for _, n := range lex.Negations {
		c.negations[strings.ToLower(n)] = struct{}{}
	}
	return c, nil
}

// compileCues builds word-boundary-aware matchers so cue "happy" never fires
// inside "unhappy" or "happycustomer".
func compileCues(cues []WeightedCue) ([]compiledCue, error) {
	out := make([]compiledCue, 0, len(cues))
	for _, cue := range cues {
		words := strings.Fields(strings.ToLower(cue.Phrase))
		if len(words) == 0 {
			return nil, fmt.Errorf("cue %q has no words", cue.Phrase)
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		re, err := regexp.Compile(`\b` + strings.Join(words, `\s+`) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("cue %q: %w", cue.Phrase, err)
		}
		out = append(out, compiledCue{weight: cue.Weight, re: re})
	}
	return out, nil
}

func (c *Classifier) Classify(text string) ClassificationResult {
	res := ClassificationResult{
		SentimentLabel: SentimentNeutral,
		Emotion:        EmotionNone,
		RiskLevel:      RiskLow,
		Category:       CategoryDefault,
	}

	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return res
	}
	toks := tokenize(t)

	// Sentiment: weighted sum with negation flips, saturated into [-1, 1].
	matches := sentimentMatches(c.positive, c.negative, t)
	free := c.freeNegations(toks, matches)
	var raw float64
	for _, m := range matches {
		if negatedBefore(toks, free, c.lex.NegationWindow, m.start) {
			raw -= m.weight
		} else {
			raw += m.weight
		}
	}
	score := raw / c.lex.SentimentCap
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	res.SentimentScore = score
	res.SentimentLabel = c.sentimentLabel(score)

	// Emotion: highest accumulated weight wins; ties go to the earlier
	// (higher-priority) rule, hence the strict comparison.
	if name, w := bestGroup(c.emotions, t); w > 0 {
		res.Emotion = name
	}

	// Complaint risk: plain additive, never normalized.
	var riskScore float64
	for _, cc := range c.risk {
		riskScore += cc.weight * float64(len(cc.re.FindAllStringIndex(t, -1)))
	}
	res.RiskScore = riskScore
	res.RiskLevel = c.riskLevel(riskScore)

	if name, w := bestGroup(c.categories, t); w > 0 {
		res.Category = name
	}

	return res
}

func (c *Classifier) sentimentLabel(score float64) SentimentLabel {
	switch {
	case score >= c.lex.PositiveThreshold:
		return SentimentPositive
	case score <= c.lex.NegativeThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func (c *Classifier) riskLevel(score float64) RiskLevel {
	switch {
	case score >= c.lex.RiskHigh:
		return RiskHigh
	case score >= c.lex.RiskMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

func bestGroup(groups []compiledGroup, t string) (string, float64) {
	var bestName string
	var bestWeight float64
	for _, g := range groups {
		var w float64
		for _, cc := range g.cues {
			w += cc.weight * float64(len(cc.re.FindAllStringIndex(t, -1)))
		}
		if w > bestWeight {
			bestName, bestWeight = g.name, w
		}
	}
	return bestName, bestWeight
}

type token struct {
	text  string
	start int
	end   int
}

var wordPattern = regexp.MustCompile(`[a-z0-9']+`)

func tokenize(t string) []token {
	locs := wordPattern.FindAllStringIndex(t, -1)
	toks := make([]token, 0, len(locs))
	for _, loc := range locs {
		toks = append(toks, token{text: t[loc[0]:loc[1]], start: loc[0], end: loc[1]})
	}
	return toks
}

// cueMatch is one sentiment cue occurrence; weight already carries its sign.
type cueMatch struct {
	weight     float64
	start, end int
}

func sentimentMatches(positive, negative []compiledCue, t string) []cueMatch {
	var out []cueMatch
	for _, cc := range positive {
		for _, loc := range cc.re.FindAllStringIndex(t, -1) {
			out = append(out, cueMatch{weight: cc.weight, start: loc[0], end: loc[1]})
		}
	}
	for _, cc := range negative {
		for _, loc := range cc.re.FindAllStringIndex(t, -1) {
			out = append(out, cueMatch{weight: -cc.weight, start: loc[0], end: loc[1]})
		}
	}
	return out
}

// freeNegations returns the token indexes of negation words not covered by a
// matched cue phrase. The "not" consumed by "not received" must not also flip
// a later cue in the same sentence.
func (c *Classifier) freeNegations(toks []token, matches []cueMatch) map[int]struct{} {
	free := make(map[int]struct{})
	for i, tok := range toks {
		if _, ok := c.negations[tok.text]; !ok {
			continue
		}
		consumed := false
		for _, m := range matches {
			if tok.start >= m.start && tok.end <= m.end {
				consumed = true
				break
			}
		}
		if !consumed {
			free[i] = struct{}{}
		}
	}
	return free
}

// negatedBefore reports whether a free-standing negation sits within window
// tokens immediately before the match starting at offset.
func negatedBefore(toks []token, free map[int]struct{}, window, offset int) bool {
	// First token ending at or before the match start.
	i := sort.Search(len(toks), func(i int) bool { return toks[i].end > offset }) - 1
	for n := 0; i >= 0 && n < window; i, n = i-1, n+1 {
		if _, ok := free[i]; ok {
			return true
		}
	}
	return false
}
