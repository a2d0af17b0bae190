package main

import (
	"html"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
)

// Quote-reply headers. Everything from the first match onward is prior
// correspondence, not the sender's fresh message. Patterns are unanchored
// because the HTML flattening step collapses line structure.
var replyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\bOn\s+.{0,200}?\bwrote\s*:`),
	regexp.MustCompile(`(?i)\bFrom:\s`),
	regexp.MustCompile(`(?i)\bSent:\s`),
	regexp.MustCompile(`(?i)-----\s*Original Message\s*-----`),
	regexp.MustCompile(`(?i)----+\s*Forwarded message\s*----+`),
	regexp.MustCompile(`(?i)>\s*wrote:`),
}

// Signature separators. Plain "thanks" is deliberately absent: gratitude is a
// sentiment cue, not a signature.
var signaturePattern = regexp.MustCompile(
	`(?i)(warm\s+regards\b|best\s+regards\b|kind\s+regards\b|\bregards\s*,|thanks\s+(and|&)\s+regards\b|\bsent\s+from\s+my\s)`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize turns a raw message body into clean classifier input: HTML
// flattened to text, quoted-reply history and signature blocks stripped,
// whitespace collapsed. Pure and idempotent; empty-after-stripping input
// yields "".
func Normalize(raw string) string {
	text := FlattenHTML(raw)

	for _, p := range replyPatterns {
		if loc := p.FindStringIndex(text); loc != nil {
			text = text[:loc[0]]
		}
	}
	if loc := signaturePattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// FlattenHTML strips markup but keeps the full text, history included. Used
// for outbound agent threads where prior context matters.
func FlattenHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text, err := html2text.FromString(raw, html2text.Options{TextOnly: true})
	if err != nil {
		// Malformed markup: fall back to dropping tags wholesale.
		text = html.UnescapeString(tagPattern.ReplaceAllString(raw, " "))
	}
	return text
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CollapseWhitespace is the final normalization step on its own, for callers
// that keep history but still want single-spaced text.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
