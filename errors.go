package main

import "fmt"

// AuthError means the refresh credential itself was rejected. Nothing in the
// batch can make progress after one of these, so the run aborts.
type AuthError struct {
	StatusCode int
	Detail     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth: token refresh rejected (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("auth: %s", e.Detail)
}

// RateLimitError means a page fetch exhausted its retry budget against 429
// responses. Scoped to one ticket; the batch continues.
type RateLimitError struct {
	TicketID string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited fetching ticket %s: gave up after %d attempts", e.TicketID, e.Attempts)
}

// IngestionError means transport or API failures exhausted the retry budget
// for one ticket. Scoped to one ticket; the batch continues.
type IngestionError struct {
	TicketID string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingesting ticket %s: %v", e.TicketID, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
