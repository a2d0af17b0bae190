package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// minFragmentLen drops stub fragments ("ok", "+1") left after normalization.
const minFragmentLen = 6

// ThreadFetcher is what the pipeline needs from the ticketing API.
type ThreadFetcher interface {
	LookupTicket(ctx context.Context, ticketNumber string) (Ticket, error)
	FetchThreads(ctx context.Context, ticketID string) ([]ThreadMessage, error)
}

// Pipeline drives each input ticket through fetch, normalize, classify. Ticket
// units are independent; only the token manager behind the fetcher is shared.
type Pipeline struct {
	client     ThreadFetcher
	classifier *Classifier
	direction  string // "inbound", "outbound", or "both"
	workers    int
}

func NewPipeline(client ThreadFetcher, classifier *Classifier, cfg Config) *Pipeline {
	return &Pipeline{
		client:     client,
		classifier: classifier,
		direction:  cfg.DirectionFilter,
		workers:    cfg.Workers,
	}
}

// Run processes every input and returns exactly one record per input, in
// input order. Per-ticket failures are recorded on the row and never abort
// the batch; a rejected refresh credential aborts the whole run because no
// further ticket can make progress. Re-running re-fetches everything: no
// cross-run caching.
func (p *Pipeline) Run(ctx context.Context, inputs []InputRecord) ([]TicketRecord, error) {
	results := make([]TicketRecord, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatal error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := p.processTicket(ctx, inputs[i])
				results[i] = rec
				if err != nil {
					mu.Lock()
					if fatal == nil {
						fatal = err
					}
					mu.Unlock()
					cancel() // stop issuing new tickets
				}
			}
		}()
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}

	// Tickets never started (run deadline hit) still get their row.
	for i := range results {
		if results[i].Status == "" {
			results[i] = TicketRecord{
				TicketNumber: inputs[i].TicketNumber,
				Status:       StatusFailed,
				Err:          "run canceled before processing",
				AnalyzedAt:   time.Now(),
			}
		}
	}
	return results, nil
}

// processTicket handles one unit of work. The returned error is non-nil only
// for failures fatal to the whole run; everything else lands on the record.
func (p *Pipeline) processTicket(ctx context.Context, in InputRecord) (TicketRecord, error) {
	rec := TicketRecord{TicketNumber: in.TicketNumber, AnalyzedAt: time.Now()}

	ticket, err := p.client.LookupTicket(ctx, in.TicketNumber)
	if err != nil {
		return p.failRecord(rec, err)
	}
	rec.TicketID = ticket.ID

	msgs, err := p.client.FetchThreads(ctx, ticket.ID)
	if err != nil {
		return p.failRecord(rec, err)
	}

	var inbound, outbound []string
	for _, m := range msgs {
		switch m.Direction {
		case DirectionInbound:
			if text := Normalize(m.Body); len(text) >= minFragmentLen {
				inbound = append(inbound, text)
			}
		case DirectionOutbound:
			if text := CollapseWhitespace(FlattenHTML(m.Body)); len(text) >= minFragmentLen {
				outbound = append(outbound, text)
			}
		}
	}
	rec.InboundText = buildThreadText(inbound)
	rec.OutboundText = buildThreadText(outbound)

	var parts []string
	switch p.direction {
	case "outbound":
		parts = outbound
	case "both":
		parts = append(append(parts, inbound...), outbound...)
	default: // inbound
		parts = inbound
	}
	text := strings.Join(parts, " ")

	rec.Result = p.classifier.Classify(text)
	if text == "" {
		rec.Status = StatusCompletedEmpty
	} else {
		rec.Status = StatusCompleted
	}
	log.Printf("ticket %s classified sentiment=%s emotion=%s risk=%s",
		in.TicketNumber, rec.Result.SentimentLabel, rec.Result.Emotion, rec.Result.RiskLevel)
	return rec, nil
}

func (p *Pipeline) failRecord(rec TicketRecord, err error) (TicketRecord, error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		rec.Status = StatusFailed
		rec.Err = err.Error()
		return rec, err
	}
	log.Printf("ticket %s failed: %v", rec.TicketNumber, err)
	rec.Status = StatusFailed
	rec.Err = err.Error()
	// Failed tickets still get a well-formed neutral result.
	rec.Result = ClassificationResult{
		SentimentLabel: SentimentNeutral,
		Emotion:        EmotionNone,
		RiskLevel:      RiskLow,
		Category:       CategoryDefault,
	}
	return rec, nil
}

// buildThreadText joins cleaned fragments with numbered markers, oldest first,
// matching the reviewed-spreadsheet format downstream reporting expects.
func buildThreadText(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = fmt.Sprintf("Thread%d- %s", i+1, part)
	}
	return strings.Join(out, "\n\n")
}
