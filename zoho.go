package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const threadPageSize = 50

type deskSearchResponse struct {
	Data []deskTicketItem `json:"data"`
}

type deskTicketItem struct {
	ID             string `json:"id"`
	TicketNumber   string `json:"ticketNumber"`
	Channel        string `json:"channel"`
	Department     string `json:"departmentName"`
	CreatedTime    string `json:"createdTime"`
	ClosedTime     string `json:"closedTime"`
	ContactName    string `json:"contactName"`
	LineOfBusiness string `json:"cf_line_of_business"`
}

type deskThreadListResponse struct {
	Data []deskThreadItem `json:"data"`
}

type deskThreadItem struct {
	ID          string `json:"id"`
	Direction   string `json:"direction"` // "in" or "out"
	Content     string `json:"content"`
	Summary     string `json:"summary"`
	CreatedTime string `json:"createdTime"`
}

// DeskClient talks to the Desk API's ticket and thread endpoints. All requests
// go through doGet, which owns token handling and retry behavior.
type DeskClient struct {
	deskURL    string // e.g. https://desk.zoho.in
	orgID      string
	tokens     *TokenManager
	httpClient *http.Client
	policy     RetryPolicy
	pageSize   int
}

func NewDeskClient(cfg Config, tokens *TokenManager) *DeskClient {
	policy := DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxAttempts = cfg.MaxRetries
	}
	return &DeskClient{
		deskURL:    strings.TrimRight(cfg.ZohoDeskURL, "/"),
		orgID:      cfg.ZohoOrgID,
		tokens:     tokens,
		httpClient: zohoHTTPClient,
		policy:     policy,
		pageSize:   threadPageSize,
	}
}

// LookupTicket resolves a human-facing ticket number to the API ticket id and
// metadata.
func (c *DeskClient) LookupTicket(ctx context.Context, ticketNumber string) (Ticket, error) {
	apiURL := fmt.Sprintf("%s/api/v1/tickets/search?ticketNumber=%s",
		c.deskURL, url.QueryEscape(ticketNumber))

	body, err := c.doGet(ctx, apiURL, ticketNumber)
	if err != nil {
		return Ticket{}, err
	}

	var result deskSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Ticket{}, &IngestionError{TicketID: ticketNumber, Err: fmt.Errorf("parsing search response: %w", err)}
	}
	if len(result.Data) == 0 {
		return Ticket{}, &IngestionError{TicketID: ticketNumber, Err: fmt.Errorf("ticket number %s not found", ticketNumber)}
	}

	item := result.Data[0]
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedTime)
	closedAt, _ := time.Parse(time.RFC3339, item.ClosedTime)
	return Ticket{
		ID:             item.ID,
		Number:         item.TicketNumber,
		ContactName:    item.ContactName,
		Channel:        item.Channel,
		LineOfBusiness: item.LineOfBusiness,
		CreatedAt:      createdAt,
		ClosedAt:       closedAt,
	}, nil
}

// FetchThreads pages through a ticket's conversation threads in service order.
// Pagination stops on a short page or an empty-results response. Messages are
// returned exactly in the order the service paginates them.
func (c *DeskClient) FetchThreads(ctx context.Context, ticketID string) ([]ThreadMessage, error) {
	var all []ThreadMessage
	from := 0

	for {
		apiURL := fmt.Sprintf("%s/api/v1/tickets/%s/threads?from=%d&limit=%d",
			c.deskURL, url.PathEscape(ticketID), from, c.pageSize)

		body, err := c.doGet(ctx, apiURL, ticketID)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			break // 204: no further pages
		}

		var page deskThreadListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &IngestionError{TicketID: ticketID, Err: fmt.Errorf("parsing threads response: %w", err)}
		}

		for _, item := range page.Data {
			content := item.Content
			if content == "" && item.ID != "" {
				// Listing omitted the body; fetch the full thread.
				full, err := c.fetchThreadContent(ctx, ticketID, item.ID)
				if err != nil {
					log.Printf("thread %s/%s content fetch failed: %v", ticketID, item.ID, err)
					content = item.Summary
				} else {
					content = full
				}
			}
			createdAt, _ := time.Parse(time.RFC3339, item.CreatedTime)
			all = append(all, ThreadMessage{
				TicketID:  ticketID,
				Direction: threadDirection(item.Direction),
				Body:      content,
				CreatedAt: createdAt,
			})
		}

		if len(page.Data) < c.pageSize {
			break
		}
		from += c.pageSize
	}

	return all, nil
}

func (c *DeskClient) fetchThreadContent(ctx context.Context, ticketID, threadID string) (string, error) {
	apiURL := fmt.Sprintf("%s/api/v1/tickets/%s/threads/%s",
		c.deskURL, url.PathEscape(ticketID), url.PathEscape(threadID))

	body, err := c.doGet(ctx, apiURL, ticketID)
	if err != nil {
		return "", err
	}
	var full struct {
		Content     string `json:"content"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &full); err != nil {
		return "", fmt.Errorf("parsing thread response: %w", err)
	}
	if full.Content != "" {
		return full.Content, nil
	}
	return full.Description, nil
}

func threadDirection(s string) Direction {
	if strings.EqualFold(s, "out") || strings.EqualFold(s, "outbound") {
		return DirectionOutbound
	}
	return DirectionInbound
}

// doGet performs one authenticated GET with the client's full retry behavior:
// a rejected token is invalidated and the request retried once with a fresh
// one; 429 responses honor Retry-After and back off within the attempt budget;
// transport and 5xx failures back off the same way. A 204 returns a nil body.
func (c *DeskClient) doGet(ctx context.Context, apiURL, ticketID string) ([]byte, error) {
	attempt := 0
	retriedAuth := false

	for {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err // AuthError: fatal for the run
		}

		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, &IngestionError{TicketID: ticketID, Err: fmt.Errorf("creating request: %w", err)}
		}
		req.Header.Set("Authorization", "Zoho-oauthtoken "+tok)
		req.Header.Set("orgId", c.orgID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			attempt++
			delay, ok := c.policy.Delay(attempt, 0)
			if !ok {
				return nil, &IngestionError{TicketID: ticketID, Err: fmt.Errorf("executing request: %w", err)}
			}
			log.Printf("request error for ticket %s (attempt %d): %v, retrying in %s", ticketID, attempt, err, delay)
			if !sleepCtx(ctx, delay) {
				return nil, &IngestionError{TicketID: ticketID, Err: ctx.Err()}
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &IngestionError{TicketID: ticketID, Err: fmt.Errorf("reading response: %w", err)}
		}

		switch {
		case resp.StatusCode == 200:
			return body, nil

		case resp.StatusCode == 204:
			return nil, nil

		case resp.StatusCode == 401 && !retriedAuth:
			c.tokens.Invalidate(tok)
			retriedAuth = true
			continue

		case resp.StatusCode == 429:
			attempt++
			delay, ok := c.policy.Delay(attempt, parseRetryAfter(resp.Header.Get("Retry-After")))
			if !ok {
				return nil, &RateLimitError{TicketID: ticketID, Attempts: attempt}
			}
			log.Printf("rate limited for ticket %s (attempt %d), retrying in %s", ticketID, attempt, delay)
			if !sleepCtx(ctx, delay) {
				return nil, &IngestionError{TicketID: ticketID, Err: ctx.Err()}
			}
			continue

		case resp.StatusCode >= 500:
			attempt++
			delay, ok := c.policy.Delay(attempt, 0)
			if !ok {
				return nil, &IngestionError{TicketID: ticketID, Err: fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))}
			}
			log.Printf("API %d for ticket %s (attempt %d), retrying in %s", resp.StatusCode, ticketID, attempt, delay)
			if !sleepCtx(ctx, delay) {
				return nil, &IngestionError{TicketID: ticketID, Err: ctx.Err()}
			}
			continue

		default:
			return nil, &IngestionError{TicketID: ticketID, Err: fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))}
		}
	}
}

func parseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
