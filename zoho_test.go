package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestDeskClient(serverURL string, pageSize int) *DeskClient {
	tokens := &TokenManager{
		accountsURL:  serverURL,
		clientID:     "client-id",
		clientSecret: "client-secret",
		refreshToken: "refresh-token",
		httpClient:   http.DefaultClient,
		token:        "tok-valid",
		expiresAt:    time.Now().Add(time.Hour),
	}
	return &DeskClient{
		deskURL:    serverURL,
		orgID:      "org-1",
		tokens:     tokens,
		httpClient: http.DefaultClient,
		policy: RetryPolicy{
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
			MaxAttempts: 3,
		},
		pageSize: pageSize,
	}
}

func threadPage(count int, start int, direction string) deskThreadListResponse {
	var page deskThreadListResponse
	for i := 0; i < count; i++ {
		page.Data = append(page.Data, deskThreadItem{
			ID:          fmt.Sprintf("thr-%d", start+i),
			Direction:   direction,
			Content:     fmt.Sprintf("message %d", start+i),
			CreatedTime: "2026-02-10T08:00:00.000Z",
		})
	}
	return page
}

func TestFetchThreadsPaginationComplete(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tickets/tkt-1/threads" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Zoho-oauthtoken tok-valid" {
			t.Fatalf("Authorization = %q", got)
		}
		if got := r.Header.Get("orgId"); got != "org-1" {
			t.Fatalf("orgId = %q", got)
		}
		requests++
		from, _ := strconv.Atoi(r.URL.Query().Get("from"))
		switch from {
		case 0:
			_ = json.NewEncoder(w).Encode(threadPage(2, 0, "in"))
		case 2:
			_ = json.NewEncoder(w).Encode(threadPage(2, 2, "out"))
		case 4:
			_ = json.NewEncoder(w).Encode(threadPage(1, 4, "in"))
		default:
			t.Fatalf("unexpected page offset %d", from)
		}
	}))
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	msgs, err := client.FetchThreads(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("FetchThreads failed: %v", err)
	}

	if requests != 3 {
		t.Fatalf("underlying requests = %d, want exactly 3", requests)
	}
	if len(msgs) != 5 {
		t.Fatalf("messages = %d, want 5", len(msgs))
	}
	for i, m := range msgs {
		want := fmt.Sprintf("message %d", i)
		if m.Body != want {
			t.Fatalf("message %d out of order: body %q, want %q", i, m.Body, want)
		}
	}
	if msgs[0].Direction != DirectionInbound || msgs[2].Direction != DirectionOutbound {
		t.Fatalf("directions not mapped: %v %v", msgs[0].Direction, msgs[2].Direction)
	}
}

func TestFetchThreadsRateLimitThenSuccess(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(threadPage(1, 0, "in"))
	}))
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	// Keep the honored Retry-After hint from slowing the test down.
	client.policy.MaxDelay = 2 * time.Millisecond

	msgs, err := client.FetchThreads(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("FetchThreads failed: %v", err)
	}
	if requests != 3 {
		t.Fatalf("requests = %d, want exactly 3 (429, 429, 200)", requests)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
}

func TestFetchThreadsRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	_, err := client.FetchThreads(context.Background(), "tkt-9")

	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rlErr.TicketID != "tkt-9" {
		t.Fatalf("ticket id = %q, want tkt-9", rlErr.TicketID)
	}
	if rlErr.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", rlErr.Attempts)
	}
}

func TestFetchThreadsExpiredTokenRetriedOnce(t *testing.T) {
	var grantCalls, threadCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		grantCalls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-fresh",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/api/v1/tickets/tkt-1/threads", func(w http.ResponseWriter, r *http.Request) {
		threadCalls++
		if r.Header.Get("Authorization") == "Zoho-oauthtoken tok-valid" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Zoho-oauthtoken tok-fresh" {
			t.Errorf("retry Authorization = %q, want fresh token", got)
		}
		_ = json.NewEncoder(w).Encode(threadPage(1, 0, "in"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	msgs, err := client.FetchThreads(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("FetchThreads failed: %v", err)
	}
	if grantCalls != 1 {
		t.Fatalf("grant calls = %d, want 1", grantCalls)
	}
	if threadCalls != 2 {
		t.Fatalf("thread calls = %d, want 2 (401 then retry)", threadCalls)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
}

func TestFetchThreadsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from the first attempt

	client := newTestDeskClient(server.URL, 2)
	client.tokens.accountsURL = "http://127.0.0.1:0" // token already cached, never used

	_, err := client.FetchThreads(context.Background(), "tkt-7")
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
	if ingErr.TicketID != "tkt-7" {
		t.Fatalf("ticket id = %q, want tkt-7", ingErr.TicketID)
	}
}

func TestFetchThreadsEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	msgs, err := client.FetchThreads(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("FetchThreads failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("messages = %d, want 0", len(msgs))
	}
}

func TestFetchThreadsFetchesMissingContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tickets/tkt-1/threads", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(deskThreadListResponse{
			Data: []deskThreadItem{{ID: "thr-9", Direction: "in", Summary: "short", CreatedTime: "2026-02-10T08:00:00.000Z"}},
		})
	})
	mux.HandleFunc("/api/v1/tickets/tkt-1/threads/thr-9", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"content": "full thread body"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	msgs, err := client.FetchThreads(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("FetchThreads failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "full thread body" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestLookupTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tickets/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ticketNumber"); got != "1042" {
			t.Fatalf("ticketNumber = %q", got)
		}
		_ = json.NewEncoder(w).Encode(deskSearchResponse{Data: []deskTicketItem{{
			ID:           "9000001",
			TicketNumber: "1042",
			Channel:      "Email",
			CreatedTime:  "2026-02-01T09:30:00.000Z",
		}}})
	}))
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	ticket, err := client.LookupTicket(context.Background(), "1042")
	if err != nil {
		t.Fatalf("LookupTicket failed: %v", err)
	}
	if ticket.ID != "9000001" || ticket.Number != "1042" || ticket.Channel != "Email" {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}
}

func TestLookupTicketNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(deskSearchResponse{})
	}))
	defer server.Close()

	client := newTestDeskClient(server.URL, 2)
	_, err := client.LookupTicket(context.Background(), "9999")
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
}
