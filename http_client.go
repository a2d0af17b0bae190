package main

import (
	"net/http"
	"time"
)

// One client for both Zoho surfaces (accounts token grants and Desk API
// pages). The timeout bounds a single request; run-level deadlines come from
// the caller's context.
const zohoHTTPTimeout = 45 * time.Second

var zohoHTTPClient = &http.Client{
	Timeout: zohoHTTPTimeout,
}
