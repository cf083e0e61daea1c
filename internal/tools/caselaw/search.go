// Package caselaw implements the grounded web-search backend behind the
// search_case_law and search_precedents_for_charges tools. It adapts the
// teacher's multi-backend web-search client (Brave primary, DuckDuckGo
// Instant Answer fallback), with SSRF host validation and retry added
// around the outbound HTTP call.
package caselaw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/case-nexus/internal/net/ssrf"
	"github.com/haasonsaas/case-nexus/internal/retry"
)

// Result is one case-law search hit (spec §4.3 search_case_law output).
type Result struct {
	CaseName string `json:"case_name"`
	Citation string `json:"citation"`
	Court    string `json:"court,omitempty"`
	Date     string `json:"date,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Config holds the grounded search backend's credentials and tuning.
type Config struct {
	BraveAPIKey string
	MaxResults  int
	CacheTTL    time.Duration
}

type cacheEntry struct {
	results   []Result
	expiresAt time.Time
}

// Client searches case law via Brave Search, falling back to DuckDuckGo's
// Instant Answer API when no Brave key is configured or the call fails.
type Client struct {
	cfg        Config
	httpClient *http.Client

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry
}

// New creates a Client with defaults applied.
func New(cfg Config) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 8
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cache:      make(map[string]cacheEntry),
	}
}

// Search runs a case-law query, optionally narrowed to a court.
func (c *Client) Search(ctx context.Context, query, court string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	fullQuery := query
	if court != "" {
		fullQuery = fmt.Sprintf("%s court:%s", query, court)
	}

	key := strings.ToLower(fullQuery)
	if cached, ok := c.fromCache(key); ok {
		return cached, nil
	}

	var results []Result
	var err error
	if c.cfg.BraveAPIKey != "" {
		results, err = c.searchBrave(ctx, fullQuery)
	}
	if c.cfg.BraveAPIKey == "" || err != nil {
		results, err = c.searchDuckDuckGo(ctx, fullQuery)
	}
	if err != nil {
		return nil, err
	}

	results = filterUnsafeURLs(results)
	c.toCache(key, results)
	return results, nil
}

func (c *Client) fromCache(key string) ([]Result, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.results, true
}

func (c *Client) toCache(key string, results []Result) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{results: results, expiresAt: time.Now().Add(c.cfg.CacheTTL)}
}

// filterUnsafeURLs drops results whose URL resolves to a private or
// blocked host, so a poisoned search result can't be used to pivot an
// internal fetch.
func filterUnsafeURLs(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			out = append(out, r)
			continue
		}
		u, err := url.Parse(r.URL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		if err := ssrf.ValidatePublicHostname(u.Hostname()); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *Client) searchBrave(ctx context.Context, query string) ([]Result, error) {
	searchURL, err := url.Parse("https://api.search.brave.com/res/v1/web/search")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", c.cfg.MaxResults))
	searchURL.RawQuery = q.Encode()

	var body []byte
	result := retry.Do(ctx, retry.Exponential(3, 200*time.Millisecond, 2*time.Second), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", c.cfg.BraveAPIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("brave search returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return retry.Permanent(fmt.Errorf("brave search returned status %d", resp.StatusCode))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if result.Err != nil {
		return nil, fmt.Errorf("brave search: %w", result.Err)
	}

	var braveResp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
				Age         string `json:"age"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &braveResp); err != nil {
		return nil, fmt.Errorf("parse brave response: %w", err)
	}

	out := make([]Result, 0, len(braveResp.Web.Results))
	for _, r := range braveResp.Web.Results {
		out = append(out, Result{
			CaseName: r.Title,
			Citation: extractCitation(r.Description),
			Snippet:  r.Description,
			Date:     r.Age,
			URL:      r.URL,
		})
	}
	return out, nil
}

func (c *Client) searchDuckDuckGo(ctx context.Context, query string) ([]Result, error) {
	instantURL := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1", url.QueryEscape(query))

	var body []byte
	result := retry.Do(ctx, retry.Exponential(3, 200*time.Millisecond, 2*time.Second), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, instantURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; CaseNexusBot/1.0)")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if result.Err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", result.Err)
	}

	var ddgResp struct {
		AbstractText   string `json:"AbstractText"`
		AbstractSource string `json:"AbstractSource"`
		AbstractURL    string `json:"AbstractURL"`
		Heading        string `json:"Heading"`
		RelatedTopics  []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &ddgResp); err != nil {
		return nil, fmt.Errorf("parse duckduckgo response: %w", err)
	}

	var out []Result
	if ddgResp.AbstractText != "" && ddgResp.AbstractURL != "" {
		out = append(out, Result{
			CaseName: ddgResp.Heading,
			Citation: extractCitation(ddgResp.AbstractText),
			Snippet:  ddgResp.AbstractText,
			URL:      ddgResp.AbstractURL,
		})
	}
	for i := 0; i < len(ddgResp.RelatedTopics) && len(out) < c.cfg.MaxResults; i++ {
		t := ddgResp.RelatedTopics[i]
		if t.FirstURL == "" || t.Text == "" {
			continue
		}
		out = append(out, Result{
			CaseName: truncate(t.Text, 100),
			Citation: extractCitation(t.Text),
			Snippet:  t.Text,
			URL:      t.FirstURL,
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
