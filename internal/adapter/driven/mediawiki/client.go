// Package mediawiki implements the KnowledgeGraph port against the MaRDI
// portal's MediaWiki search API.
package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// publicationNamespace is the MediaWiki namespace holding Publication pages
// in the MaRDI knowledge graph.
const publicationNamespace = "4206"

// qidPattern extracts the QID marker embedded in Publication page snippets.
var qidPattern = regexp.MustCompile(`QID(Q\d+)`)

// Compile-time interface satisfaction check.
var _ driven.KnowledgeGraph = (*Client)(nil)

// Client implements the driven.KnowledgeGraph port using the MediaWiki
// search API. Requests are GETs so the httpcache transport can serve
// conditional-request cache hits.
type Client struct {
	httpClient    *http.Client
	apiURL        string
	maxAttempts   int
	retryInterval time.Duration
	sanitizer     *bluemonday.Policy
}

// NewClient creates a knowledge-graph client for the given MediaWiki api.php
// URL. maxAttempts bounds the total number of tries per request; failed
// requests are retried with exponential backoff. The transport stack uses an
// in-memory httpcache for ETag-based conditional request caching.
func NewClient(apiURL string, maxAttempts int) *Client {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   30 * time.Second,
	}

	return &Client{
		httpClient:    httpClient,
		apiURL:        apiURL,
		maxAttempts:   maxAttempts,
		retryInterval: 2 * time.Second,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and a
// short retry interval. This constructor is intended for testing, allowing
// injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, apiURL string, maxAttempts int) *Client {
	return &Client{
		httpClient:    httpClient,
		apiURL:        apiURL,
		maxAttempts:   maxAttempts,
		retryInterval: 5 * time.Millisecond,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

// SearchByArxivID queries the knowledge graph for Publication pages matching
// the custom arXiv marker string (e.g. "arXiv2104.06175MaRDI").
func (c *Client) SearchByArxivID(ctx context.Context, arxivID string) ([]model.PublicationMatch, error) {
	matches, err := c.search(ctx, fmt.Sprintf("arXiv%sMaRDI", arxivID))
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].ArxivID = arxivID
	}
	return matches, nil
}

// SearchByDOI queries the knowledge graph for Publication pages containing
// the DOI as an exact-phrase doi.org reference.
func (c *Client) SearchByDOI(ctx context.Context, doi string) ([]model.PublicationMatch, error) {
	matches, err := c.search(ctx, fmt.Sprintf("%q", "doi.org/"+doi))
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].DOI = doi
	}
	return matches, nil
}

// searchResponse is the subset of the MediaWiki query response we consume.
type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

func (c *Client) search(ctx context.Context, srsearch string) ([]model.PublicationMatch, error) {
	params := url.Values{
		"action":      {"query"},
		"list":        {"search"},
		"srsearch":    {srsearch},
		"srnamespace": {publicationNamespace},
		"format":      {"json"},
	}
	requestURL := c.apiURL + "?" + params.Encode()

	var decoded searchResponse

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create search request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("search request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("search request: HTTP %d", resp.StatusCode)
		}

		decoded = searchResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("decode search response: %w", err)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1)), ctx))
	if err != nil {
		// Log a reproduction command so a failing query can be replayed by hand.
		slog.Error("knowledge graph search failed after retries",
			"attempts", c.maxAttempts,
			"curl", curlCommand(requestURL),
			"error", err,
		)
		return nil, fmt.Errorf("knowledge graph search %q: %w", srsearch, err)
	}

	matches := make([]model.PublicationMatch, 0, len(decoded.Query.Search))
	for _, hit := range decoded.Query.Search {
		snippet := c.cleanSnippet(hit.Snippet)

		var qid string
		if m := qidPattern.FindStringSubmatch(snippet); m != nil {
			qid = m[1]
		}

		matches = append(matches, model.PublicationMatch{
			QID:     qid,
			Title:   hit.Title,
			Snippet: snippet,
		})
	}

	return matches, nil
}

// cleanSnippet strips the searchmatch highlighting markup MediaWiki embeds
// in result snippets, returning plain text.
func (c *Client) cleanSnippet(snippet string) string {
	return html.UnescapeString(c.sanitizer.Sanitize(snippet))
}

// curlCommand renders a GET request as a copy-pastable curl invocation.
func curlCommand(requestURL string) string {
	return "curl " + shellQuote(requestURL)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
