// Package solr patches the WMS and WCS access URLs indexed for published
// datasets so that viewers get working GetCapabilities links.
package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultRows is the page size used when querying all documents.
const DefaultRows = 1000

// Document is one Solr document. Both dataset and file documents carry
// the url field patched here.
type Document map[string]any

// ID returns the document's id field, if present.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// StatusError reports an unexpected HTTP status from Solr.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("solr status %d from %s", e.StatusCode, e.URL)
}

// Client talks to one Solr core, e.g.
// http://esgf-index1.ceda.ac.uk:8984/solr/datasets.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Rows is the query page size; zero means DefaultRows.
	Rows int
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

type selectResponse struct {
	Response struct {
		Docs []Document `json:"docs"`
	} `json:"response"`
}

// QueryAll pages through the select API and returns every document
// matching query.
func (c *Client) QueryAll(ctx context.Context, query string) ([]Document, error) {
	rows := c.Rows
	if rows <= 0 {
		rows = DefaultRows
	}

	var docs []Document
	for start := 0; ; start += rows {
		logf("querying from %d", start)
		page, err := c.query(ctx, query, start, rows)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			logf("%d results found", len(docs))
			return docs, nil
		}
		docs = append(docs, page...)
	}
}

func (c *Client) query(ctx context.Context, query string, start, rows int) ([]Document, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("wt", "json")
	params.Set("start", fmt.Sprint(start))
	params.Set("rows", fmt.Sprint(rows))
	u := fmt.Sprintf("%s/select?%s", strings.TrimRight(c.BaseURL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	var parsed selectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode select response: %w", err)
	}
	return parsed.Response.Docs, nil
}

// Update posts documents back to the index and commits.
func (c *Client) Update(ctx context.Context, docs []Document) error {
	body, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	u := strings.TrimRight(c.BaseURL, "/") + "/update?commit=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: u}
	}
	return nil
}

// capability query strings per service type. WCS deliberately pins an
// older version than WMS.
var capabilityParams = map[string]string{
	"WMS": "?service=WMS&version=1.3.0&request=GetCapabilities",
	"WCS": "?service=WCS&version=1.0.0&request=GetCapabilities",
}

// PatchCapabilityURLs appends GetCapabilities parameters to the WMS and
// WCS entries of the document's url field when they carry no query
// string yet. Entries have the form "url|mime|SERVICE". Reports whether
// the document changed.
func PatchCapabilityURLs(doc Document) bool {
	urls, ok := doc["url"].([]any)
	if !ok {
		return false
	}
	changed := false
	for i, entry := range urls {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		bits := strings.Split(s, "|")
		if len(bits) < 3 {
			continue
		}
		params, ok := capabilityParams[bits[2]]
		if !ok || strings.Contains(bits[0], "?") {
			continue
		}
		bits[0] += params
		urls[i] = strings.Join(bits, "|")
		changed = true
	}
	return changed
}

// PatchAll patches every document matching query, posting back only the
// ones that changed. Returns the number updated.
func (c *Client) PatchAll(ctx context.Context, query string) (int, error) {
	docs, err := c.QueryAll(ctx, query)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, doc := range docs {
		if !PatchCapabilityURLs(doc) {
			logf("unchanged: %s", doc.ID())
			continue
		}
		logf("updating: %s", doc.ID())
		if err := c.Update(ctx, []Document{doc}); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
