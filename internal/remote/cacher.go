// Package remote warms the aggregation caches of a remote THREDDS
// server by touching each dataset's OPeNDAP or WMS endpoint.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cedadev/esacci-esgf/internal/mapfile"
)

// ReadTimeout bounds how long each request waits for response data.
// Building an aggregation cache can take minutes, so requests are fired
// and abandoned almost immediately.
const ReadTimeout = time.Second

// Cacher sends cache-priming requests for aggregated datasets.
type Cacher struct {
	// BaseURL is the THREDDS base, e.g. http://host/thredds.
	BaseURL string

	// HTTPClient, when nil, uses a client with ReadTimeout.
	HTTPClient *http.Client

	// Verbose prints each URL before requesting it.
	Verbose bool

	// Output receives verbose URLs; defaults to stdout.
	Output io.Writer
}

// AggregationURL returns the endpoint that triggers caching for one
// dataset: WMS GetCapabilities for datasets shown in the viewer, the
// OPeNDAP DDS otherwise.
func (c *Cacher) AggregationURL(dsID string, wms bool) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if wms {
		return fmt.Sprintf("%s/wms/%s?service=WMS&version=1.3.0&request=GetCapabilities", base, dsID)
	}
	return fmt.Sprintf("%s/dodsC/%s.dds", base, dsID)
}

// URLs returns the cache-priming endpoints for every dataset in the map
// that has an aggregation, in dataset ID order.
func (c *Cacher) URLs(m mapfile.Map) []string {
	var urls []string
	for _, dsID := range m.SortedIDs() {
		info := m[dsID]
		if info.GenerateAggregation {
			urls = append(urls, c.AggregationURL(dsID, info.IncludeInWMS))
		}
	}
	sort.Strings(urls)
	return urls
}

// CacheAll requests every aggregation endpoint, ignoring timeouts: the
// point is to start cache construction, not to observe it finish.
func (c *Cacher) CacheAll(ctx context.Context, m mapfile.Map) error {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: ReadTimeout}
	}
	out := c.Output
	if out == nil {
		out = os.Stdout
	}

	for _, url := range c.URLs(m) {
		if c.Verbose {
			fmt.Fprintln(out, url)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}
		resp.Body.Close()
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
