package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cedadev/esacci-esgf/internal/mapfile"
)

func TestURLs(t *testing.T) {
	m := mapfile.Map{
		"esacci.A.v1": {GenerateAggregation: true, IncludeInWMS: true},
		"esacci.B.v1": {GenerateAggregation: true, IncludeInWMS: false},
		"esacci.C.v1": {GenerateAggregation: false, IncludeInWMS: true},
	}
	c := &Cacher{BaseURL: "http://host/thredds/"}
	got := c.URLs(m)
	want := []string{
		"http://host/thredds/dodsC/esacci.B.v1.dds",
		"http://host/thredds/wms/esacci.A.v1?service=WMS&version=1.3.0&request=GetCapabilities",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("URLs() = %v, want %v", got, want)
	}
}

func TestCacheAll(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
	}))
	defer srv.Close()

	m := mapfile.Map{
		"esacci.A.v1": {GenerateAggregation: true, IncludeInWMS: true},
		"esacci.B.v1": {GenerateAggregation: true},
	}
	var out strings.Builder
	c := &Cacher{BaseURL: srv.URL, Verbose: true, Output: &out}
	if err := c.CacheAll(context.Background(), m); err != nil {
		t.Fatalf("CacheAll() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"/dodsC/esacci.B.v1.dds", "/wms/esacci.A.v1"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("requested paths = %v, want %v", paths, want)
	}
	if got := len(strings.Split(strings.TrimSpace(out.String()), "\n")); got != 2 {
		t.Errorf("verbose output has %d lines, want 2", got)
	}
}

func TestCacheAllIgnoresTimeouts(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	m := mapfile.Map{"esacci.A.v1": {GenerateAggregation: true}}
	c := &Cacher{
		BaseURL:    slow.URL,
		HTTPClient: &http.Client{Timeout: 10 * time.Millisecond},
	}
	if err := c.CacheAll(context.Background(), m); err != nil {
		t.Errorf("CacheAll() error = %v, want timeouts ignored", err)
	}
}
