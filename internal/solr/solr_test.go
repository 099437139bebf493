package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestPatchCapabilityURLs(t *testing.T) {
	tests := []struct {
		name    string
		urls    []any
		want    []any
		changed bool
	}{
		{
			name:    "wms without query",
			urls:    []any{"http://host/thredds/wms/ds|image/png|WMS"},
			want:    []any{"http://host/thredds/wms/ds?service=WMS&version=1.3.0&request=GetCapabilities|image/png|WMS"},
			changed: true,
		},
		{
			name:    "wcs pins version 1.0.0",
			urls:    []any{"http://host/thredds/wcs/ds|application/xml|WCS"},
			want:    []any{"http://host/thredds/wcs/ds?service=WCS&version=1.0.0&request=GetCapabilities|application/xml|WCS"},
			changed: true,
		},
		{
			name:    "already has query string",
			urls:    []any{"http://host/wms?x=1|image/png|WMS"},
			want:    []any{"http://host/wms?x=1|image/png|WMS"},
			changed: false,
		},
		{
			name:    "other services untouched",
			urls:    []any{"http://host/file.nc|application/netcdf|HTTPServer"},
			want:    []any{"http://host/file.nc|application/netcdf|HTTPServer"},
			changed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{"id": "x", "url": tt.urls}
			if got := PatchCapabilityURLs(doc); got != tt.changed {
				t.Errorf("PatchCapabilityURLs() = %v, want %v", got, tt.changed)
			}
			urls := doc["url"].([]any)
			for i := range tt.want {
				if urls[i] != tt.want[i] {
					t.Errorf("url[%d] = %v, want %v", i, urls[i], tt.want[i])
				}
			}
		})
	}

	t.Run("missing url field", func(t *testing.T) {
		if PatchCapabilityURLs(Document{"id": "x"}) {
			t.Error("PatchCapabilityURLs() = true for document without urls")
		}
	})
}

func TestPatchAll(t *testing.T) {
	// Two pages of results, one document needing a patch.
	docs := []Document{
		{"id": "ds1", "url": []any{"http://host/thredds/wms/ds1|image/png|WMS"}},
		{"id": "ds2", "url": []any{"http://host/wms?x=1|image/png|WMS"}},
	}
	var updates [][]Document

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/select":
			start, _ := strconv.Atoi(r.URL.Query().Get("start"))
			page := []Document{}
			if start < len(docs) {
				page = docs[start : start+1]
			}
			fmt.Fprintf(w, `{"response":{"docs":%s}}`, mustJSON(t, page))
		case "/update":
			var posted []Document
			if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
				t.Errorf("bad update body: %v", err)
			}
			updates = append(updates, posted)
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Rows: 1}
	updated, err := c.PatchAll(context.Background(), "esacci")
	if err != nil {
		t.Fatalf("PatchAll() error = %v", err)
	}
	if updated != 1 {
		t.Errorf("PatchAll() updated = %d, want 1", updated)
	}
	if len(updates) != 1 || len(updates[0]) != 1 || updates[0][0].ID() != "ds1" {
		t.Errorf("updates = %v, want single post of ds1", updates)
	}
}

func TestQueryAllStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.QueryAll(context.Background(), "esacci")
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("QueryAll() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusBadGateway)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
