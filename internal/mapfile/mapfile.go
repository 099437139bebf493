// Package mapfile writes ESGF publisher mapfiles from the JSON dataset
// map produced by the CCI data preparation workflow.
package mapfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// File describes one data file belonging to a dataset.
type File struct {
	Path   string      `json:"path"`
	SHA256 string      `json:"sha256"`
	Mtime  json.Number `json:"mtime"`
	Size   json.Number `json:"size"`
}

// Dataset is one entry of the JSON dataset map, keyed by versioned
// dataset ID.
type Dataset struct {
	GenerateAggregation bool   `json:"generate_aggregation"`
	IncludeInWMS        bool   `json:"include_in_wms"`
	TechNoteURL         string `json:"tech_note_url"`
	TechNoteTitle       string `json:"tech_note_title"`
	Files               []File `json:"files"`
}

// Map is the full dataset map: versioned dataset ID to dataset.
type Map map[string]Dataset

// ReadMap parses a JSON dataset map file.
func ReadMap(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse dataset map %s: %w", path, err)
	}
	return m, nil
}

// SortedIDs returns the map's dataset IDs in lexical order.
func (m Map) SortedIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var versionedDSID = regexp.MustCompile(`(.*)\.v([0-9]+)$`)

// SplitVersionedID splits "a.b.vNNN" into ("a.b", "NNN").
func SplitVersionedID(dsid string) (string, string, error) {
	match := versionedDSID.FindStringSubmatch(dsid)
	if match == nil {
		return "", "", fmt.Errorf("dataset ID %q does not contain a version number", dsid)
	}
	return match[1], match[2], nil
}

// Writer generates one mapfile per dataset. Depth controls how many
// leading DRS facets become directory levels under by_name. OutRoot,
// when set, is prepended to every output path; otherwise mapfiles land
// in the metadata directory next to the data itself.
type Writer struct {
	Depth   int
	OutRoot string
}

// NewWriter returns a Writer with the standard facet depth.
func NewWriter(outRoot string) *Writer {
	return &Writer{Depth: 5, OutRoot: outRoot}
}

// mapfileRoot derives the by_name directory from one data file path.
// CCI data lives under /neodc/esacci/<project>/data/, and mapfiles go in
// the project's metadata directory beside it.
func mapfileRoot(path string) (string, error) {
	bits := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(bits) < 4 || bits[0] != "neodc" || bits[1] != "esacci" || bits[3] != "data" {
		return "", fmt.Errorf("file path %q is not under a CCI data directory", path)
	}
	return fmt.Sprintf("/neodc/esacci/%s/metadata/mapfiles/by_name", bits[2]), nil
}

// Path returns the output path of the mapfile for a dataset. All files
// of the dataset must share one data directory root.
func (w *Writer) Path(dsid string, files []File) (string, error) {
	roots := make(map[string]struct{})
	root := ""
	for _, f := range files {
		r, err := mapfileRoot(f.Path)
		if err != nil {
			return "", err
		}
		roots[r] = struct{}{}
		root = r
	}
	if len(roots) != 1 {
		return "", fmt.Errorf("dataset %s spans %d data roots", dsid, len(roots))
	}

	facets := strings.Split(dsid, ".")
	if len(facets) > w.Depth {
		facets = facets[:w.Depth]
	}
	elems := append([]string{w.OutRoot, root}, facets...)
	elems = append(elems, dsid)
	return filepath.Join(elems...), nil
}

// Line formats one mapfile entry.
func Line(unversionedID, version string, f File) (string, error) {
	mtime, err := f.Mtime.Float64()
	if err != nil {
		return "", fmt.Errorf("file %s: bad mtime %q", f.Path, f.Mtime)
	}
	return fmt.Sprintf("%s#%s | %s | %s | mod_time=%.5f | checksum=%s | checksum_type=SHA256\n",
		unversionedID, version, f.Path, f.Size, mtime, f.SHA256), nil
}

// Write generates the mapfile for one dataset and returns its path.
func (w *Writer) Write(dsid string, files []File) (string, error) {
	path, err := w.Path(dsid, files)
	if err != nil {
		return "", err
	}
	unversioned, version, err := SplitVersionedID(dsid)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, f := range files {
		line, err := Line(unversioned, version, f)
		if err != nil {
			return "", err
		}
		content.WriteString(line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAll generates a mapfile per dataset in the map and returns the
// output paths in dataset ID order.
func (w *Writer) WriteAll(m Map) ([]string, error) {
	var paths []string
	for _, dsid := range m.SortedIDs() {
		path, err := w.Write(dsid, m[dsid].Files)
		if err != nil {
			return paths, fmt.Errorf("%s: %w", dsid, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
