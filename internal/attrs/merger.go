// Package attrs computes the merged global attributes for an aggregated
// dataset: provenance history, identifiers, the overall time range and
// bounding box across every file, and union-merged provenance lists.
package attrs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cedadev/esacci-esgf/internal/aggregate"
	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ncdf"
)

// provenanceText is appended to the aggregated dataset's history.
const provenanceText = "The CCI Open Data Portal aggregated all files in the " +
	"dataset over the time variable for OPeNDAP access"

// timeNow is overridable in tests.
var timeNow = time.Now

// newTrackingID is overridable in tests.
var newTrackingID = uuid.NewString

// Merged is the computed attribute set for one aggregation.
type Merged struct {
	// Attributes in emission order.
	Attributes []aggregate.Attribute

	// Removals lists stale per-file attribute names to strip from the
	// aggregated dataset. Instructions only; nothing is mutated here.
	Removals []string

	// TimeVariant and BoundsVariant record which naming convention was
	// selected, for traceability. Nil when no convention matched.
	TimeVariant   *TimeVariant
	BoundsVariant *BoundsVariant
}

// Get returns the value of a merged attribute by name.
func (m *Merged) Get(name string) (string, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// fileAttrs is the per-file snapshot taken during the single read pass.
type fileAttrs struct {
	path    string
	strings map[string]string
	floats  map[string]float64
}

// Merge computes the merged attribute set for the given files, which must be
// in aggregation order (first = earliest, last = latest). drs is the dataset
// identifier that overrides the per-file id attribute.
func Merge(files []string, drs string, opener ncdf.Opener) (*Merged, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to merge attributes from")
	}

	snapshots := snapshot(files, drs, opener)
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("could not open any of %d files", len(files))
	}
	first := snapshots[0]

	m := &Merged{Removals: append([]string(nil), removedAttributes...)}
	now := timeNow().UTC()

	// History: append our provenance to the first file's history, with a
	// normalised ". " separator. Absent history gets the provenance alone.
	sentence := fmt.Sprintf("%s: %s", now.Format("2006-01-02 15:04:05"), provenanceText)
	if history, ok := first.strings["history"]; ok {
		if !strings.HasSuffix(history, ". ") {
			history += ". "
		}
		m.add("history", history+sentence, "")
	} else {
		logging.Warnf("could not read 'history' global attribute from %q", first.path)
		m.add("history", sentence, "")
	}

	m.add("id", drs, "")
	m.add("tracking_id", newTrackingID(), "")
	m.add("date_created", FormatCompact(now), "")

	m.mergeTimeCoverage(snapshots, drs)
	m.mergeBounds(snapshots, drs)
	m.mergeListFields(snapshots)

	return m, nil
}

func (m *Merged) add(name, value, typ string) {
	m.Attributes = append(m.Attributes, aggregate.Attribute{Name: name, Value: value, Type: typ})
}

// snapshot opens each file once and captures every attribute the merge can
// need. Files that fail to open are skipped with a warning.
func snapshot(files []string, drs string, opener ncdf.Opener) []fileAttrs {
	names := interestingNames()

	var snapshots []fileAttrs
	for _, path := range files {
		ds, err := opener.Open(path)
		if err != nil {
			logging.Warnf("dataset %s: %v", drs, err)
			continue
		}

		fa := fileAttrs{
			path:    path,
			strings: map[string]string{},
			floats:  map[string]float64{},
		}
		for _, name := range names {
			if v, ok := ds.Attr(name); ok {
				fa.strings[name] = v
			}
			if f, ok := ds.FloatAttr(name); ok {
				fa.floats[name] = f
			}
		}
		ds.Close()
		snapshots = append(snapshots, fa)
	}
	return snapshots
}

func interestingNames() []string {
	names := []string{"history"}
	for _, v := range TimeVariants {
		names = append(names, v.Start, v.End)
	}
	for _, v := range BoundsVariants {
		n := v.Names()
		names = append(names, n[:]...)
	}
	return append(names, listFields...)
}

// mergeTimeCoverage selects the first time range convention fully readable
// on the representative file, then takes the earliest start and latest end
// across all files using that convention. The canonical
// time_coverage_{start,end} pair is always emitted so downstream consumers
// have one stable name.
func (m *Merged) mergeTimeCoverage(snapshots []fileAttrs, drs string) {
	first := snapshots[0]

	var selected *TimeVariant
	for i := range TimeVariants {
		v := TimeVariants[i]
		startStr, okStart := first.strings[v.Start]
		endStr, okEnd := first.strings[v.End]
		if !okStart || !okEnd {
			continue
		}
		if _, err := ParseTime(startStr); err != nil {
			continue
		}
		if _, err := ParseTime(endStr); err != nil {
			continue
		}
		selected = &v
		break
	}
	if selected == nil {
		logging.Warnf("dataset %s: could not read start/end coverage times", drs)
		return
	}
	m.TimeVariant = selected
	logf(drs, "time coverage convention: %s/%s", selected.Start, selected.End)

	var start, end time.Time
	for _, fa := range snapshots {
		if s, ok := fa.strings[selected.Start]; ok {
			if t, err := ParseTime(s); err == nil && (start.IsZero() || t.Before(start)) {
				start = t
			}
		}
		if s, ok := fa.strings[selected.End]; ok {
			if t, err := ParseTime(s); err == nil && t.After(end) {
				end = t
			}
		}
	}
	if start.IsZero() || end.IsZero() {
		logging.Warnf("dataset %s: could not read start/end coverage times", drs)
		m.TimeVariant = nil
		return
	}

	m.add(selected.Start, FormatCompact(start), "")
	m.add(selected.End, FormatCompact(end), "")
	if *selected != canonicalTime {
		m.add(canonicalTime.Start, FormatCompact(start), "")
		m.add(canonicalTime.End, FormatCompact(end), "")
	}
	m.add("time_coverage_duration", ISODuration(end.Sub(start)), "")
}

// mergeBounds selects the first bounding box convention fully present on
// the representative file and computes the enclosing envelope across files:
// max north, max east, min south, min west.
func (m *Merged) mergeBounds(snapshots []fileAttrs, drs string) {
	first := snapshots[0]

	var selected *BoundsVariant
	for i := range BoundsVariants {
		v := BoundsVariants[i]
		complete := true
		for _, name := range v.Names() {
			if _, ok := first.floats[name]; !ok {
				complete = false
				break
			}
		}
		if complete {
			selected = &v
			break
		}
	}
	if selected == nil {
		return
	}
	m.BoundsVariant = selected
	logf(drs, "bounding box convention: %s", selected.North)

	var north, east, south, west float64
	found := false
	for _, fa := range snapshots {
		n, okN := fa.floats[selected.North]
		e, okE := fa.floats[selected.East]
		s, okS := fa.floats[selected.South]
		w, okW := fa.floats[selected.West]
		if !okN || !okE || !okS || !okW {
			continue
		}
		if !found {
			north, east, south, west = n, e, s, w
			found = true
			continue
		}
		north = max(north, n)
		east = max(east, e)
		south = min(south, s)
		west = min(west, w)
	}
	if !found {
		m.BoundsVariant = nil
		return
	}

	m.add(selected.North, formatFloatAttr(north), "float")
	m.add(selected.East, formatFloatAttr(east), "float")
	m.add(selected.South, formatFloatAttr(south), "float")
	m.add(selected.West, formatFloatAttr(west), "float")
}

// mergeListFields unions the comma-separated values of each provenance list
// field across every file: tokens trimmed, empties dropped, deduplicated,
// sorted, rejoined with commas.
func (m *Merged) mergeListFields(snapshots []fileAttrs) {
	for _, field := range listFields {
		seen := map[string]struct{}{}
		for _, fa := range snapshots {
			value, ok := fa.strings[field]
			if !ok {
				continue
			}
			for _, token := range strings.Split(value, ",") {
				token = strings.TrimSpace(token)
				if token == "" {
					continue
				}
				seen[token] = struct{}{}
			}
		}
		if len(seen) == 0 {
			continue
		}
		tokens := make([]string, 0, len(seen))
		for t := range seen {
			tokens = append(tokens, t)
		}
		sort.Strings(tokens)
		m.add(field, strings.Join(tokens, ","), "")
	}
}

// formatFloatAttr renders a float the way it appears in catalog attributes:
// integral values keep one decimal place.
func formatFloatAttr(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%g", v)
}
