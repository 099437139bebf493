// Package aggregate builds NcML "joinExisting" aggregations: virtual
// datasets that join many single-time-step NetCDF files along a shared
// dimension without physically merging file contents.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ncdf"
)

// Error indicates that aggregation creation has failed for one file group.
// The batch driver treats it as fatal for the group only: the group is
// skipped with a warning and the run continues.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// File is one entry of an aggregation. CoordValue is the stringified
// coordinate value, or "" when values were not read or are not comparable.
type File struct {
	Location   string
	CoordValue string
}

// Attribute is a global attribute to set on the aggregated dataset.
type Attribute struct {
	Name  string
	Value string
	Type  string // "" for the default (string)
}

// Variable declares a variable on the aggregated dataset. joinNew
// aggregations use this to define the coordinate variable that the member
// files lack.
type Variable struct {
	Name  string
	Type  string
	Shape string
	Attrs []Attribute
}

// Aggregation kinds.
const (
	JoinExisting = "joinExisting"
	JoinNew      = "joinNew"
)

// Aggregation is the descriptor for one virtual dataset, renderable as an
// NcML element tree.
type Aggregation struct {
	Dimension string
	Files     []File

	// Kind is the NcML aggregation type. Empty means joinExisting.
	Kind string

	// Variables to declare on the aggregated dataset.
	Variables []Variable

	// TimeUnitsChange is true when more than one distinct units string was
	// seen across the group. Coordinate values are not comparable across
	// units without conversion, so no CoordValue is attached in that case.
	TimeUnitsChange bool

	// Attributes and Removals carry the merged global metadata computed by
	// the attrs package. The builder itself leaves them empty.
	Attributes []Attribute
	Removals   []string
}

// coordSample pairs a file with its coordinate reading.
type coordSample struct {
	value float64
	units string
	file  string
}

// readCoord opens one file and reads the scalar coordinate value and units
// for the dimension. Failures are converted to *Error here so that raw
// parsing errors never leak past this boundary.
func readCoord(opener ncdf.Opener, path, dimension string) (units string, value float64, err error) {
	ds, err := opener.Open(path)
	if err != nil {
		return "", 0, &Error{Message: fmt.Sprintf("could not open %q", path), Err: err}
	}
	defer ds.Close()

	units, value, err = ds.Coordinate(dimension)
	if err != nil {
		return "", 0, &Error{Message: "could not read coordinate", Err: err}
	}
	return units, value, nil
}

// Create builds an aggregation over files along dimension.
//
// When cache is false no file is opened: entries keep input order and carry
// no coordinate value. When cache is true every file's coordinate is read;
// unreadable files are skipped with a warning, the rest are sorted ascending
// by value (stable, ties keep input order). If every read fails the group is
// unusable and an *Error is returned.
func Create(files []string, dimension string, cache bool, opener ncdf.Opener) (*Aggregation, error) {
	agg := &Aggregation{Dimension: dimension}

	if !cache {
		for _, f := range files {
			agg.Files = append(agg.Files, File{Location: f})
		}
		return agg, nil
	}

	var samples []coordSample
	seenUnits := map[string]struct{}{}
	multipleUnits := false

	for _, f := range files {
		units, value, err := readCoord(opener, f, dimension)
		if err != nil {
			logging.Warnf("%v", err)
			continue
		}
		samples = append(samples, coordSample{value: value, units: units, file: f})

		if !multipleUnits && units != "" {
			seenUnits[units] = struct{}{}
			if len(seenUnits) > 1 {
				multipleUnits = true
			}
		}
	}

	if len(samples) == 0 {
		return nil, &Error{Message: "No aggregation could be created"}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].value < samples[j].value
	})

	for _, s := range samples {
		entry := File{Location: s.file}
		if !multipleUnits {
			entry.CoordValue = formatCoordValue(s.value)
		}
		agg.Files = append(agg.Files, entry)
	}
	agg.TimeUnitsChange = multipleUnits

	logf("aggregated %d/%d files along %q (timeUnitsChange=%t)",
		len(samples), len(files), dimension, multipleUnits)
	return agg, nil
}

// SortedLocations returns the file paths in aggregation order.
func (a *Aggregation) SortedLocations() []string {
	locations := make([]string, len(a.Files))
	for i, f := range a.Files {
		locations[i] = f.Location
	}
	return locations
}

// formatCoordValue renders a coordinate value the way it appears in NcML:
// integral values without a decimal point.
func formatCoordValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
