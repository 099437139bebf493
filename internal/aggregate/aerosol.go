package aggregate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ncdf"
)

// AerosolTimeUnits is the units string of the time coordinate synthesised
// for aerosol aggregations.
const AerosolTimeUnits = "seconds since 1970-01-01 00:00:00 UTC"

// Datetime layouts seen in aerosol coverage attributes, in order of
// preference. The last one also covers dates embedded in file names.
var aerosolTimeLayouts = []string{
	"20060102T150405Z",
	"2006-01-02T15:04:05Z",
	"02-Jan-2006 15:04:05.000000",
	"02-Jan-2006",
	"20060102",
}

// Start/end attribute name pairs, again in order of preference. Not all
// aerosol products use the same names.
var aerosolTimeAttrs = [][2]string{
	{"time_coverage_start", "time_coverage_end"},
	{"startdate", "stopdate"},
	{"Startdate", "Stopdate"},
}

var aerosolFilenameDates = regexp.MustCompile(`^([0-9]{8})-([0-9]{8})`)

// CreateAerosol builds a joinNew aggregation for aerosol products. Their
// files have no time variable, so the coordinate value for each file is the
// midpoint of its coverage window, read from global attributes or failing
// that from the file name, and a time variable is declared on the result.
//
// Files whose coverage window cannot be determined are skipped with a
// warning; if none remain an *Error is returned. Coordinate values are
// always computed since THREDDS cannot read them from the files.
func CreateAerosol(files []string, dimension string, opener ncdf.Opener) (*Aggregation, error) {
	if dimension != "time" {
		return nil, &Error{Message: fmt.Sprintf(
			"aerosol aggregations only join along time, not %q", dimension)}
	}

	agg := &Aggregation{
		Dimension: dimension,
		Kind:      JoinNew,
		Variables: []Variable{{
			Name:  "time",
			Type:  "int",
			Shape: "time",
			Attrs: []Attribute{
				{Name: "units", Value: AerosolTimeUnits},
				{Name: "standard_name", Value: "time"},
				{Name: "calendar", Value: "standard"},
				{Name: "_CoordinateAxisType", Value: "Time"},
			},
		}},
	}

	var samples []coordSample
	for _, f := range files {
		value, err := aerosolTimestamp(opener, f)
		if err != nil {
			logging.Warnf("%v", err)
			continue
		}
		samples = append(samples, coordSample{value: value, file: f})
	}
	if len(samples) == 0 {
		return nil, &Error{Message: "No aggregation could be created"}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].value < samples[j].value
	})
	for _, s := range samples {
		agg.Files = append(agg.Files, File{
			Location:   s.file,
			CoordValue: formatCoordValue(s.value),
		})
	}

	logf("aggregated %d/%d aerosol files", len(samples), len(files))
	return agg, nil
}

// aerosolTimestamp returns the midpoint of one file's coverage window as
// whole seconds since the epoch.
func aerosolTimestamp(opener ncdf.Opener, path string) (float64, error) {
	ds, err := opener.Open(path)
	if err != nil {
		return 0, &Error{Message: fmt.Sprintf("could not open %q", path), Err: err}
	}
	defer ds.Close()

	start, end, err := aerosolTimeRange(ds, path)
	if err != nil {
		return 0, err
	}
	return float64((start.Unix() + end.Unix()) / 2), nil
}

func aerosolTimeRange(ds ncdf.Dataset, path string) (time.Time, time.Time, error) {
	for _, pair := range aerosolTimeAttrs {
		startStr, okStart := ds.Attr(pair[0])
		endStr, okEnd := ds.Attr(pair[1])
		if !okStart || !okEnd {
			continue
		}
		start, err := parseAerosolTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, &Error{
				Message: fmt.Sprintf("error in file %q", filepath.Base(path)), Err: err}
		}
		end, err := parseAerosolTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, &Error{
				Message: fmt.Sprintf("error in file %q", filepath.Base(path)), Err: err}
		}
		return start, end, nil
	}

	// GOMOS files record whole days since the modified Julian day epoch.
	if title, ok := ds.Attr("title"); ok && strings.Contains(title, "GOMOS") {
		startDays, okStart := ds.FloatAttr("startDate")
		endDays, okEnd := ds.FloatAttr("endDate")
		if okStart && okEnd {
			epoch := time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)
			start := epoch.AddDate(0, 0, int(startDays))
			end := epoch.AddDate(0, 0, int(endDays)).
				Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			return start, end, nil
		}
	}

	// Last resort: dates embedded in the file name.
	if m := aerosolFilenameDates.FindStringSubmatch(filepath.Base(path)); m != nil {
		start, errStart := parseAerosolTime(m[1])
		end, errEnd := parseAerosolTime(m[2])
		if errStart == nil && errEnd == nil {
			return start, end, nil
		}
	}

	return time.Time{}, time.Time{}, &Error{
		Message: fmt.Sprintf("could not determine start and end time for file %q", path)}
}

var monthToken = regexp.MustCompile(`[A-Za-z]{3,}`)

func parseAerosolTime(s string) (time.Time, error) {
	candidates := []string{s}
	// Month names come in any case ("24-JUL-2002"); Go layouts want "Jul".
	if n := monthToken.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	}); n != s {
		candidates = append(candidates, n)
	}
	for _, layout := range aerosolTimeLayouts {
		for _, c := range candidates {
			if t, err := time.Parse(layout, c); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date string %q", s)
}
