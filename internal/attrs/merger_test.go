package attrs

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ncdf"
	"github.com/cedadev/esacci-esgf/internal/ui"
)

func setup(t *testing.T) *bytes.Buffer {
	t.Helper()
	ui.Init(true)
	var warnings bytes.Buffer
	prevWarn := logging.SetWarnWriter(&warnings)
	prevNow := timeNow
	timeNow = func() time.Time {
		return time.Date(2018, 12, 25, 0, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() {
		logging.SetWarnWriter(prevWarn)
		timeNow = prevNow
	})
	return &warnings
}

func TestMerge_HistoryAndBookkeeping(t *testing.T) {
	setup(t)

	m := ncdf.NewMemory()
	m.Add("/d/f1.nc").SetAttr("history", "processed by the level-3 chain")
	m.Add("/d/f2.nc")

	merged, err := Merge([]string{"/d/f1.nc", "/d/f2.nc"}, "mydrs", m)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	history, _ := merged.Get("history")
	if !strings.HasPrefix(history, "processed by the level-3 chain. ") {
		t.Errorf("history does not keep original text with separator: %q", history)
	}
	if !strings.Contains(history, "The CCI Open Data Portal aggregated all files in the dataset") {
		t.Errorf("history missing provenance sentence: %q", history)
	}

	if id, _ := merged.Get("id"); id != "mydrs" {
		t.Errorf("id = %q, want mydrs", id)
	}
	tracking, _ := merged.Get("tracking_id")
	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	if !uuidRe.MatchString(tracking) {
		t.Errorf("tracking_id %q is not a UUID", tracking)
	}
	if created, _ := merged.Get("date_created"); created != "20181225T000000Z" {
		t.Errorf("date_created = %q", created)
	}
}

func TestMerge_HistoryAbsent_WarnsAndUsesProvenanceAlone(t *testing.T) {
	warnings := setup(t)

	m := ncdf.NewMemory()
	m.Add("/d/f1.nc")

	merged, err := Merge([]string{"/d/f1.nc"}, "mydrs", m)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	history, _ := merged.Get("history")
	if !strings.HasPrefix(history, "2018-12-25 00:00:00: ") {
		t.Errorf("history = %q, want provenance sentence alone", history)
	}
	if !strings.Contains(warnings.String(), "history") {
		t.Errorf("expected a warning about missing history, got %q", warnings.String())
	}
}

func TestMerge_TimeCoverage(t *testing.T) {
	for _, variant := range []TimeVariant{
		{Start: "time_coverage_start", End: "time_coverage_end"},
		{Start: "start_time", End: "stop_time"},
	} {
		t.Run(variant.Start, func(t *testing.T) {
			setup(t)

			m := ncdf.NewMemory()
			m.Add("/d/f1.nc").
				SetAttr(variant.Start, "200001010745Z").
				SetAttr(variant.End, "20000101T120000Z")
			m.Add("/d/f2.nc").
				SetAttr(variant.Start, "20000104T000000Z").
				SetAttr(variant.End, "200001041200Z")
			m.Add("/d/f3.nc").
				SetAttr(variant.Start, "200001060000Z").
				SetAttr(variant.End, "20000106T120000Z")

			merged, err := Merge([]string{"/d/f1.nc", "/d/f2.nc", "/d/f3.nc"}, "drs", m)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}

			if merged.TimeVariant == nil || *merged.TimeVariant != variant {
				t.Fatalf("selected variant = %v, want %v", merged.TimeVariant, variant)
			}
			if start, _ := merged.Get(variant.Start); start != "20000101T074500Z" {
				t.Errorf("%s = %q", variant.Start, start)
			}
			if end, _ := merged.Get(variant.End); end != "20000106T120000Z" {
				t.Errorf("%s = %q", variant.End, end)
			}
			// canonical names present regardless of source convention
			if start, ok := merged.Get("time_coverage_start"); !ok || start != "20000101T074500Z" {
				t.Errorf("time_coverage_start = %q, %t", start, ok)
			}
			if end, ok := merged.Get("time_coverage_end"); !ok || end != "20000106T120000Z" {
				t.Errorf("time_coverage_end = %q, %t", end, ok)
			}
			if d, _ := merged.Get("time_coverage_duration"); d != "P5DT4H15M" {
				t.Errorf("time_coverage_duration = %q, want P5DT4H15M", d)
			}
		})
	}
}

func TestMerge_TimeCoverage_VariantsNotMixed(t *testing.T) {
	setup(t)

	// First file satisfies start_date/stop_date only; a later convention in
	// the table must not borrow the other file's attribute names.
	m := ncdf.NewMemory()
	m.Add("/d/f1.nc").
		SetAttr("start_date", "01-JAN-2000 07:45:00.000000").
		SetAttr("stop_date", "01-JAN-2000 12:00:00.000000")
	m.Add("/d/f2.nc").
		SetAttr("start_date", "04-JAN-2000 00:00:00.000000").
		SetAttr("stop_date", "04-JAN-2000 12:00:00.000000")

	merged, err := Merge([]string{"/d/f1.nc", "/d/f2.nc"}, "drs", m)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.TimeVariant == nil || merged.TimeVariant.Start != "start_date" {
		t.Fatalf("selected variant = %v, want start_date/stop_date", merged.TimeVariant)
	}
	// non-ISO input is still emitted in the compact ISO form
	if start, _ := merged.Get("start_date"); start != "20000101T074500Z" {
		t.Errorf("start_date = %q", start)
	}
	if end, _ := merged.Get("stop_date"); end != "20000104T120000Z" {
		t.Errorf("stop_date = %q", end)
	}
	if d, _ := merged.Get("time_coverage_duration"); d != "P3DT4H15M" {
		t.Errorf("time_coverage_duration = %q, want P3DT4H15M", d)
	}
}

func TestMerge_TimeCoverageMissing_Warns(t *testing.T) {
	warnings := setup(t)

	m := ncdf.NewMemory()
	m.Add("/d/f1.nc")

	merged, err := Merge([]string{"/d/f1.nc"}, "drs", m)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.TimeVariant != nil {
		t.Errorf("unexpected variant %v", merged.TimeVariant)
	}
	if _, ok := merged.Get("time_coverage_duration"); ok {
		t.Errorf("duration must be omitted when no time range found")
	}
	if !strings.Contains(warnings.String(), "coverage times") {
		t.Errorf("expected coverage warning, got %q", warnings.String())
	}
}

func TestMerge_Bounds(t *testing.T) {
	for _, variant := range BoundsVariants {
		t.Run(variant.North, func(t *testing.T) {
			setup(t)

			m := ncdf.NewMemory()
			m.Add("/d/f1.nc").
				SetAttr(variant.West, 0.0).
				SetAttr(variant.East, 45.0).
				SetAttr(variant.South, -70.0).
				SetAttr(variant.North, 10.0)
			m.Add("/d/f2.nc").
				SetAttr(variant.West, -120.0).
				SetAttr(variant.East, 45.0).
				SetAttr(variant.South, 0.0).
				SetAttr(variant.North, 85.0)
			m.Add("/d/f3.nc").
				SetAttr(variant.West, -119.0).
				SetAttr(variant.East, 175.0).
				SetAttr(variant.South, 75.0).
				SetAttr(variant.North, 77.0)

			merged, err := Merge([]string{"/d/f1.nc", "/d/f2.nc", "/d/f3.nc"}, "drs", m)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			if merged.BoundsVariant == nil || *merged.BoundsVariant != variant {
				t.Fatalf("selected variant = %v, want %v", merged.BoundsVariant, variant)
			}

			wantValues := map[string]string{
				variant.North: "85.0",
				variant.East:  "175.0",
				variant.South: "-70.0",
				variant.West:  "-120.0",
			}
			for name, want := range wantValues {
				got, ok := merged.Get(name)
				if !ok || got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
			for _, a := range merged.Attributes {
				if _, isBound := wantValues[a.Name]; isBound && a.Type != "float" {
					t.Errorf("%s typed %q, want float", a.Name, a.Type)
				}
			}
		})
	}
}

func TestMerge_ListFieldUnion(t *testing.T) {
	setup(t)

	platforms := []string{"one,two,three", "two, four,", "five,one, three"}
	m := ncdf.NewMemory()
	paths := []string{"/d/f0.nc", "/d/f1.nc", "/d/f2.nc"}
	for i, p := range paths {
		m.Add(p).SetAttr("platform", platforms[i])
	}

	merged, err := Merge(paths, "drs", m)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got, _ := merged.Get("platform"); got != "five,four,one,three,two" {
		t.Errorf("platform = %q, want five,four,one,three,two", got)
	}
}

func TestMerge_Removals(t *testing.T) {
	setup(t)

	m := ncdf.NewMemory()
	m.Add("/d/f.nc").
		SetAttr("number_of_processed_orbits", "12").
		SetAttr("number_of_files_composited", "104").
		SetAttr("creation_date", "some date")

	merged, err := Merge([]string{"/d/f.nc"}, "drs", m)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	for _, want := range []string{"number_of_processed_orbits", "number_of_files_composited", "creation_date"} {
		found := false
		for _, name := range merged.Removals {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Removals missing %q: %v", want, merged.Removals)
		}
	}
}

func TestMerge_NoFiles(t *testing.T) {
	setup(t)
	if _, err := Merge(nil, "drs", ncdf.NewMemory()); err == nil {
		t.Fatalf("expected error for empty file list")
	}
}
