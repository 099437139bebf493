package aggregate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cedadev/esacci-esgf/internal/ncdf"
)

func TestParseAerosolTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"20020724T043133Z", time.Date(2002, 7, 24, 4, 31, 33, 0, time.UTC)},
		{"2002-07-24T04:31:33Z", time.Date(2002, 7, 24, 4, 31, 33, 0, time.UTC)},
		{"24-JUL-2002 04:31:33.070626", time.Date(2002, 7, 24, 4, 31, 33, 70626000, time.UTC)},
		{"24-JUL-2002", time.Date(2002, 7, 24, 0, 0, 0, 0, time.UTC)},
		{"20020724", time.Date(2002, 7, 24, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseAerosolTime(tt.in)
		if err != nil {
			t.Errorf("parseAerosolTime(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseAerosolTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseAerosolTime("not a date"); err == nil {
		t.Error("parseAerosolTime() expected error for garbage input")
	}
}

func TestCreateAerosol_SortsByCoverageMidpoint(t *testing.T) {
	m := ncdf.NewMemory()
	m.Add("/d/later.nc").
		SetAttr("time_coverage_start", "20020101T000000Z").
		SetAttr("time_coverage_end", "20020102T000000Z")
	m.Add("/d/earlier.nc").
		SetAttr("time_coverage_start", "20010101T000000Z").
		SetAttr("time_coverage_end", "20010102T000000Z")

	agg, err := CreateAerosol([]string{"/d/later.nc", "/d/earlier.nc"}, "time", m)
	if err != nil {
		t.Fatalf("CreateAerosol: %v", err)
	}

	if agg.Kind != JoinNew {
		t.Errorf("Kind = %q, want joinNew", agg.Kind)
	}
	if len(agg.Files) != 2 || agg.Files[0].Location != "/d/earlier.nc" {
		t.Fatalf("Files = %v, want earlier file first", agg.Files)
	}
	// Midpoint of 2001-01-01 .. 2001-01-02 in seconds since the epoch.
	if got := agg.Files[0].CoordValue; got != "978350400" {
		t.Errorf("coordValue = %s, want 978350400", got)
	}

	doc, err := agg.NcML()
	if err != nil {
		t.Fatalf("NcML: %v", err)
	}
	out := string(doc)
	for _, want := range []string{
		`type="joinNew"`,
		`<variable name="time" type="int" shape="time">`,
		`<attribute name="units" value="` + AerosolTimeUnits + `">`,
		`<attribute name="_CoordinateAxisType" value="Time">`,
		`coordValue="978350400"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("NcML missing %q:\n%s", want, out)
		}
	}
}

func TestCreateAerosol_FallbackSources(t *testing.T) {
	t.Run("lowercase attribute pair", func(t *testing.T) {
		m := ncdf.NewMemory()
		m.Add("/d/a.nc").
			SetAttr("startdate", "24-JUL-2002 00:00:00.000000").
			SetAttr("stopdate", "25-JUL-2002")

		agg, err := CreateAerosol([]string{"/d/a.nc"}, "time", m)
		if err != nil {
			t.Fatalf("CreateAerosol: %v", err)
		}
		if agg.Files[0].CoordValue == "" {
			t.Error("missing coordValue")
		}
	})

	t.Run("gomos julian days", func(t *testing.T) {
		m := ncdf.NewMemory()
		m.Add("/d/g.nc").
			SetAttr("title", "GOMOS aerosol product").
			SetAttr("startDate", 50000).
			SetAttr("endDate", 50000)

		agg, err := CreateAerosol([]string{"/d/g.nc"}, "time", m)
		if err != nil {
			t.Fatalf("CreateAerosol: %v", err)
		}
		// Day 50000 after 1858-11-17, midpoint of 00:00:00 .. 23:59:59.
		if got := agg.Files[0].CoordValue; got != "813326399" {
			t.Errorf("coordValue = %s, want 813326399", got)
		}
	})

	t.Run("dates in file name", func(t *testing.T) {
		m := ncdf.NewMemory()
		m.Add("/d/20010101-20010102-ESACCI-L3C_AEROSOL.nc")

		agg, err := CreateAerosol([]string{"/d/20010101-20010102-ESACCI-L3C_AEROSOL.nc"}, "time", m)
		if err != nil {
			t.Fatalf("CreateAerosol: %v", err)
		}
		if got := agg.Files[0].CoordValue; got != "978350400" {
			t.Errorf("coordValue = %s, want 978350400", got)
		}
	})
}

func TestCreateAerosol_Errors(t *testing.T) {
	t.Run("non-time dimension", func(t *testing.T) {
		if _, err := CreateAerosol(nil, "depth", ncdf.NewMemory()); err == nil {
			t.Error("expected error for non-time dimension")
		}
	})

	t.Run("undeterminable file skipped", func(t *testing.T) {
		warnings := quietWarnings(t)

		m := ncdf.NewMemory()
		m.Add("/d/mystery.nc")
		m.Add("/d/ok.nc").
			SetAttr("time_coverage_start", "20010101T000000Z").
			SetAttr("time_coverage_end", "20010102T000000Z")

		agg, err := CreateAerosol([]string{"/d/mystery.nc", "/d/ok.nc"}, "time", m)
		if err != nil {
			t.Fatalf("CreateAerosol: %v", err)
		}
		if len(agg.Files) != 1 || agg.Files[0].Location != "/d/ok.nc" {
			t.Errorf("Files = %v, want only the readable file", agg.Files)
		}
		if !strings.Contains(warnings.String(), "WARNING:") {
			t.Errorf("expected a warning, got %q", warnings.String())
		}
	})

	t.Run("no usable files", func(t *testing.T) {
		quietWarnings(t)

		m := ncdf.NewMemory()
		m.Add("/d/mystery.nc")

		_, err := CreateAerosol([]string{"/d/mystery.nc"}, "time", m)
		var aggErr *Error
		if !errors.As(err, &aggErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
	})
}
