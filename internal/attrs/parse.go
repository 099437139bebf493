package attrs

import (
	"fmt"
	"strings"
	"time"
)

// CompactLayout is the timestamp form used for all emitted date attributes.
const CompactLayout = "20060102T150405Z"

// timeLayouts are the accepted input forms, in order of preference. Real
// product files are inconsistent: some omit the 'T' separator and seconds,
// some use a VMS-style "24-JUL-2002 04:31:33.070626" form, and filename
// dates are bare YYYYMMDD.
var timeLayouts = []string{
	CompactLayout,
	"2006-01-02T15:04:05Z",
	"200601021504Z",
	"02-Jan-2006 15:04:05.999999",
	"02-Jan-2006",
	"20060102",
}

// ParseTime parses a date attribute value using the known layouts.
// The result is always in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date string %q", s)
}

// FormatCompact renders a time in the compact UTC form used for output.
func FormatCompact(t time.Time) string {
	return t.UTC().Format(CompactLayout)
}

// ISODuration renders a duration in ISO-8601 form, e.g. P5DT4H15M.
// Sub-second precision is dropped; the zero duration is PT0S.
func ISODuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var b strings.Builder
	b.WriteString("P")
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || minutes > 0 || seconds > 0 {
		b.WriteString("T")
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		if seconds > 0 {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}
	if b.Len() == 1 {
		return "PT0S"
	}
	return b.String()
}
