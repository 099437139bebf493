package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cedadev/esacci-esgf/internal/ui"
)

// Logger is a tiny opt-in logger used across internal packages.
// When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> dataset=<datasetID> <formattedMessage>\n
//
// where <datasetID> is trimmed and defaults to "(unknown)".
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitDataset controls whether the dataset ID field is written.
	// When false (default), output includes: "dataset=<id>".
	OmitDataset bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Logf(datasetID string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = ui.Color(prefix, l.PrefixColor)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitDataset {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	d := strings.TrimSpace(datasetID)
	if d == "" {
		d = "(unknown)"
	}
	fmt.Fprintf(l.Writer, "%s dataset=%s %s\n", prefix, d, msg)
}

// warnWriter is where Warnf writes. Overridable in tests.
var warnWriter io.Writer = os.Stderr

// SetWarnWriter redirects warning output and returns the previous writer.
func SetWarnWriter(w io.Writer) io.Writer {
	prev := warnWriter
	warnWriter = w
	return prev
}

// Warnf writes a warning to stderr. Unlike Logger output, warnings are
// always emitted: a batch run reports per-dataset problems this way while
// continuing with the remaining datasets.
func Warnf(format string, args ...any) {
	prefix := ui.Color("WARNING:", ui.FgYellow)
	fmt.Fprintf(warnWriter, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
