package aggregate

import (
	"io"

	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Aggregate:", PrefixColor: ui.FgCyan, OmitDataset: true}

// SetLogger sets an optional destination for aggregation logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
