package attrs

import (
	"io"

	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Attrs:", PrefixColor: ui.FgMagenta}

// SetLogger sets an optional destination for attribute merge logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(datasetID string, format string, args ...any) {
	logger.Logf(datasetID, format, args...)
}
