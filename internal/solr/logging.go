package solr

import (
	"io"

	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Solr:", PrefixColor: ui.FgBlue, OmitDataset: true}

func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
