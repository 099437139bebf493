// Package aggregation is the public entry point for building NcML
// aggregations from sets of NetCDF files.
package aggregation

import (
	"io"

	"github.com/cedadev/esacci-esgf/internal/aggregate"
	"github.com/cedadev/esacci-esgf/internal/attrs"
	"github.com/cedadev/esacci-esgf/internal/ncdf"
	"github.com/cedadev/esacci-esgf/internal/partition"
)

// Options configures aggregation construction.
type Options struct {
	// Dimension is the aggregation dimension. Empty means "time".
	Dimension string

	// Cache reads per-file coordinate values so THREDDS can serve the
	// aggregation without opening every member file.
	Cache bool

	// DRS, when set, merges global attributes across the member files
	// and records this dataset ID on the result.
	DRS string

	// Opener provides NetCDF access; nil means reading real files.
	Opener ncdf.Opener
}

func (o Options) withDefaults() Options {
	if o.Dimension == "" {
		o.Dimension = "time"
	}
	if o.Opener == nil {
		o.Opener = ncdf.Native{}
	}
	return o
}

// Partition splits file paths into aggregatable groups: files aggregate
// together when their directories match after masking digit runs.
func Partition(paths []string) map[string][]string {
	return partition.Partition(paths)
}

// Create builds an aggregation over the given files.
func Create(files []string, opts Options) (*aggregate.Aggregation, error) {
	opts = opts.withDefaults()
	agg, err := aggregate.Create(files, opts.Dimension, opts.Cache, opts.Opener)
	if err != nil {
		return nil, err
	}
	if opts.DRS != "" {
		// Merge over the built file order, not the input order: history
		// and convention selection read the earliest file.
		merged, err := attrs.Merge(agg.SortedLocations(), opts.DRS, opts.Opener)
		if err != nil {
			return nil, err
		}
		agg.Attributes = merged.Attributes
		agg.Removals = merged.Removals
	}
	return agg, nil
}

// Write renders an aggregation as NcML.
func Write(w io.Writer, agg *aggregate.Aggregation) error {
	return agg.WriteNcML(w)
}
