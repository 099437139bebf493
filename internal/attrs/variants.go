package attrs

// Not every product uses the same attribute names for its time range or
// bounding box. The tables below are the known conventions, tried in order;
// the first one fully satisfied by the representative (earliest) file wins
// and is recorded on the merge result. Variants are never mixed.

// TimeVariant is a start/end attribute name convention.
type TimeVariant struct {
	Start string
	End   string
}

// TimeVariants is the ordered list of time range conventions.
var TimeVariants = []TimeVariant{
	{Start: "time_coverage_start", End: "time_coverage_end"},
	{Start: "start_time", End: "stop_time"},
	{Start: "start_date", End: "stop_date"},
}

// canonicalTime is the convention downstream consumers rely on. It is
// always populated even when the source files used a different one.
var canonicalTime = TimeVariants[0]

// BoundsVariant is an (N, E, S, W) bounding box attribute name convention.
type BoundsVariant struct {
	North string
	East  string
	South string
	West  string
}

// Names returns the variant's attribute names in N, E, S, W order.
func (v BoundsVariant) Names() [4]string {
	return [4]string{v.North, v.East, v.South, v.West}
}

// BoundsVariants is the ordered list of bounding box conventions. The
// misspelled "nothernmost_latitude" is what the files actually contain.
var BoundsVariants = []BoundsVariant{
	{
		North: "geospatial_lat_max",
		East:  "geospatial_lon_max",
		South: "geospatial_lat_min",
		West:  "geospatial_lon_min",
	},
	{
		North: "nothernmost_latitude",
		East:  "easternmost_longitude",
		South: "southernmost_latitude",
		West:  "westernmost_longitude",
	},
}

// listFields are per-file comma-list provenance attributes merged by union.
var listFields = []string{"platform", "sensor", "source"}

// removedAttributes are per-file bookkeeping attributes that make no sense
// on an aggregated dataset and are flagged for removal.
var removedAttributes = []string{
	"number_of_processed_orbits",
	"number_of_files_composited",
	"creation_date",
}
