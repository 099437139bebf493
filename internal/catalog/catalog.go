package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/cedadev/esacci-esgf/internal/aggregate"
	"github.com/cedadev/esacci-esgf/internal/attrs"
	"github.com/cedadev/esacci-esgf/internal/logging"
	"github.com/cedadev/esacci-esgf/internal/ncdf"
	"github.com/cedadev/esacci-esgf/internal/partition"
)

// DefaultAggregationsDir is where NcML files live on the THREDDS server,
// and therefore the prefix used when referencing them from catalogs.
const DefaultAggregationsDir = "/usr/local/aggregations"

// AggregationAerosol names the aerosol aggregation strategy in Options and
// in rule files.
const AggregationAerosol = "aerosol"

// Options configures a single catalog transform.
type Options struct {
	// DatasetRoots maps THREDDS dataset roots to directories on disk.
	// The esg_esacci root is always present.
	DatasetRoots map[string]string

	// ValidFilePattern, when set, keeps only files whose base name
	// matches this regular expression. Used for datasets that mix
	// several products in one directory.
	ValidFilePattern string

	// WithWCS adds a WCS service and access method alongside WMS.
	WithWCS bool

	// AggregationsDir is the server-side directory that NcML references
	// in the catalog point into.
	AggregationsDir string

	// Dimension is the aggregation dimension, normally "time".
	Dimension string

	// Aggregation selects how NcML aggregations are built. Empty means
	// the default joinExisting; AggregationAerosol handles products whose
	// files carry no time variable.
	Aggregation string

	// WithCache reads coordinate values while building aggregations.
	WithCache bool

	// Opener provides access to NetCDF files when WithCache is set.
	Opener ncdf.Opener
}

func (o Options) withDefaults() Options {
	if o.DatasetRoots == nil {
		o.DatasetRoots = map[string]string{}
	}
	if _, ok := o.DatasetRoots["esg_esacci"]; !ok {
		o.DatasetRoots["esg_esacci"] = "/neodc/esacci"
	}
	if o.AggregationsDir == "" {
		o.AggregationsDir = DefaultAggregationsDir
	}
	if o.Dimension == "" {
		o.Dimension = "time"
	}
	if o.Opener == nil {
		o.Opener = ncdf.Native{}
	}
	return o
}

type aggKey struct {
	Basename string
	Subdir   string
}

// DatasetCatalog is a THREDDS catalog describing one dataset, together
// with the NcML aggregations produced while transforming it.
type DatasetCatalog struct {
	Tree *Tree

	opts         Options
	inPath       string
	aggregations map[aggKey]*aggregate.Aggregation
}

// Open parses the dataset catalog at path.
func Open(path string, opts Options) (*DatasetCatalog, error) {
	tree, err := ReadTree(path)
	if err != nil {
		return nil, err
	}
	return &DatasetCatalog{
		Tree:         tree,
		opts:         opts.withDefaults(),
		inPath:       path,
		aggregations: make(map[aggKey]*aggregate.Aggregation),
	}, nil
}

// TopLevelDataset returns the outermost dataset element.
func (c *DatasetCatalog) TopLevelDataset() *etree.Element {
	return firstChildElement(c.Tree.Root(), "dataset")
}

// DatasetID returns the ID attribute of the top-level dataset.
func (c *DatasetCatalog) DatasetID() string {
	ds := c.TopLevelDataset()
	if ds == nil {
		return ""
	}
	return ds.SelectAttrValue("ID", "")
}

// InsertViewerMetadata adds the inherited metadata block that points the
// GISportal viewer at this dataset's WMS endpoint.
func (c *DatasetCatalog) InsertViewerMetadata() {
	mt := NewElement("metadata", Attr{"inherited", "true"})
	tr := c.Tree
	tr.NewTextChild(mt, "serviceName", "all")
	tr.NewTextChild(mt, "authority", "pml.ac.uk:")
	tr.NewTextChild(mt, "dataType", "Grid")
	tr.NewChild(mt, "property",
		Attr{"name", "viewer"},
		Attr{"value", "http://jasmin.eofrom.space/?wms_url={WMS},GISportal Viewer"})
	tr.InsertBeforeSimilar(c.TopLevelDataset(), mt)
}

// InsertServices prepends WMS (and optionally WCS) service elements to
// the catalog root.
func (c *DatasetCatalog) InsertServices() {
	root := c.Tree.Root()
	root.InsertChildAt(0, NewElement("service",
		Attr{"name", "wms"},
		Attr{"serviceType", "WMS"},
		Attr{"base", "/thredds/wms/"}))
	if c.opts.WithWCS {
		root.InsertChildAt(0, NewElement("service",
			Attr{"name", "wcs"},
			Attr{"serviceType", "WCS"},
			Attr{"base", "/thredds/wcs/"}))
	}
}

// StripRestrictAccess removes the restrictAccess attribute from the
// top-level dataset, making it publicly readable.
func (c *DatasetCatalog) StripRestrictAccess() {
	if ds := c.TopLevelDataset(); ds != nil {
		ds.RemoveAttr("restrictAccess")
	}
}

// PathOnDisk translates a dataset urlPath into a filesystem path by
// resolving its leading THREDDS root.
func (c *DatasetCatalog) PathOnDisk(urlPath string) (string, error) {
	pos := strings.Index(urlPath, "/")
	if pos < 0 {
		return "", fmt.Errorf("urlPath %q has no dataset root", urlPath)
	}
	root := urlPath[:pos]
	location, ok := c.opts.DatasetRoots[root]
	if !ok {
		return "", fmt.Errorf("unknown dataset root %q in urlPath %q", root, urlPath)
	}
	return filepath.Clean(filepath.Join(location, urlPath[pos+1:])), nil
}

// NetCDFFiles returns the on-disk paths of the files served over
// HTTPServer by this catalog, filtered by the valid-file pattern if one
// is configured.
func (c *DatasetCatalog) NetCDFFiles() ([]string, error) {
	top := c.TopLevelDataset()
	if top == nil {
		return nil, fmt.Errorf("catalog %s has no dataset element", c.inPath)
	}

	var valid *regexp.Regexp
	if c.opts.ValidFilePattern != "" {
		var err error
		valid, err = regexp.Compile(c.opts.ValidFilePattern)
		if err != nil {
			return nil, fmt.Errorf("valid file pattern: %w", err)
		}
	}

	var paths []string
	for _, child := range top.ChildElements() {
		if child.Tag != "dataset" {
			continue
		}
		if child.SelectAttrValue("serviceName", "") != "HTTPServer" {
			continue
		}
		urlPath := child.SelectAttrValue("urlPath", "")
		if urlPath == "" {
			continue
		}
		path, err := c.PathOnDisk(urlPath)
		if err != nil {
			return nil, err
		}
		if valid != nil && !valid.MatchString(filepath.Base(path)) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// AddAggregations partitions this catalog's files, builds an NcML
// aggregation per group and attaches each as a sub-dataset of the
// top-level dataset. Datasets normally produce a single group; when the
// file names split into several a warning is logged and each group is
// published under a numbered ID.
func (c *DatasetCatalog) AddAggregations() error {
	files, err := c.NetCDFFiles()
	if err != nil {
		return err
	}

	keys := partition.Keys(files)
	groups := partition.Partition(files)
	if len(keys) > 1 {
		logging.Warnf("%s: files partition into %d groups, publishing one aggregation each",
			c.DatasetID(), len(keys))
	}

	for i, key := range keys {
		id := c.DatasetID()
		if len(keys) > 1 {
			id = fmt.Sprintf("%s.%d", id, i+1)
		}
		if err := c.addAggregation(id, groups[key]); err != nil {
			return err
		}
	}
	return nil
}

func (c *DatasetCatalog) addAggregation(id string, files []string) error {
	var agg *aggregate.Aggregation
	var err error
	switch c.opts.Aggregation {
	case AggregationAerosol:
		agg, err = aggregate.CreateAerosol(files, c.opts.Dimension, c.opts.Opener)
	default:
		agg, err = aggregate.Create(files, c.opts.Dimension, c.opts.WithCache, c.opts.Opener)
	}
	if err != nil {
		return err
	}

	// Coordinate reads mean the files are accessible, so the merged
	// global attributes can be embedded too. Values are read over the
	// built file order: the earliest file is the representative one.
	if c.opts.WithCache {
		merged, err := attrs.Merge(agg.SortedLocations(), id, c.opts.Opener)
		if err != nil {
			return err
		}
		agg.Attributes = merged.Attributes
		agg.Removals = merged.Removals
	}

	tr := c.Tree
	ds := NewElement("dataset",
		Attr{"name", id},
		Attr{"ID", id},
		Attr{"urlPath", id})

	services := []string{"wms", "OpenDAPServer"}
	if c.opts.WithWCS {
		services = append(services, "wcs")
	}
	for _, name := range services {
		tr.NewChild(ds, "access",
			Attr{"serviceName", name},
			Attr{"urlPath", id})
	}

	// NcML files are grouped under one subdirectory per DRS facet of
	// the catalog file name.
	components := strings.Split(filepath.Base(c.inPath), ".")
	if len(components) > 0 && components[0] == "esacci" {
		components = components[1:]
	}
	if len(components) > 0 && components[len(components)-1] == "xml" {
		components = components[:len(components)-1]
	}
	subDir := filepath.Join(components...)
	basename := id + ".ncml"
	c.aggregations[aggKey{basename, subDir}] = agg

	tr.NewChild(ds, "netcdf",
		Attr{"location", filepath.Join(c.opts.AggregationsDir, subDir, basename)},
		Attr{"xmlns", NcMLNamespace})
	c.TopLevelDataset().AddChild(ds)
	return nil
}

// Apply runs the full set of catalog changes.
func (c *DatasetCatalog) Apply() error {
	c.InsertViewerMetadata()
	c.StripRestrictAccess()
	c.InsertServices()
	return c.AddAggregations()
}

// Write saves the transformed catalog at catalogPath and each NcML
// aggregation under aggDir.
func (c *DatasetCatalog) Write(catalogPath, aggDir string) error {
	if err := c.Tree.Write(catalogPath); err != nil {
		return err
	}
	for key, agg := range c.aggregations {
		dir := filepath.Join(aggDir, key.Subdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := agg.SaveNcML(filepath.Join(dir, key.Basename)); err != nil {
			return err
		}
	}
	return nil
}

// TopLevel is the root catalog that links to each dataset catalog.
type TopLevel struct {
	Tree *Tree
}

// OpenTopLevel parses an existing top-level catalog to use as a template.
func OpenTopLevel(path string) (*TopLevel, error) {
	tree, err := ReadTree(path)
	if err != nil {
		return nil, err
	}
	return &TopLevel{Tree: tree}, nil
}

// AddRef appends a catalogRef entry. An empty title defaults to name.
func (t *TopLevel) AddRef(href, name, title string) {
	if title == "" {
		title = name
	}
	t.Tree.NewChild(t.Tree.Root(), "catalogRef",
		Attr{"xlink:title", title},
		Attr{"xlink:href", href},
		Attr{"name", name})
}

// Write saves the top-level catalog at path.
func (t *TopLevel) Write(path string) error {
	return t.Tree.Write(path)
}
