// Package scanner locates NetCDF files and catalog references to them.
package scanner

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatasetRoots maps known THREDDS dataset roots to their paths on
// disk. Roots found in a catalog's urlPath attributes are replaced with
// these locations.
var DefaultDatasetRoots = map[string]string{
	"esg_esacci": "/neodc/esacci",
}

// Walk returns the paths of all NetCDF files (*.nc) under root, in
// lexical walk order.
func Walk(root string) ([]string, error) {
	var results []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(info.Name()), ".nc") {
			results = append(results, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindNetCDFReferences parses a THREDDS catalog and returns the file paths
// referenced by <dataset> urlPath attributes, with known dataset roots
// replaced by their on-disk locations.
func FindNetCDFReferences(catalogPath string, datasetRoots map[string]string) ([]string, error) {
	var paths []string
	err := forEachElement(catalogPath, "dataset", func(attrs map[string]string) {
		urlPath, ok := attrs["urlPath"]
		if !ok {
			return
		}
		for root, location := range datasetRoots {
			if strings.HasPrefix(urlPath, root+"/") {
				urlPath = location + strings.TrimPrefix(urlPath, root)
				break
			}
		}
		paths = append(paths, urlPath)
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// FindNcMLReferences parses a THREDDS catalog and returns the paths of all
// referenced NcML aggregation files, relative to aggregationsDir.
func FindNcMLReferences(catalogPath, aggregationsDir string) ([]string, error) {
	var paths []string
	err := forEachElement(catalogPath, "netcdf", func(attrs map[string]string) {
		location, ok := attrs["location"]
		if !ok {
			return
		}
		if rel, err := filepath.Rel(aggregationsDir, location); err == nil {
			paths = append(paths, rel)
		}
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// forEachElement streams an XML file and calls fn with the attributes of
// every element whose local name matches name, regardless of namespace.
func forEachElement(path, name string, fn func(attrs map[string]string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse catalog: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != name {
			continue
		}
		attrs := make(map[string]string, len(start.Attr))
		for _, a := range start.Attr {
			attrs[a.Name.Local] = a.Value
		}
		fn(attrs)
	}
}
