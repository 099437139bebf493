package ncdf

import (
	"fmt"
	"strconv"
)

// Memory is an in-memory Opener used in tests and dry runs.
type Memory struct {
	Files map[string]*MemoryFile

	// Opened records every path passed to Open, in order. Lets tests assert
	// that no-cache aggregation performs no file access at all.
	Opened []string
}

// MemoryFile is the in-memory stand-in for one NetCDF file.
type MemoryFile struct {
	// Attrs maps global attribute names to values (string or float64).
	Attrs map[string]any

	// Coords maps dimension name to its coordinate variable.
	Coords map[string]MemoryCoord
}

// MemoryCoord is an in-memory coordinate variable.
type MemoryCoord struct {
	Units  string
	Values []float64
}

// NewMemory returns an empty in-memory Opener.
func NewMemory() *Memory {
	return &Memory{Files: map[string]*MemoryFile{}}
}

// Add registers a file under the given path and returns it for further setup.
func (m *Memory) Add(path string) *MemoryFile {
	f := &MemoryFile{
		Attrs:  map[string]any{},
		Coords: map[string]MemoryCoord{},
	}
	m.Files[path] = f
	return f
}

// SetCoord sets the coordinate variable for a dimension.
func (f *MemoryFile) SetCoord(dimension, units string, values ...float64) *MemoryFile {
	f.Coords[dimension] = MemoryCoord{Units: units, Values: values}
	return f
}

// SetAttr sets a global attribute.
func (f *MemoryFile) SetAttr(name string, value any) *MemoryFile {
	f.Attrs[name] = value
	return f
}

func (m *Memory) Open(path string) (Dataset, error) {
	m.Opened = append(m.Opened, path)
	f, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return &memoryDataset{file: f, path: path}, nil
}

type memoryDataset struct {
	file *MemoryFile
	path string
}

func (d *memoryDataset) Attr(name string) (string, bool) {
	val, ok := d.file.Attrs[name]
	if !ok {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	default:
		return fmt.Sprint(v), true
	}
}

func (d *memoryDataset) FloatAttr(name string) (float64, bool) {
	val, ok := d.file.Attrs[name]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (d *memoryDataset) Coordinate(dimension string) (string, float64, error) {
	coord, ok := d.file.Coords[dimension]
	if !ok {
		return "", 0, &VarNotFoundError{Variable: dimension, Path: d.path}
	}
	if len(coord.Values) != 1 {
		return "", 0, &ShapeError{Variable: dimension, Path: d.path, Len: len(coord.Values)}
	}
	return coord.Units, coord.Values[0], nil
}

func (d *memoryDataset) Close() error { return nil }
