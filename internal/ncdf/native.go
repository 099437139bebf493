package ncdf

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Native opens real NetCDF files from disk.
type Native struct{}

func (Native) Open(path string) (Dataset, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &nativeDataset{group: group, path: path}, nil
}

type nativeDataset struct {
	group api.Group
	path  string
}

func (d *nativeDataset) Attr(name string) (string, bool) {
	val, has := d.group.Attributes().Get(name)
	if !has {
		return "", false
	}
	return stringValue(val)
}

func (d *nativeDataset) FloatAttr(name string) (float64, bool) {
	val, has := d.group.Attributes().Get(name)
	if !has {
		return 0, false
	}
	return floatValue(val)
}

func (d *nativeDataset) Coordinate(dimension string) (string, float64, error) {
	variable, err := d.group.GetVariable(dimension)
	if err != nil {
		return "", 0, &VarNotFoundError{Variable: dimension, Path: d.path}
	}

	rv := reflect.ValueOf(variable.Values)
	if rv.Kind() != reflect.Slice {
		return "", 0, &ShapeError{Variable: dimension, Path: d.path, Len: 0}
	}
	if rv.Len() != 1 {
		return "", 0, &ShapeError{Variable: dimension, Path: d.path, Len: rv.Len()}
	}

	value, ok := floatValue(rv.Index(0).Interface())
	if !ok {
		return "", 0, fmt.Errorf("coordinate %q in file %q is not numeric", dimension, d.path)
	}

	units := ""
	if variable.Attributes != nil {
		if u, has := variable.Attributes.Get("units"); has {
			units, _ = stringValue(u)
		}
	}
	return units, value, nil
}

func (d *nativeDataset) Close() error {
	d.group.Close()
	return nil
}

// stringValue converts an attribute value to a string. NetCDF string
// attributes come back either as a plain string or a one-element slice.
func stringValue(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case []string:
		if len(v) == 1 {
			return v[0], true
		}
	}
	rv := reflect.ValueOf(val)
	if rv.IsValid() && rv.Kind() != reflect.Slice {
		return fmt.Sprint(val), true
	}
	return "", false
}

// floatValue converts a numeric attribute or coordinate value to float64,
// unwrapping one-element slices and parsing numeric strings.
func floatValue(val any) (float64, bool) {
	rv := reflect.ValueOf(val)
	if !rv.IsValid() {
		return 0, false
	}
	if rv.Kind() == reflect.Slice {
		if rv.Len() != 1 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.String:
		f, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
