// Package ncdf is the read boundary for NetCDF files.
//
// The aggregation code only ever needs two things from a file: global
// attributes and the scalar value of one coordinate variable. Dataset
// exposes exactly that, and Opener abstracts how files are opened so that
// tests (and dry runs) can substitute an in-memory implementation, the same
// way online fetchers have dummy counterparts elsewhere in this codebase.
package ncdf

import "fmt"

// Dataset is read-only access to one open NetCDF file. Implementations hold
// one file handle; callers must Close when done.
type Dataset interface {
	// Attr returns a global attribute as a string. The second return is
	// false when the attribute is absent.
	Attr(name string) (string, bool)

	// FloatAttr returns a numeric global attribute. Attributes stored as
	// strings are parsed; the second return is false when the attribute is
	// absent or not numeric.
	FloatAttr(name string) (float64, bool)

	// Coordinate returns the units and scalar value of the coordinate
	// variable for the named dimension. units is "" when the variable has
	// no units attribute (not an error). It fails with *VarNotFoundError
	// when the variable is absent and *ShapeError when its shape is not
	// exactly one element.
	Coordinate(dimension string) (units string, value float64, err error)

	Close() error
}

// Opener opens NetCDF files by path.
type Opener interface {
	Open(path string) (Dataset, error)
}

// VarNotFoundError indicates the named variable does not exist in the file.
type VarNotFoundError struct {
	Variable string
	Path     string
}

func (e *VarNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found in file %q", e.Variable, e.Path)
}

// ShapeError indicates a coordinate variable does not hold exactly one value.
type ShapeError struct {
	Variable string
	Path     string
	Len      int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape of %q variable in file %q is (%d,) - should be (1,)", e.Variable, e.Path, e.Len)
}
