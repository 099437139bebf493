package aggregate

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// NcMLNamespace is the NcML 2.2 schema namespace.
const NcMLNamespace = "http://www.unidata.ucar.edu/namespaces/netcdf/ncml-2.2"

type ncmlAttribute struct {
	XMLName xml.Name `xml:"attribute"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
	Type    string   `xml:"type,attr,omitempty"`
}

type ncmlRemove struct {
	XMLName xml.Name `xml:"remove"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
}

type ncmlVariable struct {
	XMLName xml.Name `xml:"variable"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr,omitempty"`
	Shape   string   `xml:"shape,attr,omitempty"`
	Attrs   []ncmlAttribute
}

type ncmlFile struct {
	XMLName    xml.Name `xml:"netcdf"`
	Location   string   `xml:"location,attr"`
	CoordValue string   `xml:"coordValue,attr,omitempty"`
}

type ncmlAggregation struct {
	XMLName         xml.Name `xml:"aggregation"`
	DimName         string   `xml:"dimName,attr"`
	Type            string   `xml:"type,attr"`
	TimeUnitsChange string   `xml:"timeUnitsChange,attr,omitempty"`
	Files           []ncmlFile
}

type ncmlRoot struct {
	XMLName     xml.Name `xml:"netcdf"`
	Xmlns       string   `xml:"xmlns,attr"`
	Attributes  []ncmlAttribute
	Removes     []ncmlRemove
	Variables   []ncmlVariable
	Aggregation ncmlAggregation
}

// NcML renders the aggregation as an indented NcML document with XML prolog.
func (a *Aggregation) NcML() ([]byte, error) {
	kind := a.Kind
	if kind == "" {
		kind = JoinExisting
	}
	root := ncmlRoot{
		Xmlns: NcMLNamespace,
		Aggregation: ncmlAggregation{
			DimName: a.Dimension,
			Type:    kind,
		},
	}

	// timeUnitsChange only makes sense for time aggregations
	if a.TimeUnitsChange && a.Dimension == "time" {
		root.Aggregation.TimeUnitsChange = "true"
	}

	for _, v := range a.Variables {
		nv := ncmlVariable{Name: v.Name, Type: v.Type, Shape: v.Shape}
		for _, attr := range v.Attrs {
			nv.Attrs = append(nv.Attrs, ncmlAttribute{
				Name:  attr.Name,
				Value: attr.Value,
				Type:  attr.Type,
			})
		}
		root.Variables = append(root.Variables, nv)
	}

	for _, attr := range a.Attributes {
		root.Attributes = append(root.Attributes, ncmlAttribute{
			Name:  attr.Name,
			Value: attr.Value,
			Type:  attr.Type,
		})
	}
	for _, name := range a.Removals {
		root.Removes = append(root.Removes, ncmlRemove{Name: name, Type: "attribute"})
	}
	for _, f := range a.Files {
		root.Aggregation.Files = append(root.Aggregation.Files, ncmlFile{
			Location:   f.Location,
			CoordValue: f.CoordValue,
		})
	}

	body, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal NcML: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteNcML renders the aggregation and writes it to w.
func (a *Aggregation) WriteNcML(w io.Writer) error {
	doc, err := a.NcML()
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// SaveNcML writes the aggregation to a file, creating parent directories.
func (a *Aggregation) SaveNcML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	doc, err := a.NcML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, doc, 0o644)
}
