// Package catalog rewrites THREDDS dataset catalogs: it attaches NcML
// aggregations to each dataset and exposes them through WMS/WCS services.
package catalog

import (
	"fmt"

	"github.com/beevik/etree"
)

const (
	// ThreddsNamespace is the InvCatalog namespace used by THREDDS
	// catalog files.
	ThreddsNamespace = "http://www.unidata.ucar.edu/namespaces/thredds/InvCatalog/v1.0"

	// NcMLNamespace is declared on netcdf elements that reference
	// aggregation files.
	NcMLNamespace = "http://www.unidata.ucar.edu/namespaces/netcdf/ncml-2.2"

	xlinkNamespace = "http://www.w3.org/1999/xlink"
)

// Attr is an ordered attribute for newly created elements. Attribute
// order is preserved in the written output.
type Attr struct {
	Key   string
	Value string
}

// Tree wraps an XML document with the small set of manipulations the
// catalog transforms need.
type Tree struct {
	doc *etree.Document
}

// NewTree returns a Tree containing only an XML declaration and the
// given root element.
func NewTree(rootTag string, attrs ...Attr) *Tree {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootTag)
	for _, a := range attrs {
		root.CreateAttr(a.Key, a.Value)
	}
	return &Tree{doc: doc}
}

// ReadTree parses the XML file at path. The root element gains an
// xmlns:xlink declaration so that xlink attributes added later are valid.
func ReadTree(path string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("read %s: no root element", path)
	}
	if root.SelectAttr("xmlns:xlink") == nil {
		root.CreateAttr("xmlns:xlink", xlinkNamespace)
	}
	return &Tree{doc: doc}, nil
}

// Root returns the document's root element.
func (t *Tree) Root() *etree.Element {
	return t.doc.Root()
}

// Write saves the document at path, indented for readability.
func (t *Tree) Write(path string) error {
	t.doc.Indent(2)
	return t.doc.WriteToFile(path)
}

// NewElement creates a detached element, for callers that position it
// themselves.
func NewElement(tag string, attrs ...Attr) *etree.Element {
	el := etree.NewElement(tag)
	for _, a := range attrs {
		el.CreateAttr(a.Key, a.Value)
	}
	return el
}

// NewChild creates an element under parent. Attribute order follows the
// argument order.
func (t *Tree) NewChild(parent *etree.Element, tag string, attrs ...Attr) *etree.Element {
	el := parent.CreateElement(tag)
	for _, a := range attrs {
		el.CreateAttr(a.Key, a.Value)
	}
	return el
}

// NewTextChild creates an element under parent holding only text.
func (t *Tree) NewTextChild(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}

// InsertBeforeSimilar adds child to parent, placing it before the first
// existing child element whose tag differs from the new one. With no such
// sibling the child is appended.
func (t *Tree) InsertBeforeSimilar(parent, child *etree.Element) {
	for _, existing := range parent.ChildElements() {
		if existing.Tag != child.Tag {
			parent.InsertChildAt(existing.Index(), child)
			return
		}
	}
	parent.AddChild(child)
}

// firstChildElement returns the first child element of parent with the
// given local tag name, ignoring namespace prefixes.
func firstChildElement(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}
