// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// Namespaces assigned well-known prefixes in encoded packets. Anything else
// gets a generated ns1, ns2, ... prefix.
var xmpNamespacePrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":             "dc",
	"http://ns.adobe.com/xap/1.0/":                 "xmp",
	"http://ns.adobe.com/xap/1.0/mm/":              "xmpMM",
	"http://ns.adobe.com/xap/1.0/rights/":          "xmpRights",
	"http://ns.adobe.com/photoshop/1.0/":           "photoshop",
	"http://ns.adobe.com/exif/1.0/":                "exif",
	"http://ns.adobe.com/tiff/1.0/":                "tiff",
	"http://ns.adobe.com/camera-raw-settings/1.0/": "crs",
}

const (
	xmpNamespaceDefault = "http://ns.adobe.com/xap/1.0/"
	xmpNamespaceRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// XmpDatum is a simple XMP property.
type XmpDatum struct {
	Namespace string
	Name      string
	Value     string
}

// XmpData is a collection of simple XMP properties.
type XmpData struct {
	datums []XmpDatum
}

func (d *XmpData) Count() int { return len(d.datums) }

func (d *XmpData) Clear() { d.datums = nil }

func (d *XmpData) Datums() []XmpDatum { return d.datums }

// Set stores a property in the XMP basic namespace, replacing any existing
// value with the same name.
func (d *XmpData) Set(name, value string) {
	d.SetNS(xmpNamespaceDefault, name, value)
}

// SetNS stores a property under an explicit namespace.
func (d *XmpData) SetNS(namespace, name, value string) {
	for i, datum := range d.datums {
		if datum.Namespace == namespace && datum.Name == name {
			d.datums[i].Value = value
			return
		}
	}
	d.datums = append(d.datums, XmpDatum{Namespace: namespace, Name: name, Value: value})
}

// Get returns the first property stored under name, in any namespace.
func (d *XmpData) Get(name string) (string, bool) {
	for _, datum := range d.datums {
		if datum.Name == name {
			return datum.Value, true
		}
	}
	return "", false
}

// XML shapes of an XMP packet: x:xmpmeta wrapping rdf:RDF wrapping
// rdf:Description elements whose attributes are simple properties. The
// common dc list containers are flattened to joined strings.
type xmpMeta struct {
	XMLName xml.Name
	RDF     xmpRDF `xml:"RDF"`
}

type xmpRDF struct {
	XMLName      xml.Name
	Descriptions []xmpDescription `xml:"Description"`
}

type xmpDescription struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`

	Creator   xmpSeqList `xml:"creator"`
	Publisher xmpBagList `xml:"publisher"`
	Subject   xmpBagList `xml:"subject"`
	Rights    xmpAltList `xml:"rights"`
}

type xmpSeqList struct {
	XMLName xml.Name
	Seq     struct {
		Items []string `xml:"li"`
	} `xml:"Seq"`
}

type xmpBagList struct {
	XMLName xml.Name
	Bag     struct {
		Items []string `xml:"li"`
	} `xml:"Bag"`
}

type xmpAltList struct {
	XMLName xml.Name
	Alt     struct {
		Items []string `xml:"li"`
	} `xml:"Alt"`
}

// DecodeXmp parses an XMP packet into simple properties. List containers
// with a single item collapse to that item; longer lists join with ", ".
func DecodeXmp(packet string) (XmpData, error) {
	var d XmpData

	var meta xmpMeta
	if err := xml.NewDecoder(strings.NewReader(packet)).Decode(&meta); err != nil {
		return d, fmt.Errorf("decoding XMP: %w", err)
	}

	addList := func(name xml.Name, items []string) {
		if len(items) == 0 || name.Local == "" {
			return
		}
		d.datums = append(d.datums, XmpDatum{
			Namespace: name.Space,
			Name:      name.Local,
			Value:     strings.Join(items, ", "),
		})
	}

	for _, desc := range meta.RDF.Descriptions {
		for _, attr := range desc.Attrs {
			if attr.Name.Space == "xmlns" || attr.Name.Space == xmpNamespaceRDF {
				continue
			}
			d.datums = append(d.datums, XmpDatum{
				Namespace: attr.Name.Space,
				Name:      attr.Name.Local,
				Value:     attr.Value,
			})
		}

		addList(desc.Creator.XMLName, desc.Creator.Seq.Items)
		addList(desc.Publisher.XMLName, desc.Publisher.Bag.Items)
		addList(desc.Subject.XMLName, desc.Subject.Bag.Items)
		addList(desc.Rights.XMLName, desc.Rights.Alt.Items)
	}

	return d, nil
}

// EncodeXmp produces a canonical packet: a single rdf:Description carrying
// every property as an attribute, sorted by prefix and name so repeated
// encodes are byte-identical. An empty collection encodes to an empty
// packet.
func EncodeXmp(d XmpData) (string, error) {
	if d.Count() == 0 {
		return "", nil
	}

	prefixes := map[string]string{}
	generated := 0
	prefixFor := func(namespace string) string {
		if p, ok := prefixes[namespace]; ok {
			return p
		}
		p, ok := xmpNamespacePrefixes[namespace]
		if !ok {
			generated++
			p = fmt.Sprintf("ns%d", generated)
		}
		prefixes[namespace] = p
		return p
	}

	type attr struct {
		prefix, name, value string
	}
	attrs := make([]attr, 0, len(d.datums))
	for _, datum := range d.datums {
		ns := datum.Namespace
		if ns == "" {
			ns = xmpNamespaceDefault
		}
		attrs = append(attrs, attr{prefix: prefixFor(ns), name: datum.Name, value: datum.Value})
	}
	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].prefix != attrs[j].prefix {
			return attrs[i].prefix < attrs[j].prefix
		}
		return attrs[i].name < attrs[j].name
	})

	decls := make([]string, 0, len(prefixes))
	for namespace, prefix := range prefixes {
		decls = append(decls, fmt.Sprintf(`xmlns:%s=%q`, prefix, namespace))
	}
	sort.Strings(decls)

	var sb strings.Builder
	sb.WriteString(`<?xpacket begin="` + "\ufeff" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>`)
	sb.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">`)
	sb.WriteString(`<rdf:RDF xmlns:rdf="` + xmpNamespaceRDF + `">`)
	sb.WriteString(`<rdf:Description rdf:about=""`)
	for _, decl := range decls {
		sb.WriteString(" " + decl)
	}
	for _, a := range attrs {
		sb.WriteString(fmt.Sprintf(` %s:%s="%s"`, a.prefix, a.name, xmlEscapeAttr(a.value)))
	}
	sb.WriteString(`/></rdf:RDF></x:xmpmeta>`)
	sb.WriteString(`<?xpacket end="w"?>`)

	return sb.String(), nil
}

func xmlEscapeAttr(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
