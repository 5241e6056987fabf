// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// IPTC IIM: a sequence of records, each introduced by a 0x1C marker byte
// followed by record number, dataset number and a big-endian payload size.
const (
	iptcMarker = 0x1c

	iptcEnvelopeRecord    = 1
	iptcApplicationRecord = 2

	iptcDataSetCharacterSet = 90

	// Extended (high bit) dataset sizes are not supported.
	iptcMaxDataSetSize = 0x7fff
)

// iptcUTF8Escape marks the coded character set as UTF-8 (ESC % G).
var iptcUTF8Escape = []byte{0x1b, 0x25, 0x47}

// IptcDatum is a single IIM dataset value.
//
// Value holds string for textual datasets, uint16 for binary shorts and
// []byte for anything opaque.
type IptcDatum struct {
	Record  uint8
	DataSet uint8
	Value   any
}

// Name returns the dataset name, falling back to "Record.DataSet" digits
// for unknown datasets.
func (d IptcDatum) Name() string {
	var field iptcField
	var ok bool
	switch d.Record {
	case iptcEnvelopeRecord:
		field, ok = iptcEnvelopeFields[d.DataSet]
	case iptcApplicationRecord:
		field, ok = iptcApplicationFields[d.DataSet]
	}
	if !ok {
		return fmt.Sprintf("%d.%d", d.Record, d.DataSet)
	}
	return field.name
}

// IptcData is an ordered collection of IIM datums. Order is preserved from
// decode to encode; repeatable datasets may occur more than once.
type IptcData struct {
	datums []IptcDatum
}

func (d *IptcData) Count() int { return len(d.datums) }

func (d *IptcData) Clear() { d.datums = nil }

func (d *IptcData) Datums() []IptcDatum { return d.datums }

// Add appends a datum without replacement.
func (d *IptcData) Add(datum IptcDatum) {
	d.datums = append(d.datums, datum)
}

// SetString stores an application record string dataset by name, e.g.
// "City". Non-repeatable datasets replace an existing value; repeatable
// ones append.
func (d *IptcData) SetString(name, value string) error {
	id, ok := iptcApplicationTagsByName[name]
	if !ok {
		return fmt.Errorf("unknown IPTC dataset %q", name)
	}
	if !iptcApplicationFields[id].repeatable {
		for i, datum := range d.datums {
			if datum.Record == iptcApplicationRecord && datum.DataSet == id {
				d.datums[i].Value = value
				return nil
			}
		}
	}
	d.datums = append(d.datums, IptcDatum{Record: iptcApplicationRecord, DataSet: id, Value: value})
	return nil
}

// GetString returns the first application record value stored under name.
func (d *IptcData) GetString(name string) (string, bool) {
	id, ok := iptcApplicationTagsByName[name]
	if !ok {
		return "", false
	}
	for _, datum := range d.datums {
		if datum.Record == iptcApplicationRecord && datum.DataSet == id {
			if s, ok := datum.Value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// DecodeIptc parses an IIM byte stream. Strings are decoded as UTF-8 when
// the envelope declares it and as ISO 8859-1 otherwise.
func DecodeIptc(b []byte) (IptcData, error) {
	var d IptcData

	utf8Charset := false
	latin1 := charmap.ISO8859_1.NewDecoder()

	off := 0
	for off < len(b) {
		if b[off] != iptcMarker {
			return IptcData{}, fmt.Errorf("invalid IPTC record marker 0x%02x at %d", b[off], off)
		}
		if off+5 > len(b) {
			return IptcData{}, fmt.Errorf("truncated IPTC record header at %d", off)
		}
		record := b[off+1]
		dataSet := b[off+2]
		size := int(b[off+3])<<8 | int(b[off+4])
		if size > iptcMaxDataSetSize {
			return IptcData{}, fmt.Errorf("extended IPTC dataset size at %d not supported", off)
		}
		off += 5
		if off+size > len(b) {
			return IptcData{}, fmt.Errorf("IPTC dataset runs past end (%d+%d > %d)", off, size, len(b))
		}
		val := b[off : off+size]
		off += size

		if record == iptcEnvelopeRecord && dataSet == iptcDataSetCharacterSet {
			utf8Charset = bytes.Equal(val, iptcUTF8Escape)
			raw := make([]byte, len(val))
			copy(raw, val)
			d.datums = append(d.datums, IptcDatum{Record: record, DataSet: dataSet, Value: raw})
			continue
		}

		var field iptcField
		var known bool
		switch record {
		case iptcEnvelopeRecord:
			field, known = iptcEnvelopeFields[dataSet]
		case iptcApplicationRecord:
			field, known = iptcApplicationFields[dataSet]
		}

		var v any
		switch {
		case known && field.format == "string":
			if utf8Charset {
				v = string(val)
			} else {
				decoded, err := latin1.Bytes(val)
				if err != nil {
					return IptcData{}, err
				}
				v = string(decoded)
			}
		case known && field.format == "uint16" && size == 2:
			v = uint16(val[0])<<8 | uint16(val[1])
		default:
			raw := make([]byte, len(val))
			copy(raw, val)
			v = raw
		}
		d.datums = append(d.datums, IptcDatum{Record: record, DataSet: dataSet, Value: v})
	}

	return d, nil
}

// EncodeIptc produces an IIM byte stream from the datums in order. Strings
// are written as UTF-8; a CodedCharacterSet marker is prepended when the
// datums don't already carry one.
func EncodeIptc(d IptcData) ([]byte, error) {
	if d.Count() == 0 {
		return nil, nil
	}

	hasCharset := false
	for _, datum := range d.datums {
		if datum.Record == iptcEnvelopeRecord && datum.DataSet == iptcDataSetCharacterSet {
			hasCharset = true
			break
		}
	}

	var out []byte
	appendRecord := func(record, dataSet uint8, val []byte) error {
		if len(val) > iptcMaxDataSetSize {
			return fmt.Errorf("IPTC dataset %d.%d of %d bytes", record, dataSet, len(val))
		}
		out = append(out, iptcMarker, record, dataSet, byte(len(val)>>8), byte(len(val)))
		out = append(out, val...)
		return nil
	}

	if !hasCharset {
		if err := appendRecord(iptcEnvelopeRecord, iptcDataSetCharacterSet, iptcUTF8Escape); err != nil {
			return nil, err
		}
	}

	for _, datum := range d.datums {
		var val []byte
		switch v := datum.Value.(type) {
		case string:
			val = []byte(v)
		case uint16:
			val = []byte{byte(v >> 8), byte(v)}
		case []byte:
			val = v
		default:
			return nil, fmt.Errorf("IPTC dataset %d.%d: unsupported value type %T", datum.Record, datum.DataSet, datum.Value)
		}
		if err := appendRecord(datum.Record, datum.DataSet, val); err != nil {
			return nil, err
		}
	}

	return out, nil
}
