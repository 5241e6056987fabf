// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// ExifType is a TIFF tag data type.
type ExifType uint16

const (
	ExifTypeByte      ExifType = 1
	ExifTypeASCII     ExifType = 2
	ExifTypeShort     ExifType = 3
	ExifTypeLong      ExifType = 4
	ExifTypeRational  ExifType = 5
	ExifTypeUndefined ExifType = 7
)

// Size in bytes of each type.
var exifTypeSize = map[ExifType]uint32{
	ExifTypeByte:      1,
	ExifTypeASCII:     1,
	ExifTypeShort:     2,
	ExifTypeLong:      4,
	ExifTypeRational:  8,
	ExifTypeUndefined: 1,
}

const (
	tiffByteOrderBigEndian    = 0x4d4d
	tiffByteOrderLittleEndian = 0x4949
	tiffMagic                 = 42

	// Value counts beyond this are treated as hostile.
	maxExifValueCount = 0x10000
)

// ExifDatum is a single decoded tag value.
//
// Value holds string for ASCII, uint16/[]uint16 for SHORT, uint32/[]uint32
// for LONG, Rat[uint32]/[]Rat[uint32] for RATIONAL and []byte for BYTE and
// UNDEFINED.
type ExifDatum struct {
	Group string
	Tag   uint16
	Type  ExifType
	Value any
}

// Key returns the datum's name as "Group.TagName", falling back to the hex
// tag ID for unknown tags.
func (d ExifDatum) Key() string {
	if name, ok := exifFieldsByGroup[d.Group][d.Tag]; ok {
		return d.Group + "." + name
	}
	return fmt.Sprintf("%s.0x%04x", d.Group, d.Tag)
}

// ExifData is an ordered collection of Exif datums.
type ExifData struct {
	datums []ExifDatum
}

// Count returns the number of datums held.
func (d *ExifData) Count() int { return len(d.datums) }

// Clear removes all datums.
func (d *ExifData) Clear() { d.datums = nil }

// Datums returns the underlying datum slice.
func (d *ExifData) Datums() []ExifDatum { return d.datums }

// Add inserts a datum, replacing any existing datum with the same group and
// tag.
func (d *ExifData) Add(datum ExifDatum) {
	for i, existing := range d.datums {
		if existing.Group == datum.Group && existing.Tag == datum.Tag {
			d.datums[i] = datum
			return
		}
	}
	d.datums = append(d.datums, datum)
}

// Set stores a value under a "Group.TagName" key, e.g. "Image.Artist". The
// TIFF type is inferred from the Go type of v.
func (d *ExifData) Set(key string, v any) error {
	group, name, ok := strings.Cut(key, ".")
	if !ok {
		return fmt.Errorf("invalid Exif key %q", key)
	}
	tags, ok := exifTagsByGroup[group]
	if !ok {
		return fmt.Errorf("unknown Exif group %q", group)
	}
	tag, ok := tags[name]
	if !ok {
		return fmt.Errorf("unknown Exif tag %q", key)
	}

	typ, err := exifTypeOf(v)
	if err != nil {
		return fmt.Errorf("Exif tag %q: %w", key, err)
	}
	d.Add(ExifDatum{Group: group, Tag: tag, Type: typ, Value: v})
	return nil
}

// Get returns the datum stored under a "Group.TagName" key.
func (d *ExifData) Get(key string) (ExifDatum, bool) {
	for _, datum := range d.datums {
		if datum.Key() == key {
			return datum, true
		}
	}
	return ExifDatum{}, false
}

// Delete removes the datum stored under key.
func (d *ExifData) Delete(key string) {
	for i, datum := range d.datums {
		if datum.Key() == key {
			d.datums = append(d.datums[:i], d.datums[i+1:]...)
			return
		}
	}
}

func (d *ExifData) group(group string) []ExifDatum {
	var out []ExifDatum
	for _, datum := range d.datums {
		if datum.Group == group {
			out = append(out, datum)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func exifTypeOf(v any) (ExifType, error) {
	switch v.(type) {
	case string:
		return ExifTypeASCII, nil
	case uint16, []uint16:
		return ExifTypeShort, nil
	case uint32, []uint32:
		return ExifTypeLong, nil
	case Rat[uint32], []Rat[uint32]:
		return ExifTypeRational, nil
	case []byte:
		return ExifTypeUndefined, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

// DecodeExif parses a TIFF stream into datums, following the Exif and GPS
// sub-IFD pointers out of IFD0. The thumbnail IFD is not read.
func DecodeExif(b []byte) (ExifData, binary.ByteOrder, error) {
	var d ExifData

	if len(b) < 8 {
		return d, nil, fmt.Errorf("TIFF stream of %d bytes", len(b))
	}

	var byteOrder binary.ByteOrder
	switch uint16(b[0])<<8 | uint16(b[1]) {
	case tiffByteOrderBigEndian:
		byteOrder = binary.BigEndian
	case tiffByteOrderLittleEndian:
		byteOrder = binary.LittleEndian
	default:
		return d, nil, fmt.Errorf("unknown TIFF byte order %x %x", b[0], b[1])
	}
	if byteOrder.Uint16(b[2:4]) != tiffMagic {
		return d, nil, fmt.Errorf("bad TIFF magic")
	}

	dec := &exifDecoder{b: b, byteOrder: byteOrder}
	ifd0 := byteOrder.Uint32(b[4:8])
	if err := dec.decodeIFD(ifd0, exifGroupImage); err != nil {
		return d, nil, err
	}
	d.datums = dec.datums
	return d, byteOrder, nil
}

type exifDecoder struct {
	b         []byte
	byteOrder binary.ByteOrder
	datums    []ExifDatum
}

func (e *exifDecoder) decodeIFD(offset uint32, group string) error {
	end, err := safeAdd(offset, 2)
	if err != nil || int64(end) > int64(len(e.b)) {
		return fmt.Errorf("IFD offset %d out of range", offset)
	}
	n := e.byteOrder.Uint16(e.b[offset:])

	entry := offset + 2
	for i := 0; i < int(n); i++ {
		if int64(entry)+12 > int64(len(e.b)) {
			return fmt.Errorf("IFD entry at %d out of range", entry)
		}
		if err := e.decodeEntry(entry, group); err != nil {
			return err
		}
		entry += 12
	}
	return nil
}

func (e *exifDecoder) decodeEntry(off uint32, group string) error {
	bo := e.byteOrder
	tag := bo.Uint16(e.b[off:])
	typ := ExifType(bo.Uint16(e.b[off+2:]))
	count := bo.Uint32(e.b[off+4:])

	// Sub-IFD pointers out of IFD0 become their own groups.
	if group == exifGroupImage && (tag == tagExifIFDPointer || tag == tagGPSInfoPointer) {
		ptr := bo.Uint32(e.b[off+8:])
		sub := exifGroupPhoto
		if tag == tagGPSInfoPointer {
			sub = exifGroupGPSInfo
		}
		return e.decodeIFD(ptr, sub)
	}

	size, ok := exifTypeSize[typ]
	if !ok {
		return fmt.Errorf("unknown Exif type %d", typ)
	}
	if count > maxExifValueCount {
		return fmt.Errorf("Exif value count %d", count)
	}
	valLen := size * count

	var val []byte
	if valLen <= 4 {
		val = e.b[off+8 : off+8+valLen]
	} else {
		ptr := bo.Uint32(e.b[off+8:])
		end, err := safeAdd(ptr, valLen)
		if err != nil || int64(end) > int64(len(e.b)) {
			return fmt.Errorf("Exif value at %d+%d out of range", ptr, valLen)
		}
		val = e.b[ptr:end]
	}

	v, err := decodeExifValue(typ, count, val, bo)
	if err != nil {
		return err
	}
	e.datums = append(e.datums, ExifDatum{Group: group, Tag: tag, Type: typ, Value: v})
	return nil
}

func decodeExifValue(typ ExifType, count uint32, val []byte, bo binary.ByteOrder) (any, error) {
	switch typ {
	case ExifTypeASCII:
		return string(trimBytesNulls(val)), nil
	case ExifTypeByte, ExifTypeUndefined:
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	case ExifTypeShort:
		if count == 1 {
			return bo.Uint16(val), nil
		}
		out := make([]uint16, count)
		for i := range out {
			out[i] = bo.Uint16(val[2*i:])
		}
		return out, nil
	case ExifTypeLong:
		if count == 1 {
			return bo.Uint32(val), nil
		}
		out := make([]uint32, count)
		for i := range out {
			out[i] = bo.Uint32(val[4*i:])
		}
		return out, nil
	case ExifTypeRational:
		if count == 1 {
			return decodeRat(val, bo), nil
		}
		out := make([]Rat[uint32], count)
		for i := range out {
			out[i] = decodeRat(val[8*i:], bo)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unhandled Exif type %d", typ)
	}
}

func decodeRat(val []byte, bo binary.ByteOrder) Rat[uint32] {
	num, den := bo.Uint32(val), bo.Uint32(val[4:])
	if den == 0 {
		den = 1
	}
	return NewRat[uint32](num, den)
}

// EncodeExif produces a TIFF stream in the given byte order: IFD0 followed
// by the Exif and GPS sub-IFDs when their groups hold datums. Entries are
// sorted by tag so repeated encodes are byte-identical.
func EncodeExif(d ExifData, byteOrder binary.ByteOrder) ([]byte, error) {
	image := d.group(exifGroupImage)
	photo := d.group(exifGroupPhoto)
	gps := d.group(exifGroupGPSInfo)

	if len(image)+len(photo)+len(gps) == 0 {
		return nil, nil
	}

	enc := &exifEncoder{byteOrder: appendByteOrder(byteOrder)}

	ifd0, err := enc.prepare(image)
	if err != nil {
		return nil, err
	}
	photoIFD, err := enc.prepare(photo)
	if err != nil {
		return nil, err
	}
	gpsIFD, err := enc.prepare(gps)
	if err != nil {
		return nil, err
	}

	// Sub-IFD pointers are materialised as LONG entries in IFD0; their
	// values depend only on block sizes, so compute the layout first.
	if len(photoIFD) > 0 {
		ifd0 = append(ifd0, encodedEntry{tag: tagExifIFDPointer, typ: ExifTypeLong, count: 1})
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, encodedEntry{tag: tagGPSInfoPointer, typ: ExifTypeLong, count: 1})
	}
	sort.Slice(ifd0, func(i, j int) bool { return ifd0[i].tag < ifd0[j].tag })

	const headerSize = 8
	ifd0Start := uint32(headerSize)
	photoStart := ifd0Start + ifdBlockSize(ifd0)
	gpsStart := photoStart + ifdBlockSize(photoIFD)

	for i := range ifd0 {
		switch ifd0[i].tag {
		case tagExifIFDPointer:
			if ifd0[i].data == nil && len(photoIFD) > 0 {
				ifd0[i] = encodedEntry{tag: tagExifIFDPointer, typ: ExifTypeLong, count: 1, data: enc.uint32Bytes(photoStart)}
			}
		case tagGPSInfoPointer:
			if ifd0[i].data == nil && len(gpsIFD) > 0 {
				ifd0[i] = encodedEntry{tag: tagGPSInfoPointer, typ: ExifTypeLong, count: 1, data: enc.uint32Bytes(gpsStart)}
			}
		}
	}

	out := make([]byte, 0, int(gpsStart)+int(ifdBlockSize(gpsIFD)))
	if byteOrder == binary.ByteOrder(binary.BigEndian) {
		out = append(out, 'M', 'M')
	} else {
		out = append(out, 'I', 'I')
	}
	out = enc.byteOrder.AppendUint16(out, tiffMagic)
	out = enc.byteOrder.AppendUint32(out, ifd0Start)

	out = enc.appendIFD(out, ifd0, ifd0Start)
	out = enc.appendIFD(out, photoIFD, photoStart)
	out = enc.appendIFD(out, gpsIFD, gpsStart)

	return out, nil
}

type encodedEntry struct {
	tag   uint16
	typ   ExifType
	count uint32
	data  []byte
}

type exifEncoder struct {
	byteOrder binary.AppendByteOrder
}

// appendByteOrder widens a ByteOrder to the append-capable stdlib variant.
func appendByteOrder(bo binary.ByteOrder) binary.AppendByteOrder {
	if bo == binary.ByteOrder(binary.BigEndian) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e *exifEncoder) uint32Bytes(v uint32) []byte {
	return e.byteOrder.AppendUint32(nil, v)
}

func (e *exifEncoder) prepare(datums []ExifDatum) ([]encodedEntry, error) {
	var entries []encodedEntry
	for _, d := range datums {
		entry, err := e.entry(d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *exifEncoder) entry(d ExifDatum) (encodedEntry, error) {
	bo := e.byteOrder
	var data []byte
	var count uint32

	switch v := d.Value.(type) {
	case string:
		data = append([]byte(v), 0)
		count = uint32(len(data))
	case uint16:
		data = bo.AppendUint16(nil, v)
		count = 1
	case []uint16:
		for _, u := range v {
			data = bo.AppendUint16(data, u)
		}
		count = uint32(len(v))
	case uint32:
		data = bo.AppendUint32(nil, v)
		count = 1
	case []uint32:
		for _, u := range v {
			data = bo.AppendUint32(data, u)
		}
		count = uint32(len(v))
	case Rat[uint32]:
		data = bo.AppendUint32(nil, v.Num())
		data = bo.AppendUint32(data, v.Den())
		count = 1
	case []Rat[uint32]:
		for _, r := range v {
			data = bo.AppendUint32(data, r.Num())
			data = bo.AppendUint32(data, r.Den())
		}
		count = uint32(len(v))
	case []byte:
		data = v
		count = uint32(len(v))
	default:
		return encodedEntry{}, fmt.Errorf("Exif tag 0x%04x: unsupported value type %T", d.Tag, d.Value)
	}

	typ := d.Type
	if typ == 0 {
		var err error
		if typ, err = exifTypeOf(d.Value); err != nil {
			return encodedEntry{}, err
		}
	}
	return encodedEntry{tag: d.Tag, typ: typ, count: count, data: data}, nil
}

// ifdBlockSize is the size of an encoded IFD: the entry table plus the
// out-of-line value area, values padded to even offsets.
func ifdBlockSize(entries []encodedEntry) uint32 {
	if len(entries) == 0 {
		return 0
	}
	size := uint32(2 + 12*len(entries) + 4)
	for _, entry := range entries {
		if len(entry.data) > 4 {
			size += uint32(len(entry.data) + len(entry.data)%2)
		}
	}
	return size
}

func (e *exifEncoder) appendIFD(out []byte, entries []encodedEntry, start uint32) []byte {
	if len(entries) == 0 {
		return out
	}
	bo := e.byteOrder

	out = bo.AppendUint16(out, uint16(len(entries)))

	valueOffset := start + uint32(2+12*len(entries)+4)
	for _, entry := range entries {
		out = bo.AppendUint16(out, entry.tag)
		out = bo.AppendUint16(out, uint16(entry.typ))
		out = bo.AppendUint32(out, entry.count)
		if len(entry.data) <= 4 {
			var inline [4]byte
			copy(inline[:], entry.data)
			out = append(out, inline[:]...)
		} else {
			out = bo.AppendUint32(out, valueOffset)
			valueOffset += uint32(len(entry.data) + len(entry.data)%2)
		}
	}

	// No next IFD.
	out = bo.AppendUint32(out, 0)

	for _, entry := range entries {
		if len(entry.data) > 4 {
			out = append(out, entry.data...)
			if len(entry.data)%2 == 1 {
				out = append(out, 0)
			}
		}
	}
	return out
}
