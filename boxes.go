// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"errors"
	"io"
)

type fourCC [4]byte

// JP2 box types, ISO/IEC 15444-1 Annex I.
var (
	boxTypeSignature = fourCC{'j', 'P', ' ', ' '}
	boxTypeFtyp      = fourCC{'f', 't', 'y', 'p'}
	boxTypeJP2H      = fourCC{'j', 'p', '2', 'h'}
	boxTypeIhdr      = fourCC{'i', 'h', 'd', 'r'}
	boxTypeColr      = fourCC{'c', 'o', 'l', 'r'}
	boxTypeUUID      = fourCC{'u', 'u', 'i', 'd'}
	boxTypeJP2C      = fourCC{'j', 'p', '2', 'c'}
)

// String renders the type as four ASCII characters for diagnostics.
func (f fourCC) String() string {
	return binaryToString(f[:])
}

const (
	boxHeaderSize = 8
	uuidSize      = 16

	// ihdr payload: height, width, components, bpc, compression,
	// unknown colourspace, intellectual property flag.
	ihdrPayloadSize = 14

	// The box budget shared between the walker and the jp2h sub-walker.
	defaultBoxLimit = 1000
)

// jp2Signature is the fixed 12-byte prefix of every JP2 file: the complete
// signature box.
var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a}

// UUIDs identifying the embedded metadata payloads.
//
// See http://www.jpeg.org/public/wg1n2600.doc for embedding IPTC-NAA data in
// JPEG-2000 files and the Adobe XMP specification part 3 for XMP.
var (
	uuidExif = [uuidSize]byte{'J', 'p', 'g', 'T', 'i', 'f', 'f', 'E', 'x', 'i', 'f', '-', '>', 'J', 'P', '2'}
	uuidIPTC = [uuidSize]byte{0x33, 0xc7, 0xa4, 0xd2, 0xb8, 0x1d, 0x47, 0x23, 0xa0, 0xba, 0xf1, 0xa3, 0xe0, 0x97, 0xad, 0x38}
	uuidXMP  = [uuidSize]byte{0xbe, 0x7a, 0xcf, 0xcb, 0x97, 0xa9, 0x42, 0xe8, 0x9c, 0x71, 0x99, 0x94, 0x91, 0xe3, 0xaf, 0xac}
)

// jp2Blank is a minimal valid JP2 image: signature, ftyp, a jp2h with a 1x1
// ihdr and a placeholder colr, and a tiny JasPer codestream. NewBlank images
// start from this template.
var jp2Blank = []byte{
	0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a,
	0x00, 0x00, 0x00, 0x14, 0x66, 0x74, 0x79, 0x70, 0x6a, 0x70, 0x32, 0x20,
	0x00, 0x00, 0x00, 0x00, 0x6a, 0x70, 0x32, 0x20, 0x00, 0x00, 0x00, 0x2d,
	0x6a, 0x70, 0x32, 0x68, 0x00, 0x00, 0x00, 0x16, 0x69, 0x68, 0x64, 0x72,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x07, 0x07,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x0f, 0x63, 0x6f, 0x6c, 0x72, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x11, 0x00, 0x00, 0x00, 0x00, 0x6a, 0x70, 0x32,
	0x63, 0xff, 0x4f, 0xff, 0x51, 0x00, 0x29, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x07, 0x01, 0x01, 0xff, 0x64,
	0x00, 0x23, 0x00, 0x01, 0x43, 0x72, 0x65, 0x61, 0x74, 0x6f, 0x72, 0x3a,
	0x20, 0x4a, 0x61, 0x73, 0x50, 0x65, 0x72, 0x20, 0x56, 0x65, 0x72, 0x73,
	0x69, 0x6f, 0x6e, 0x20, 0x31, 0x2e, 0x39, 0x30, 0x30, 0x2e, 0x31, 0xff,
	0x52, 0x00, 0x0c, 0x00, 0x00, 0x00, 0x01, 0x00, 0x05, 0x04, 0x04, 0x00,
	0x01, 0xff, 0x5c, 0x00, 0x13, 0x40, 0x40, 0x48, 0x48, 0x50, 0x48, 0x48,
	0x50, 0x48, 0x48, 0x50, 0x48, 0x48, 0x50, 0x48, 0x48, 0x50, 0xff, 0x90,
	0x00, 0x0a, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2d, 0x00, 0x01, 0xff, 0x5d,
	0x00, 0x14, 0x00, 0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x93, 0xcf, 0xb4,
	0x04, 0x00, 0x80, 0x80, 0x80, 0x80, 0x80, 0xff, 0xd9,
}

// box is a top-level box descriptor. offset is the absolute position of the
// length field; length is the declared total size including the 8-byte
// header, 0 meaning "extends to end of file".
type box struct {
	offset int64
	length uint32
	typ    fourCC
}

// boxBudget caps the total number of boxes visited during a walk, shared
// between the top-level walker and any jp2h sub-walks.
type boxBudget struct {
	n     int
	limit int
}

func newBoxBudget(limit int) *boxBudget {
	if limit <= 0 {
		limit = defaultBoxLimit
	}
	return &boxBudget{limit: limit}
}

func (b *boxBudget) take() error {
	b.n++
	if b.n > b.limit {
		return newCorruptedMetadataErrorf("box count exceeds %d", b.limit)
	}
	return nil
}

// boxWalker iterates the top-level boxes of an open stream. It is lazy: a
// box's payload is only read when the consumer asks for it. Restarting
// requires reopening the stream.
type boxWalker struct {
	bio    BasicIO
	budget *boxBudget
	pos    int64
	size   int64
	done   bool
	hdr    [boxHeaderSize]byte
}

func newBoxWalker(bio BasicIO, budget *boxBudget) *boxWalker {
	return &boxWalker{
		bio:    bio,
		budget: budget,
		pos:    bio.Tell(),
		size:   bio.Size(),
	}
}

// next yields the following box descriptor, or ok=false at end of stream.
// The stream is left positioned right after the box header.
func (w *boxWalker) next() (b box, ok bool, err error) {
	if w.done || w.pos+boxHeaderSize > w.size {
		return box{}, false, nil
	}
	if err := w.budget.take(); err != nil {
		return box{}, false, err
	}

	if _, err := w.bio.Seek(w.pos, io.SeekStart); err != nil {
		return box{}, false, err
	}
	if _, err := io.ReadFull(w.bio, w.hdr[:]); err != nil {
		return box{}, false, nil // short header at EOF ends the walk
	}

	b.offset = w.pos
	b.length, _ = readUint32(w.hdr[:], 0)
	copy(b.typ[:], w.hdr[4:])

	switch {
	case b.length == 0:
		// Extends to end of file. Permitted only for the final box; the
		// walk ends here either way.
		w.done = true
		return b, true, nil
	case b.length == 1:
		// 64-bit extended length is not supported.
		return box{}, false, newCorruptedMetadataErrorf("box %s at %d uses extended length", b.typ, b.offset)
	case b.length < boxHeaderSize:
		return box{}, false, newCorruptedMetadataErrorf("box %s at %d declares length %d", b.typ, b.offset, b.length)
	case int64(b.length) > w.size-w.pos:
		return box{}, false, newCorruptedMetadataErrorf(
			"box %s at %d declares length %d beyond remaining %d", b.typ, b.offset, b.length, w.size-w.pos)
	}

	w.pos += int64(b.length)
	return b, true, nil
}

// payload reads the box payload bytes [offset+8, offset+length). For a tail
// box (length 0) it reads to end of stream.
func (w *boxWalker) payload(b box) ([]byte, error) {
	end := w.size
	if b.length != 0 {
		end = b.offset + int64(b.length)
	}
	n := end - (b.offset + boxHeaderSize)
	if n < 0 {
		return nil, newCorruptedMetadataErrorf("box %s payload underflow", b.typ)
	}
	if _, err := w.bio.Seek(b.offset+boxHeaderSize, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(w.bio, buf)
	if err != nil {
		if w.bio.Err() != nil {
			return nil, ErrFailedToReadImageData
		}
		if int64(read) != n {
			return nil, ErrInputDataReadFailed
		}
	}
	return buf, nil
}

// subBox is a box inside a jp2h super-box. data is the sub-box payload.
type subBox struct {
	offset int // relative to the super-box payload
	length uint32
	typ    fourCC
	data   []byte
}

// walkSubBoxes iterates the boxes inside a super-box payload. The walk is
// bounded by the payload, not the file: a declared length running past the
// parent is corrupt, and a zero length means end-of-container rather than
// end-of-file. fn may stop the walk early by returning errStopWalk.
func walkSubBoxes(payload []byte, budget *boxBudget, fn func(sb subBox) error) error {
	off := 0
	for off+boxHeaderSize <= len(payload) {
		if err := budget.take(); err != nil {
			return err
		}
		length, _ := readUint32(payload, off)
		var typ fourCC
		copy(typ[:], payload[off+4:])

		switch {
		case length == 0:
			return nil
		case length == 1:
			return newCorruptedMetadataErrorf("sub-box %s at %d uses extended length", typ, off)
		case length < boxHeaderSize:
			return newCorruptedMetadataErrorf("sub-box %s at %d declares length %d", typ, off, length)
		case int64(length) > int64(len(payload)-off):
			return newCorruptedMetadataErrorf(
				"sub-box %s at %d runs past its parent (%d > %d)", typ, off, length, len(payload)-off)
		}

		sb := subBox{
			offset: off,
			length: length,
			typ:    typ,
			data:   payload[off+boxHeaderSize : off+int(length)],
		}
		if err := fn(sb); err != nil {
			if err == errStopWalk {
				return nil
			}
			return err
		}
		off += int(length)
	}
	return nil
}

// errStopWalk is a sentinel returned by sub-box callbacks to end a walk early.
var errStopWalk = errors.New("stop walk")

// readSignature checks the 12-byte JP2 signature at the current position.
// On a match the stream is left after the signature when advance is true;
// otherwise, and on mismatch, it is rewound.
func readSignature(bio BasicIO, advance bool) (bool, error) {
	start := bio.Tell()
	var buf [12]byte
	if _, err := io.ReadFull(bio, buf[:]); err != nil {
		bio.Seek(start, io.SeekStart)
		return false, err
	}
	matched := string(buf[:]) == string(jp2Signature)
	if !advance || !matched {
		if _, err := bio.Seek(start, io.SeekStart); err != nil {
			return matched, err
		}
	}
	return matched, nil
}
