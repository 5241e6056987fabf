// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// colrPlaceholder is the colour specification payload written when no ICC
// profile is held, reproduced byte for byte from the reference
// implementation's "unknown colourspace" placeholder.
var colrPlaceholder = []byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00,
	0x05, 0x1c, 'u', 'u', 'i', 'd',
}

// writeMetadata streams the input boxes to out, dropping the known metadata
// UUID boxes, rebuilding jp2h and emitting fresh UUID boxes right after it.
func (img *Image) writeMetadata(out BasicIO) error {
	if !img.bio.IsOpen() {
		return ErrInputDataReadFailed
	}
	if !out.IsOpen() {
		return ErrImageWriteFailed
	}

	if _, err := img.bio.Seek(0, io.SeekStart); err != nil {
		return err
	}
	matched, err := readSignature(img.bio, true)
	if err != nil {
		return ErrInputDataReadFailed
	}
	if !matched {
		if img.bio.Err() != nil || img.bio.EOF() {
			return ErrInputDataReadFailed
		}
		return ErrNoImageInInputData
	}

	if err := writeFull(out, jp2Signature); err != nil {
		return err
	}

	budget := newBoxBudget(img.opts.BoxLimit)
	size := img.bio.Size()
	var hdr [boxHeaderSize]byte

	for img.bio.Tell() < size {
		if err := budget.take(); err != nil {
			return err
		}

		n, err := io.ReadFull(img.bio, hdr[:])
		if err != nil {
			if img.bio.Err() != nil {
				return ErrFailedToReadImageData
			}
			if n != boxHeaderSize {
				return ErrInputDataReadFailed
			}
		}

		length, _ := readUint32(hdr[:], 0)
		var typ fourCC
		copy(typ[:], hdr[4:])

		if length == 0 {
			// The final box runs to end of file; rewrite it with an
			// explicit length.
			rest := size - img.bio.Tell()
			if rest+boxHeaderSize > math.MaxUint32 {
				return newCorruptedMetadataErrorf("tail box of %d bytes", rest)
			}
			length = uint32(rest) + boxHeaderSize
		}
		if length == 1 {
			return newCorruptedMetadataErrorf("box %s uses extended length", typ)
		}
		if length < boxHeaderSize {
			return newCorruptedMetadataErrorf("box %s declares length %d", typ, length)
		}
		if int64(length)-boxHeaderSize > size-img.bio.Tell() {
			return newCorruptedMetadataErrorf("box %s declares length %d beyond remaining input", typ, length)
		}

		boxBuf := make([]byte, length)
		copy(boxBuf, hdr[:])
		// A tail box's header declares 0; the copy carries the explicit length.
		writeUint32(boxBuf, 0, length)
		read, err := io.ReadFull(img.bio, boxBuf[boxHeaderSize:])
		if err != nil {
			if img.bio.Err() != nil {
				return ErrFailedToReadImageData
			}
			if read != int(length)-boxHeaderSize {
				return ErrInputDataReadFailed
			}
		}

		switch typ {
		case boxTypeJP2H:
			newBuf, err := img.encodeJP2Header(boxBuf, budget)
			if err != nil {
				return err
			}
			if err := writeFull(out, newBuf); err != nil {
				return err
			}
			if err := img.writeMetadataBoxes(out); err != nil {
				return err
			}

		case boxTypeUUID:
			if len(boxBuf) < boxHeaderSize+uuidSize {
				return newCorruptedMetadataErrorf("uuid box too small (%d)", len(boxBuf))
			}
			id := boxBuf[boxHeaderSize : boxHeaderSize+uuidSize]
			known := bytes.Equal(id, uuidExif[:]) ||
				bytes.Equal(id, uuidIPTC[:]) ||
				bytes.Equal(id, uuidXMP[:])
			if known {
				// Stale metadata; fresh boxes were emitted after jp2h.
				continue
			}
			if err := writeFull(out, boxBuf); err != nil {
				return err
			}

		default:
			if err := writeFull(out, boxBuf); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeMetadataBoxes emits a fresh UUID box for each non-empty metadata
// collection, in the order Exif, IPTC, XMP.
func (img *Image) writeMetadataBoxes(out BasicIO) error {
	if img.exif.Count() > 0 {
		raw, err := img.opts.Codecs.EncodeExif(img.exif, binary.LittleEndian)
		if err != nil {
			img.opts.Warnf("failed to encode Exif metadata: %v", err)
		} else if len(raw) > 0 {
			if err := writeUUIDBox(out, uuidExif, raw); err != nil {
				return err
			}
		}
	}

	if img.iptc.Count() > 0 {
		raw, err := img.opts.Codecs.EncodeIptc(img.iptc)
		if err != nil {
			img.opts.Warnf("failed to encode IPTC metadata: %v", err)
		} else if len(raw) > 0 {
			if err := writeUUIDBox(out, uuidIPTC, raw); err != nil {
				return err
			}
		}
	}

	if !img.writeXmpFromPacket {
		packet, err := img.opts.Codecs.EncodeXmp(img.xmp)
		if err != nil {
			img.opts.Warnf("failed to encode XMP metadata: %v", err)
		} else {
			img.xmpPacket = packet
		}
	}
	if img.xmpPacket != "" {
		if err := writeUUIDBox(out, uuidXMP, []byte(img.xmpPacket)); err != nil {
			return err
		}
	}

	return nil
}

// encodeJP2Header rebuilds a jp2h super-box from the original box bytes,
// replacing the first colr sub-box from the ICC slot. Sub-boxes after the
// first colr are dropped, matching the reference behaviour.
func (img *Image) encodeJP2Header(boxBuf []byte, budget *boxBudget) ([]byte, error) {
	payload := boxBuf[boxHeaderSize:]
	out := make([]byte, boxHeaderSize, len(boxBuf)+len(img.iccProfile)+boxHeaderSize)

	err := walkSubBoxes(payload, budget, func(sb subBox) error {
		if sb.typ != boxTypeColr {
			out = append(out, payload[sb.offset:sb.offset+int(sb.length)]...)
			return nil
		}

		if len(img.iccProfile) == 0 {
			out = binary.BigEndian.AppendUint32(out, uint32(boxHeaderSize+len(colrPlaceholder)))
			out = append(out, boxTypeColr[:]...)
			out = append(out, colrPlaceholder...)
		} else {
			newlen, err := safeAdd(boxHeaderSize+3, uint32(len(img.iccProfile)))
			if err != nil {
				return err
			}
			out = binary.BigEndian.AppendUint32(out, newlen)
			out = append(out, boxTypeColr[:]...)
			out = append(out, colrMethodICC, 0x00, 0x00)
			out = append(out, img.iccProfile...)
		}
		return errStopWalk
	})
	if err != nil {
		return nil, err
	}

	if len(out) > math.MaxUint32 {
		return nil, newCorruptedMetadataErrorf("jp2h grows beyond 32-bit length")
	}
	writeUint32(out, 0, uint32(len(out)))
	copy(out[4:], boxTypeJP2H[:])
	return out, nil
}

func writeUUIDBox(out BasicIO, id [uuidSize]byte, payload []byte) error {
	if int64(len(payload)) > math.MaxUint32-(boxHeaderSize+uuidSize) {
		return newCorruptedMetadataErrorf("metadata payload of %d bytes", len(payload))
	}
	length := uint32(boxHeaderSize + uuidSize + len(payload))

	var hdr [boxHeaderSize + uuidSize]byte
	binary.BigEndian.PutUint32(hdr[:4], length)
	copy(hdr[4:8], boxTypeUUID[:])
	copy(hdr[8:], id[:])

	if err := writeFull(out, hdr[:]); err != nil {
		return err
	}
	return writeFull(out, payload)
}

func writeFull(out BasicIO, b []byte) error {
	n, err := out.Write(b)
	if err != nil || n != len(b) {
		return ErrImageWriteFailed
	}
	return nil
}
