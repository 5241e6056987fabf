// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// colr methods, ISO/IEC 15444-1 I.5.3.3. Only the restricted ICC method
// carries an inline profile; enumerated colourspaces are passed through.
const (
	colrMethodEnumerated = 1
	colrMethodICC        = 2
)

// exifTIFFHeader is the stray "Exif\0\0" marker some producers prepend to
// the TIFF stream inside the Exif UUID box.
var exifTIFFHeader = []byte{0x45, 0x78, 0x69, 0x66, 0x00, 0x00}

func (img *Image) readMetadata() error {
	if _, err := img.bio.Seek(0, io.SeekStart); err != nil {
		return err
	}

	matched, err := readSignature(img.bio, true)
	if err != nil {
		return ErrFailedToReadImageData
	}
	if !matched {
		if img.bio.Err() != nil || img.bio.EOF() {
			return ErrFailedToReadImageData
		}
		return fmt.Errorf("%w: %s", ErrNotAnImage, img.bio.Path())
	}

	// Fresh slots; a re-read reflects the file, not previous state.
	img.pixelWidth = 0
	img.pixelHeight = 0
	img.exif.Clear()
	img.iptc.Clear()
	img.ClearXmpData()
	img.iccProfile = nil

	budget := newBoxBudget(img.opts.BoxLimit)
	w := newBoxWalker(img.bio, budget)

	for {
		b, ok, err := w.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if b.length == 0 {
			// Tail box; nothing of interest extends to EOF.
			return nil
		}

		switch b.typ {
		case boxTypeJP2H:
			payload, err := w.payload(b)
			if err != nil {
				return err
			}
			if err := img.readJP2Header(payload, budget); err != nil {
				return err
			}

		case boxTypeUUID:
			if b.length < boxHeaderSize+uuidSize {
				return newCorruptedMetadataErrorf("uuid box at %d too small (%d)", b.offset, b.length)
			}
			payload, err := w.payload(b)
			if err != nil {
				return err
			}
			img.dispatchUUID(payload)
		}
	}
}

// readJP2Header walks the sub-boxes of a jp2h payload, picking up the image
// dimensions from ihdr and the ICC profile from colr.
func (img *Image) readJP2Header(payload []byte, budget *boxBudget) error {
	return walkSubBoxes(payload, budget, func(sb subBox) error {
		switch sb.typ {
		case boxTypeIhdr:
			if len(sb.data) < ihdrPayloadSize {
				return newCorruptedMetadataErrorf("ihdr payload %d bytes", len(sb.data))
			}
			img.pixelHeight, _ = readUint32(sb.data, 0)
			img.pixelWidth, _ = readUint32(sb.data, 4)

		case boxTypeColr:
			if len(sb.data) < 1 || sb.data[0] != colrMethodICC {
				// Enumerated colourspace (or placeholder); no profile.
				return nil
			}
			// Past the 3-byte method/precedence/approximation pad sits the
			// ICC profile; its first four bytes are its own length.
			if len(sb.data) < 7 {
				return newCorruptedMetadataErrorf("colr payload %d bytes", len(sb.data))
			}
			iccLength, err := readUint32(sb.data, 3)
			if err != nil {
				return err
			}
			if int64(iccLength) > int64(len(sb.data)-3) {
				return newCorruptedMetadataErrorf("icc length %d exceeds colr payload %d", iccLength, len(sb.data))
			}
			// A profile smaller than its own embedded length field is
			// inconsistent.
			if iccLength < 4 {
				return newCorruptedMetadataErrorf("icc length %d", iccLength)
			}
			icc := make([]byte, iccLength)
			copy(icc, sb.data[3:3+int(iccLength)])
			img.iccProfile = icc
		}
		return nil
	})
}

// dispatchUUID classifies a uuid box payload (16-byte identifier followed by
// the metadata bytes) and hands it to the matching parser. A parser failure
// clears that metadata slot and the walk continues; unknown identifiers are
// skipped silently.
func (img *Image) dispatchUUID(payload []byte) {
	id := payload[:uuidSize]
	rest := payload[uuidSize:]

	switch {
	case bytes.Equal(id, uuidExif[:]):
		img.readExifPayload(rest)
	case bytes.Equal(id, uuidIPTC[:]):
		img.readIptcPayload(rest)
	case bytes.Equal(id, uuidXMP[:]):
		img.readXmpPayload(rest)
	}
}

func (img *Image) readExifPayload(raw []byte) {
	if len(raw) <= 8 {
		img.opts.Warnf("failed to decode Exif metadata")
		img.exif.Clear()
		return
	}

	// Locate the TIFF stream: a byte-order mark at position 0, or a stray
	// "Exif\0\0" marker somewhere before it.
	pos := -1
	if raw[0] == raw[1] && (raw[0] == 'I' || raw[0] == 'M') {
		pos = 0
	} else if i := bytes.Index(raw, exifTIFFHeader); i >= 0 {
		pos = i + len(exifTIFFHeader)
		img.opts.Warnf("reading non-standard UUID-EXIF_bad box in %s", img.bio.Path())
	}
	if pos < 0 || pos >= len(raw) {
		img.opts.Warnf("failed to decode Exif metadata")
		img.exif.Clear()
		return
	}

	exif, byteOrder, err := img.opts.Codecs.DecodeExif(raw[pos:])
	if err != nil {
		img.opts.Warnf("failed to decode Exif metadata: %v", err)
		img.exif.Clear()
		return
	}
	img.exif = exif
	img.byteOrder = byteOrder
}

func (img *Image) readIptcPayload(raw []byte) {
	iptc, err := img.opts.Codecs.DecodeIptc(raw)
	if err != nil {
		img.opts.Warnf("failed to decode IPTC metadata: %v", err)
		img.iptc.Clear()
		return
	}
	img.iptc = iptc
}

func (img *Image) readXmpPayload(raw []byte) {
	packet := string(raw)

	if idx := strings.IndexByte(packet, '<'); idx > 0 {
		img.opts.Warnf("removing %d characters from the beginning of the XMP packet", idx)
		packet = packet[idx:]
	}
	img.xmpPacket = packet
	img.writeXmpFromPacket = false

	if packet == "" {
		return
	}
	xmp, err := img.opts.Codecs.DecodeXmp(packet)
	if err != nil {
		img.opts.Warnf("failed to decode XMP metadata: %v", err)
		img.xmp.Clear()
		return
	}
	img.xmp = xmp
}
