// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

// Package jp2meta reads and writes the metadata embedded in JPEG-2000 (JP2)
// containers: Exif, IPTC (IIM) and XMP payloads held in UUID boxes, plus the
// ICC colour profile held in the jp2h colour specification sub-box. The
// codestream itself is never decoded; rewriting a file copies it verbatim.
package jp2meta

import (
	"encoding/binary"
	"fmt"
)

// MimeType is the media type of a JP2 image.
const MimeType = "image/jp2"

// Codecs holds the metadata parser/encoder functions the container core
// calls out to. The zero value selects the in-package defaults; any field
// may be replaced to plug in a different implementation.
type Codecs struct {
	// DecodeExif parses a TIFF stream into Exif datums, reporting the
	// stream's byte order.
	DecodeExif func(b []byte) (ExifData, binary.ByteOrder, error)
	// EncodeExif produces a TIFF stream in the given byte order.
	EncodeExif func(d ExifData, byteOrder binary.ByteOrder) ([]byte, error)

	DecodeIptc func(b []byte) (IptcData, error)
	EncodeIptc func(d IptcData) ([]byte, error)

	DecodeXmp func(packet string) (XmpData, error)
	EncodeXmp func(d XmpData) (string, error)
}

func (c *Codecs) applyDefaults() {
	if c.DecodeExif == nil {
		c.DecodeExif = DecodeExif
	}
	if c.EncodeExif == nil {
		c.EncodeExif = EncodeExif
	}
	if c.DecodeIptc == nil {
		c.DecodeIptc = DecodeIptc
	}
	if c.EncodeIptc == nil {
		c.EncodeIptc = EncodeIptc
	}
	if c.DecodeXmp == nil {
		c.DecodeXmp = DecodeXmp
	}
	if c.EncodeXmp == nil {
		c.EncodeXmp = EncodeXmp
	}
}

// Options configures an Image.
type Options struct {
	// Warnf is called for recoverable oddities: non-standard Exif headers,
	// leading garbage in XMP packets, metadata payloads that fail to parse.
	// If nil, warnings are discarded.
	Warnf func(format string, args ...any)

	// BoxLimit caps the number of boxes visited in a single read or write
	// walk. Defaults to 1000.
	BoxLimit int

	// Codecs are the metadata parsers/encoders. Zero fields select the
	// in-package defaults.
	Codecs Codecs
}

// Image is a JP2 container plus its decoded metadata. It owns its I/O
// adapter and all metadata buffers exclusively; a single Image must not be
// shared between goroutines, but separate Images are independent.
type Image struct {
	bio  BasicIO
	opts Options

	pixelWidth  uint32
	pixelHeight uint32

	exif ExifData
	iptc IptcData

	xmp                XmpData
	xmpPacket          string
	writeXmpFromPacket bool

	iccProfile []byte

	// Byte order inherited from the inner TIFF stream of the Exif payload.
	byteOrder binary.ByteOrder
}

// New returns an Image over the given stream. No I/O happens until
// ReadMetadata or WriteMetadata.
func New(bio BasicIO, opts Options) *Image {
	opts.Codecs.applyDefaults()
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}
	if opts.BoxLimit <= 0 {
		opts.BoxLimit = defaultBoxLimit
	}
	return &Image{
		bio:       bio,
		opts:      opts,
		byteOrder: binary.LittleEndian,
	}
}

// NewBlank returns an in-memory Image initialised from the minimal blank
// JP2 template.
func NewBlank(opts Options) *Image {
	blank := make([]byte, len(jp2Blank))
	copy(blank, jp2Blank)
	return New(NewMemIO(blank), opts)
}

// MimeType returns "image/jp2".
func (img *Image) MimeType() string { return MimeType }

// IO returns the image's I/O adapter.
func (img *Image) IO() BasicIO { return img.bio }

// PixelWidth returns the image width read from the ihdr box.
func (img *Image) PixelWidth() uint32 { return img.pixelWidth }

// PixelHeight returns the image height read from the ihdr box.
func (img *Image) PixelHeight() uint32 { return img.pixelHeight }

// Exif returns the Exif datum collection for reading and mutation.
func (img *Image) Exif() *ExifData { return &img.exif }

// Iptc returns the IPTC datum collection for reading and mutation.
func (img *Image) Iptc() *IptcData { return &img.iptc }

// Xmp returns the XMP datum collection for reading and mutation.
func (img *Image) Xmp() *XmpData { return &img.xmp }

// XmpPacket returns the raw XMP packet text.
func (img *Image) XmpPacket() string { return img.xmpPacket }

// SetXmpPacket sets the raw packet text. The packet is then written
// unmodified by WriteMetadata instead of re-encoding the XMP datums.
func (img *Image) SetXmpPacket(packet string) {
	img.xmpPacket = packet
	img.writeXmpFromPacket = true
}

// ClearXmpData removes the XMP datums and the raw packet.
func (img *Image) ClearXmpData() {
	img.xmp.Clear()
	img.xmpPacket = ""
	img.writeXmpFromPacket = false
}

// IccProfile returns the embedded ICC profile, or nil.
func (img *Image) IccProfile() []byte { return img.iccProfile }

// SetIccProfile replaces the ICC profile written into the colr sub-box.
func (img *Image) SetIccProfile(profile []byte) {
	img.iccProfile = profile
}

// ClearIccProfile removes the ICC profile; WriteMetadata then emits the
// placeholder colour specification.
func (img *Image) ClearIccProfile() {
	img.iccProfile = nil
}

// ByteOrder returns the byte order of the Exif TIFF stream last read.
func (img *Image) ByteOrder() binary.ByteOrder { return img.byteOrder }

// SetComment is unsupported for JP2.
func (img *Image) SetComment(string) error {
	return fmt.Errorf("%w: image comment", ErrInvalidSettingForImage)
}

// ReadMetadata populates the Exif, IPTC, XMP and ICC slots plus the pixel
// dimensions from the container. It fails only on a corrupt container;
// metadata payloads that fail to parse clear their slot with a warning.
func (img *Image) ReadMetadata() error {
	if err := img.bio.Open(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataSourceOpenFailed, img.bio.Path(), err)
	}
	defer img.bio.Close()

	return img.readMetadata()
}

// WriteMetadata rewrites the container with the current metadata state. The
// known metadata UUID boxes of the input are dropped, fresh ones are emitted
// right after the jp2h box, and the colour specification is rewritten from
// the ICC slot. On success the input's backing store is atomically replaced;
// on failure it is left unchanged.
func (img *Image) WriteMetadata() error {
	if err := img.bio.Open(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataSourceOpenFailed, img.bio.Path(), err)
	}
	defer img.bio.Close()

	tmp := NewMemIO(nil)
	tmp.Open()
	if err := img.writeMetadata(tmp); err != nil {
		return err
	}
	return img.bio.Transfer(tmp)
}

// IsJP2Type probes the stream at its current position for the JP2 signature.
// On a match the stream is advanced past the signature when advance is true;
// otherwise it is rewound.
func IsJP2Type(bio BasicIO, advance bool) bool {
	matched, err := readSignature(bio, advance)
	return err == nil && matched
}
