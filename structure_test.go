package jp2meta_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-jp2/jp2meta"

	qt "github.com/frankban/quicktest"
)

func TestPrintStructureBasic(t *testing.T) {
	c := qt.New(t)

	img := jp2meta.NewBlank(jp2meta.Options{})
	var out strings.Builder
	c.Assert(img.PrintStructure(&out, jp2meta.PrintBasic, 0), qt.IsNil)

	s := out.String()
	c.Assert(s, qt.Contains, "STRUCTURE OF JPEG2000 FILE")
	c.Assert(s, qt.Contains, " address |   length | box       | data")
	c.Assert(s, qt.Contains, "jP  ")
	c.Assert(s, qt.Contains, "ftyp")
	c.Assert(s, qt.Contains, "jp2h")
	c.Assert(s, qt.Contains, "sub:ihdr")
	c.Assert(s, qt.Contains, "sub:colr")
	c.Assert(s, qt.Contains, "jp2c")
}

func TestPrintStructureUUIDLabels(t *testing.T) {
	c := qt.New(t)

	in := makeJP2(enumColr,
		makeUUIDBox(testUUIDXmp, []byte(encodedXmp(c, "CreatorTool", "x"))),
		makeUUIDBox([16]byte{1, 2, 3}, []byte("opaque")),
	)
	img := jp2meta.New(jp2meta.NewMemIO(in), jp2meta.Options{})

	var out strings.Builder
	c.Assert(img.PrintStructure(&out, jp2meta.PrintBasic, 0), qt.IsNil)

	s := out.String()
	c.Assert(s, qt.Contains, "XMP : ")
	c.Assert(s, qt.Contains, "????: ")
}

func TestPrintStructureXmp(t *testing.T) {
	c := qt.New(t)

	packet := encodedXmp(c, "CreatorTool", "jp2meta test")
	in := makeJP2(enumColr, makeUUIDBox(testUUIDXmp, []byte(packet)))
	img := jp2meta.New(jp2meta.NewMemIO(in), jp2meta.Options{})

	var out strings.Builder
	c.Assert(img.PrintStructure(&out, jp2meta.PrintXmp, 0), qt.IsNil)
	c.Assert(out.String(), qt.Equals, packet)
}

func TestPrintStructureIccProfile(t *testing.T) {
	c := qt.New(t)

	profile := makeICCProfile(64)
	colr := append([]byte{0x02, 0x00, 0x00}, profile...)
	img := jp2meta.New(jp2meta.NewMemIO(makeJP2(colr)), jp2meta.Options{})

	var out bytes.Buffer
	c.Assert(img.PrintStructure(&out, jp2meta.PrintIccProfile, 0), qt.IsNil)
	c.Assert(out.Bytes(), qt.DeepEquals, profile)
}

func TestPrintStructureIccAnnotations(t *testing.T) {
	c := qt.New(t)

	profile := makeICCProfile(64)
	colr := append([]byte{0x02, 0x00, 0x00}, profile...)
	img := jp2meta.New(jp2meta.NewMemIO(makeJP2(colr)), jp2meta.Options{})

	var out strings.Builder
	c.Assert(img.PrintStructure(&out, jp2meta.PrintRecursive, 0), qt.IsNil)
	c.Assert(out.String(), qt.Contains, "pad: 2 0 0")
	c.Assert(out.String(), qt.Contains, "iccLength:64")
}

func TestPrintStructureIptcEraseSilent(t *testing.T) {
	c := qt.New(t)

	img := jp2meta.NewBlank(jp2meta.Options{})
	var out strings.Builder
	c.Assert(img.PrintStructure(&out, jp2meta.PrintIptcErase, 0), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "")
}

func TestPrintStructureNotAnImage(t *testing.T) {
	c := qt.New(t)

	img := jp2meta.New(jp2meta.NewMemIO([]byte("plain text, not an image")), jp2meta.Options{})
	var out strings.Builder
	err := img.PrintStructure(&out, jp2meta.PrintBasic, 0)
	c.Assert(jp2meta.IsNotAnImage(err), qt.IsTrue)
}
