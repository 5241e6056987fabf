package jp2meta

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReadUint16(t *testing.T) {
	c := qt.New(t)

	b := []byte{0x12, 0x34, 0x56}

	v, err := readUint16(b, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint16(0x1234))

	v, err = readUint16(b, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint16(0x3456))

	_, err = readUint16(b, 2)
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)

	_, err = readUint16(b, -1)
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestReadUint32(t *testing.T) {
	c := qt.New(t)

	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	v, err := readUint32(b, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0x01020304))

	v, err = readUint32(b, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0x02030405))

	_, err = readUint32(b, 2)
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestWriteUint32(t *testing.T) {
	c := qt.New(t)

	b := make([]byte, 6)
	c.Assert(writeUint32(b, 1, 0xdeadbeef), qt.IsNil)
	c.Assert(b, qt.DeepEquals, []byte{0x00, 0xde, 0xad, 0xbe, 0xef, 0x00})

	c.Assert(IsCorruptedMetadata(writeUint32(b, 3, 1)), qt.IsTrue)
}

func TestSafeAdd(t *testing.T) {
	c := qt.New(t)

	v, err := safeAdd(1, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(3))

	v, err = safeAdd(0xffffffff, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0xffffffff))

	_, err = safeAdd(0xffffffff, 1)
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestNewRat(t *testing.T) {
	c := qt.New(t)

	c.Assert(NewRat[uint32](1, 200).String(), qt.Equals, "1/200")
	c.Assert(NewRat[uint32](2, 4).String(), qt.Equals, "1/2")
	c.Assert(NewRat[uint32](21, 1).String(), qt.Equals, "21")
	c.Assert(NewRat[int32](-1, -2).String(), qt.Equals, "1/2")
	c.Assert(NewRat[uint32](1, 4).Float64(), qt.Equals, 0.25)
}

func TestTrimBytesNulls(t *testing.T) {
	c := qt.New(t)

	c.Assert(trimBytesNulls([]byte{0, 0, 'a', 'b', 0}), qt.DeepEquals, []byte{'a', 'b'})
	c.Assert(trimBytesNulls([]byte{0, 0}), qt.IsNil)
	c.Assert(trimBytesNulls(nil), qt.IsNil)
}

func TestBinaryToString(t *testing.T) {
	c := qt.New(t)

	c.Assert(binaryToString([]byte("colr")), qt.Equals, "colr")
	c.Assert(binaryToString([]byte{0x00, 'a', 0xff}), qt.Equals, ".a.")
}
