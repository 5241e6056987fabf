package jp2meta

import (
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"
)

func rawBox(typ string, payload []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(8+len(payload)))
	b = append(b, typ...)
	return append(b, payload...)
}

func TestBoxWalker(t *testing.T) {
	c := qt.New(t)

	var stream []byte
	stream = append(stream, rawBox("ftyp", []byte("jp2 "))...)
	stream = append(stream, rawBox("free", nil)...)
	stream = append(stream, 0x00, 0x00, 0x00, 0x00, 'j', 'p', '2', 'c')
	stream = append(stream, 0xde, 0xad)

	bio := NewMemIO(stream)
	bio.Open()
	defer bio.Close()

	w := newBoxWalker(bio, newBoxBudget(0))

	b, ok, err := w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b.typ, qt.Equals, boxTypeFtyp)
	c.Assert(b.offset, qt.Equals, int64(0))
	c.Assert(b.length, qt.Equals, uint32(12))

	payload, err := w.payload(b)
	c.Assert(err, qt.IsNil)
	c.Assert(string(payload), qt.Equals, "jp2 ")

	b, ok, err = w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b.length, qt.Equals, uint32(8))

	// Tail box: length zero extends to EOF and ends the walk.
	b, ok, err = w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b.typ, qt.Equals, boxTypeJP2C)
	c.Assert(b.length, qt.Equals, uint32(0))

	payload, err = w.payload(b)
	c.Assert(err, qt.IsNil)
	c.Assert(payload, qt.DeepEquals, []byte{0xde, 0xad})

	_, ok, err = w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestBoxWalkerRejectsShortLength(t *testing.T) {
	c := qt.New(t)

	stream := []byte{0x00, 0x00, 0x00, 0x05, 'f', 'r', 'e', 'e', 0x00, 0x00}
	bio := NewMemIO(stream)
	bio.Open()
	defer bio.Close()

	w := newBoxWalker(bio, newBoxBudget(0))
	_, _, err := w.next()
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestBoxWalkerRejectsOverlongLength(t *testing.T) {
	c := qt.New(t)

	stream := rawBox("free", make([]byte, 16))
	binary.BigEndian.PutUint32(stream, 4096) // longer than the stream

	bio := NewMemIO(stream)
	bio.Open()
	defer bio.Close()

	w := newBoxWalker(bio, newBoxBudget(0))
	_, _, err := w.next()
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestBoxWalkerBudget(t *testing.T) {
	c := qt.New(t)

	var stream []byte
	for i := 0; i < 4; i++ {
		stream = append(stream, rawBox("free", nil)...)
	}

	bio := NewMemIO(stream)
	bio.Open()
	defer bio.Close()

	w := newBoxWalker(bio, newBoxBudget(3))
	var err error
	for i := 0; i < 4; i++ {
		if _, _, err = w.next(); err != nil {
			break
		}
	}
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestWalkSubBoxes(t *testing.T) {
	c := qt.New(t)

	payload := rawBox("ihdr", make([]byte, ihdrPayloadSize))
	payload = append(payload, rawBox("colr", []byte{1, 0, 0, 0, 0, 0, 0x11})...)

	var types []string
	err := walkSubBoxes(payload, newBoxBudget(0), func(sb subBox) error {
		types = append(types, sb.typ.String())
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(types, qt.DeepEquals, []string{"ihdr", "colr"})
}

func TestWalkSubBoxesZeroLengthEndsContainer(t *testing.T) {
	c := qt.New(t)

	payload := rawBox("ihdr", make([]byte, ihdrPayloadSize))
	payload = append(payload, 0x00, 0x00, 0x00, 0x00, 'f', 'r', 'e', 'e')
	payload = append(payload, rawBox("colr", []byte{1, 0, 0, 0, 0, 0, 0x11})...)

	var types []string
	err := walkSubBoxes(payload, newBoxBudget(0), func(sb subBox) error {
		types = append(types, sb.typ.String())
		return nil
	})
	c.Assert(err, qt.IsNil)
	// End-of-container, not end-of-file: colr after the zero box is not seen.
	c.Assert(types, qt.DeepEquals, []string{"ihdr"})
}

func TestWalkSubBoxesRejectsOverrun(t *testing.T) {
	c := qt.New(t)

	payload := rawBox("ihdr", make([]byte, ihdrPayloadSize))
	overrun := rawBox("colr", []byte{1, 2, 3})
	binary.BigEndian.PutUint32(overrun, 4096)
	payload = append(payload, overrun...)

	err := walkSubBoxes(payload, newBoxBudget(0), func(subBox) error { return nil })
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestWalkSubBoxesBudget(t *testing.T) {
	c := qt.New(t)

	var payload []byte
	for i := 0; i < 4; i++ {
		payload = append(payload, rawBox("free", nil)...)
	}

	budget := newBoxBudget(2)
	err := walkSubBoxes(payload, budget, func(subBox) error { return nil })
	c.Assert(IsCorruptedMetadata(err), qt.IsTrue)
}

func TestReadSignature(t *testing.T) {
	c := qt.New(t)

	stream := append(append([]byte{}, jp2Signature...), 'x')
	bio := NewMemIO(stream)
	bio.Open()
	defer bio.Close()

	matched, err := readSignature(bio, false)
	c.Assert(err, qt.IsNil)
	c.Assert(matched, qt.IsTrue)
	c.Assert(bio.Tell(), qt.Equals, int64(0))

	matched, err = readSignature(bio, true)
	c.Assert(err, qt.IsNil)
	c.Assert(matched, qt.IsTrue)
	c.Assert(bio.Tell(), qt.Equals, int64(12))
}

func TestReadSignatureMismatchRewinds(t *testing.T) {
	c := qt.New(t)

	bio := NewMemIO([]byte("definitely not a jp2 file"))
	bio.Open()
	defer bio.Close()

	matched, err := readSignature(bio, true)
	c.Assert(err, qt.IsNil)
	c.Assert(matched, qt.IsFalse)
	c.Assert(bio.Tell(), qt.Equals, int64(0))
}

func TestBlankTemplateShape(t *testing.T) {
	c := qt.New(t)

	c.Assert(jp2Blank[:12], qt.DeepEquals, jp2Signature)

	bio := NewMemIO(jp2Blank)
	bio.Open()
	defer bio.Close()
	bio.Seek(12, 0)

	var types []string
	w := newBoxWalker(bio, newBoxBudget(0))
	for {
		b, ok, err := w.next()
		c.Assert(err, qt.IsNil)
		if !ok {
			break
		}
		types = append(types, b.typ.String())
	}
	c.Assert(types, qt.DeepEquals, []string{"ftyp", "jp2h", "jp2c"})
}
