// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta_test

import (
	"testing"

	"github.com/go-jp2/jp2meta"
)

// ReadMetadata must terminate on arbitrary bytes with either success or a
// recognised error, never a panic.
func FuzzReadMetadata(f *testing.F) {
	blank := jp2meta.NewBlank(jp2meta.Options{})
	f.Add(imageBytes(blank))

	f.Add(makeJP2(enumColr,
		makeUUIDBox(testUUIDXmp, []byte("   <x:xmpmeta/>")),
		makeUUIDBox(testUUIDExif, []byte("II*\x00garbage")),
	))
	f.Add([]byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a, 0x00, 0x00, 0x00, 0x01})
	f.Add([]byte("not a jp2 file at all"))

	f.Fuzz(func(t *testing.T, b []byte) {
		img := jp2meta.New(jp2meta.NewMemIO(b), jp2meta.Options{})
		_ = img.ReadMetadata()
	})
}

func FuzzWriteMetadata(f *testing.F) {
	blank := jp2meta.NewBlank(jp2meta.Options{})
	f.Add(imageBytes(blank))

	f.Fuzz(func(t *testing.T, b []byte) {
		img := jp2meta.New(jp2meta.NewMemIO(b), jp2meta.Options{})
		if err := img.ReadMetadata(); err != nil {
			return
		}
		if err := img.WriteMetadata(); err != nil {
			return
		}
		// A successful rewrite must stay readable. The emitted metadata
		// boxes may push a file at the box budget over it, so re-read with
		// headroom.
		out := jp2meta.New(jp2meta.NewMemIO(imageBytes(img)), jp2meta.Options{BoxLimit: 2000})
		if err := out.ReadMetadata(); err != nil {
			t.Fatalf("re-read after write failed: %v", err)
		}
	})
}
