// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"bytes"
	"fmt"
	"io"
)

// PrintStructureOption selects what PrintStructure emits.
type PrintStructureOption int

const (
	// PrintBasic lists the box tree, including jp2h sub-box rows and
	// payload previews.
	PrintBasic PrintStructureOption = iota
	// PrintRecursive produces the same listing as PrintBasic; metadata
	// payloads are not descended into.
	PrintRecursive
	// PrintIccProfile writes the embedded ICC profile bytes to out.
	PrintIccProfile
	// PrintXmp writes the raw XMP packet to out.
	PrintXmp
	// PrintIptcErase walks the container without printing.
	PrintIptcErase
)

// PrintStructure writes a human-readable listing of the box tree to out.
// The walk stops at the codestream box.
func (img *Image) PrintStructure(out io.Writer, option PrintStructureOption, depth int) error {
	if err := img.bio.Open(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataSourceOpenFailed, img.bio.Path(), err)
	}
	defer img.bio.Close()

	if _, err := img.bio.Seek(0, io.SeekStart); err != nil {
		return err
	}
	matched, err := readSignature(img.bio, false)
	if err != nil {
		return ErrFailedToReadImageData
	}
	if !matched {
		return fmt.Errorf("%w: %s", ErrNotAnImage, img.bio.Path())
	}

	bPrint := option == PrintBasic || option == PrintRecursive
	bICC := option == PrintIccProfile
	bXMP := option == PrintXmp

	if bPrint {
		fmt.Fprintf(out, "STRUCTURE OF JPEG2000 FILE: %s\n", img.bio.Path())
		fmt.Fprintf(out, " address |   length | box       | data\n")
	}

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

		if bPrint {
			fmt.Fprintf(out, "%8d | %8d | %s      | ", b.offset, b.length, b.typ)
		}
		if b.typ == boxTypeJP2C {
			if bPrint {
				fmt.Fprintln(out)
			}
			return nil
		}
		if b.length == 0 {
			if bPrint {
				fmt.Fprintln(out)
			}
			return nil
		}

		switch b.typ {
		case boxTypeJP2H:
			if bPrint {
				fmt.Fprintln(out)
			}
			payload, err := w.payload(b)
			if err != nil {
				return err
			}
			if err := img.printJP2Header(out, payload, b.offset, budget, bPrint, bICC); err != nil {
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
			id := payload[:uuidSize]
			rest := payload[uuidSize:]

			if bPrint {
				switch {
				case bytes.Equal(id, uuidExif[:]):
					fmt.Fprint(out, "Exif: ")
				case bytes.Equal(id, uuidIPTC[:]):
					fmt.Fprint(out, "IPTC: ")
				case bytes.Equal(id, uuidXMP[:]):
					fmt.Fprint(out, "XMP : ")
				default:
					fmt.Fprint(out, "????: ")
				}
				fmt.Fprintln(out, binaryToString(firstN(rest, 40)))
			}
			if bXMP && bytes.Equal(id, uuidXMP[:]) {
				if _, err := out.Write(rest); err != nil {
					return err
				}
			}

		default:
			if bPrint {
				fmt.Fprintln(out)
			}
		}
	}
}

func (img *Image) printJP2Header(out io.Writer, payload []byte, boxOffset int64, budget *boxBudget, bPrint, bICC bool) error {
	return walkSubBoxes(payload, budget, func(sb subBox) error {
		if bPrint {
			address := boxOffset + boxHeaderSize + int64(sb.offset)
			fmt.Fprintf(out, "%8d | %8d |  sub:%s | %s", address, sb.length, sb.typ,
				binaryToString(firstN(sb.data, 30)))
		}

		if sb.typ == boxTypeColr && len(sb.data) >= 1 && sb.data[0] == colrMethodICC {
			if len(sb.data) < 7 {
				return newCorruptedMetadataErrorf("colr payload %d bytes", len(sb.data))
			}
			if bPrint {
				fmt.Fprintf(out, " | pad: %d %d %d", sb.data[0], sb.data[1], sb.data[2])
			}
			iccLength, err := readUint32(sb.data, 3)
			if err != nil {
				return err
			}
			if bPrint {
				fmt.Fprintf(out, " | iccLength:%d", iccLength)
			}
			if int64(iccLength) > int64(len(sb.data)-3) {
				return newCorruptedMetadataErrorf("icc length %d exceeds colr payload %d", iccLength, len(sb.data))
			}
			if bICC {
				if _, err := out.Write(sb.data[3 : 3+int(iccLength)]); err != nil {
					return err
				}
			}
		}

		if bPrint {
			fmt.Fprintln(out)
		}
		return nil
	})
}

func firstN(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}
