// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the container reader and writer. Use errors.Is
// or the Is* helpers below to classify; the concrete error values usually
// carry additional context wrapped around these.
var (
	// ErrDataSourceOpenFailed means the I/O adapter could not open the input.
	ErrDataSourceOpenFailed = errors.New("jp2meta: data source open failed")

	// ErrNotAnImage means the input does not start with the JP2 signature.
	ErrNotAnImage = errors.New("jp2meta: not a JPEG-2000 image")

	// ErrCorruptedMetadata means a box-grammar violation: an overlong or
	// extended box length, the box budget exceeded, a sub-box running past
	// its parent, or an inconsistent ICC length.
	ErrCorruptedMetadata = errors.New("jp2meta: corrupted metadata")

	// ErrFailedToReadImageData means the underlying reader reported an error.
	ErrFailedToReadImageData = errors.New("jp2meta: failed to read image data")

	// ErrInputDataReadFailed means a short read where bytes were required.
	ErrInputDataReadFailed = errors.New("jp2meta: input data read failed")

	// ErrImageWriteFailed means a short write during rewrite.
	ErrImageWriteFailed = errors.New("jp2meta: image write failed")

	// ErrNoImageInInputData means a write was attempted against an input
	// that does not carry a valid JP2 signature.
	ErrNoImageInInputData = errors.New("jp2meta: no image found in input data")

	// ErrInvalidSettingForImage means the operation is not supported by the
	// JP2 format, e.g. setting a comment.
	ErrInvalidSettingForImage = errors.New("jp2meta: invalid setting for image")
)

func newCorruptedMetadataErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptedMetadata, fmt.Sprintf(format, args...))
}

// IsCorruptedMetadata reports whether err is a box-grammar violation.
func IsCorruptedMetadata(err error) bool {
	return errors.Is(err, ErrCorruptedMetadata)
}

// IsNotAnImage reports whether err is a signature mismatch.
func IsNotAnImage(err error) bool {
	return errors.Is(err, ErrNotAnImage)
}
