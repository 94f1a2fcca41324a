/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the DCA core decoder's error taxonomy (spec §7): a
  distinct sentinel per error kind, wrapped with github.com/pkg/errors'
  Wrap/Wrapf at each call site the way the teacher's codec/h264 package
  annotates its own parse errors with positional context.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package core

import "github.com/pkg/errors"

// Sentinel error kinds, matched against with errors.Is after unwrapping
// any github.com/pkg/errors context added along the way.
var (
	// ErrTruncated is returned when the bit reader is exhausted before a
	// required field is fully read.
	ErrTruncated = errors.New("dca/core: truncated bitstream")
	// ErrInvalidSync is returned when a sync word is missing or wrong at
	// an expected position.
	ErrInvalidSync = errors.New("dca/core: invalid sync word")
	// ErrInvalidData is returned when a field value is outside its legal
	// range.
	ErrInvalidData = errors.New("dca/core: invalid field value")
	// ErrCrcMismatch is returned when a CRC-protected region fails
	// validation.
	ErrCrcMismatch = errors.New("dca/core: CRC mismatch")
	// ErrUnsupported is returned for a legal but unimplemented feature.
	ErrUnsupported = errors.New("dca/core: unsupported feature")
	// ErrOutOfMemory is returned when sample buffer allocation fails.
	ErrOutOfMemory = errors.New("dca/core: allocation failed")
	// ErrNeedMoreData is returned when an EXSS XLL PBR buffer does not
	// yet contain a complete frame.
	ErrNeedMoreData = errors.New("dca/core: need more data")
)
