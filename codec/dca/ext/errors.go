/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the sentinel errors the ext package's parsers
  return, mirroring the core package's error set (spec §7 "Error
  handling design").

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ext

import "github.com/pkg/errors"

var (
	// ErrTruncated is returned when an extension's bitstream runs out
	// before its declared structure is fully read.
	ErrTruncated = errors.New("dca/ext: truncated bitstream")
	// ErrInvalidSync is returned when an extension's sync word does not
	// match the one this parser expects.
	ErrInvalidSync = errors.New("dca/ext: invalid sync word")
	// ErrInvalidData is returned when a field's value is syntactically
	// present but violates the extension's own constraints.
	ErrInvalidData = errors.New("dca/ext: invalid data")
	// ErrUnsupported is returned for a legal but unimplemented variant,
	// such as more than one XXCH channel set.
	ErrUnsupported = errors.New("dca/ext: unsupported")
)
