/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

import "errors"

var (
	// ErrParse indicates a malformed TLV, a duplicate key, or a
	// structural violation in a submitted blob.
	ErrParse = errors.New("parse error")
	// ErrNoBufs indicates the registry buffer is full or an identifier
	// space is exhausted.
	ErrNoBufs = errors.New("no buffer space")
	// ErrNoRoute indicates the submitter's router ID is not allocated.
	ErrNoRoute = errors.New("no route")
	// ErrNotFound is used internally by lookups and never surfaced.
	ErrNotFound = errors.New("not found")
	// ErrDrop indicates a response is intentionally not generated.
	ErrDrop = errors.New("drop")
)
