// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import "fmt"

// RequiredFieldError reports a trace field that a builder cannot
// default away. Almost every field in a trace entry is optional and
// silently defaulted; the handful that are not (the entry anchor
// fields) fail parsing with this error.
type RequiredFieldError struct {
	// Field is the missing field's args key.
	Field string

	// EntryID identifies the offending query entry, when known.
	EntryID int64
}

// Error implements the error interface.
func (e *RequiredFieldError) Error() string {
	if e.EntryID != 0 {
		return fmt.Sprintf("required trace field %q missing in entry %d", e.Field, e.EntryID)
	}
	return fmt.Sprintf("required trace field %q missing", e.Field)
}
