package util

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// FormatErrorf returns an error of kind errors.Invalid. Such errors report an
// input whose name or structure doesn't match what a reader requires, and they
// are fatal for the whole run.
func FormatErrorf(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
}

// IsFormatError reports whether err was produced by FormatErrorf, or otherwise
// carries the errors.Invalid kind.
func IsFormatError(err error) bool {
	return err != nil && errors.Is(errors.Invalid, err)
}
