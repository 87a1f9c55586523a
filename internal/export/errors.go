package export

import (
	"errors"
	"fmt"
)

var (
	// ErrExport is matched by every *ExportError.
	ErrExport = errors.New("export failed")
	// ErrUnknownFormat is returned for a format other than xlsx or csv.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrMalformed is wrapped by Decode for streams that do not follow the
	// exported layout.
	ErrMalformed = errors.New("malformed spreadsheet")
)

// ExportError identifies the first record that cannot be exported.
type ExportError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *ExportError) Is(target error) bool {
	return target == ErrExport
}
