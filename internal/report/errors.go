package report

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilter is matched by every *InvalidFilterError.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidLimit is matched by every *InvalidLimitError.
	ErrInvalidLimit = errors.New("invalid recent limit")
)

// InvalidFilterError reports a year selector that is neither "all" nor a
// calendar year. It is returned to the caller as-is; the engine never falls
// back to "all" on its own.
type InvalidFilterError struct {
	Selector string
	Reason   string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid year filter %q: %s", e.Selector, e.Reason)
}

func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// InvalidLimitError reports a non-positive recent-transactions limit.
type InvalidLimitError struct {
	Limit int
}

func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("invalid recent limit %d: must be at least 1", e.Limit)
}

func (e *InvalidLimitError) Is(target error) bool {
	return target == ErrInvalidLimit
}
