package reporting

import "errors"

var (
	// ErrBusinessRequired is returned when a filter carries no business id
	ErrBusinessRequired = errors.New("business id is required")
	// ErrInvalidDateRange is returned when from is after to or a bound does not parse
	ErrInvalidDateRange = errors.New("invalid date range")
)
