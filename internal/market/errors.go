package market

import (
	"errors"
	"fmt"
)

// InsufficientDataError is returned when a series has too few observations to
// forecast. It is always recoverable: the synthesizer converts it into an
// error sub-object inside the report instead of failing the request.
type InsufficientDataError struct {
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Needed, e.Got)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}

// ErrInvalidRole is returned by BuildReport for an unrecognized role name.
// This is a caller contract violation and fails fast.
var ErrInvalidRole = errors.New("invalid role")

// ErrInvalidHorizon is returned for a non-positive forecast horizon.
var ErrInvalidHorizon = errors.New("forecast horizon must be positive")

// Record-level normalization errors. These only ever surface as a dropped
// record count; individual bad records never abort a batch.
var (
	errNonPositiveQuantity = errors.New("non-positive quantity")
	errNegativePrice       = errors.New("negative price")
)
