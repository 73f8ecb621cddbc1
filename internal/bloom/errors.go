package bloom

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the parent of every construction error. Callers
	// that only care whether the input was rejected can test for it with
	// errors.Is.
	ErrInvalidArgument = errors.New("bloom: invalid argument")

	ErrInvalidSize     = fmt.Errorf("%w: size must be at least 1 byte", ErrInvalidArgument)
	ErrInvalidCapacity = fmt.Errorf("%w: capacity must be at least 1", ErrInvalidArgument)
	ErrInvalidStrategy = fmt.Errorf("%w: unknown strategy", ErrInvalidArgument)
	ErrInvalidHash     = fmt.Errorf("%w: unknown hash function", ErrInvalidArgument)

	// ErrDegenerateModulus is returned when positions are requested for a
	// bitfield with no bits. Construction validation makes it unreachable
	// from Filter.
	ErrDegenerateModulus = errors.New("bloom: modulus must be non-zero")
)
