package codec

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed    = errors.New("malformed payload")
	ErrMissingField = errors.New("missing field")
	ErrPrecondition = errors.New("precondition violated")

	ErrEmptySequence         = fmt.Errorf("%w: empty sequence", ErrPrecondition)
	ErrHeterogeneousSequence = fmt.Errorf("%w: heterogeneous sequence", ErrPrecondition)
)
