package internalerr

import "errors"

// Construction errors. A failed Add leaves the builder in its prior
// valid state; a network that failed validation is never returned.
var (
	ErrDuplicateVariable = errors.New("duplicate variable")
	ErrEmptyStateSet     = errors.New("empty state set")
	ErrDuplicateState    = errors.New("duplicate state")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrUnknownParent     = errors.New("unknown parent")
	ErrCycleDetected     = errors.New("cycle detected")
	ErrCPDShapeMismatch  = errors.New("cpd shape mismatch")
	ErrCPDNotNormalized  = errors.New("cpd not normalized")
	ErrMissingCPD        = errors.New("missing cpd")
)

// Query errors. Fatal to the call only; the network stays usable.
var (
	ErrInvalidEvidence         = errors.New("invalid evidence")
	ErrUnknownTarget           = errors.New("unknown target")
	ErrZeroProbabilityEvidence = errors.New("zero probability evidence")
)

// Configuration errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)
