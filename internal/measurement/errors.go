package measurement

import (
	"errors"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

var (
	// ErrInvalidInput is returned for a non-numeric or non-positive calibration length
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientPoints is returned when an accept is attempted without enough points
	ErrInsufficientPoints = geometry.ErrInsufficientPoints

	// ErrCalibrationRequired is returned when a distance is requested before calibration
	ErrCalibrationRequired = errors.New("calibration required")

	// ErrBaselineRequired is returned when a distance is requested before a baseline is set
	ErrBaselineRequired = errors.New("baseline required")

	// ErrFileAccess wraps image, log and export I/O failures
	ErrFileAccess = errors.New("file access failed")

	// ErrNumericDegeneracy is returned for zero-length reference or baseline segments
	ErrNumericDegeneracy = errors.New("numeric degeneracy")

	// ErrActionNotAllowed is returned for a command that the current phase does not accept
	ErrActionNotAllowed = errors.New("action not allowed in current phase")

	// ErrInvalidSpecimenName is returned when a file name does not split as lot_subject_<suffix>
	ErrInvalidSpecimenName = errors.New("invalid specimen file name")
)

// ErrorKind groups errors the way they are reported to the operator
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidInput
	KindInsufficientPoints
	KindPrecondition
	KindFileAccess
	KindNumericDegeneracy
	KindNotAllowed
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidInput:
		return "invalid input"
	case KindInsufficientPoints:
		return "insufficient points"
	case KindPrecondition:
		return "precondition"
	case KindFileAccess:
		return "file access"
	case KindNumericDegeneracy:
		return "numeric degeneracy"
	case KindNotAllowed:
		return "not allowed"
	default:
		return "unknown"
	}
}

// Kind classifies err. All kinds are recoverable: the operator retries the action.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidSpecimenName):
		return KindInvalidInput
	case errors.Is(err, ErrInsufficientPoints):
		return KindInsufficientPoints
	case errors.Is(err, ErrCalibrationRequired), errors.Is(err, ErrBaselineRequired):
		return KindPrecondition
	case errors.Is(err, ErrFileAccess):
		return KindFileAccess
	case errors.Is(err, ErrNumericDegeneracy), errors.Is(err, geometry.ErrDegenerateFit):
		return KindNumericDegeneracy
	case errors.Is(err, ErrActionNotAllowed):
		return KindNotAllowed
	default:
		return KindUnknown
	}
}
