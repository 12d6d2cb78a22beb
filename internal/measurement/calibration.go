package measurement

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// ParsePhysicalLength parses an operator-entered calibration length
func ParsePhysicalLength(text string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("calibration length %q is not a number: %w", text, ErrInvalidInput)
	}
	if err := validateLength(value); err != nil {
		return 0, err
	}
	return value, nil
}

// AcceptCalibration derives the pixels-per-unit scale from a fitted reference
// segment and the physical length it represents
func AcceptCalibration(reference geometry.Segment, physicalLength float64) (CalibrationRecord, error) {
	if err := validateLength(physicalLength); err != nil {
		return CalibrationRecord{}, err
	}

	pixelLength := reference.Length()
	scale := pixelLength / physicalLength
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return CalibrationRecord{}, fmt.Errorf("reference segment of %.3f px gives no usable scale: %w", pixelLength, ErrNumericDegeneracy)
	}

	return CalibrationRecord{
		Scale:          scale,
		Reference:      reference,
		PhysicalLength: physicalLength,
		AcceptedAt:     time.Now(),
	}, nil
}

// ToPhysical converts a pixel distance into physical units
func (c CalibrationRecord) ToPhysical(pixels float64) float64 {
	return pixels / c.Scale
}

func validateLength(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fmt.Errorf("calibration length must be a finite positive number, got %v: %w", value, ErrInvalidInput)
	}
	return nil
}
