package measurement

import (
	"fmt"

	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// AcceptBaseline stores the fitted segment's endpoints verbatim. The line may
// have any orientation in image space.
func AcceptBaseline(segment geometry.Segment) (BaselineLine, error) {
	if segment.Coefficients().Degenerate() {
		return BaselineLine{}, fmt.Errorf("baseline endpoints coincide: %w", ErrNumericDegeneracy)
	}
	return BaselineLine{Start: segment.Start, End: segment.End}, nil
}

// DistanceAndFoot returns the perpendicular distance from query to the
// infinite line through the baseline's endpoints, in pixels and in calibrated
// units, together with the foot of the perpendicular.
func DistanceAndFoot(query geometry.Point2D, baseline *BaselineLine, calibration *CalibrationRecord) (Distance, error) {
	if calibration == nil {
		return Distance{}, ErrCalibrationRequired
	}
	if baseline == nil {
		return Distance{}, ErrBaselineRequired
	}

	coeff := baseline.Segment().Coefficients()
	if coeff.Degenerate() {
		return Distance{}, fmt.Errorf("baseline endpoints coincide: %w", ErrNumericDegeneracy)
	}

	pixels := coeff.Distance(query)
	return Distance{
		Pixels:   pixels,
		Physical: calibration.ToPhysical(pixels),
		Foot:     coeff.Foot(query),
	}, nil
}
