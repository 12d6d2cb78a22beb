package geometry

import (
	"math"
	"testing"
)

func TestPoint2DAdd(t *testing.T) {
	p1 := NewPoint2D(1, 2)
	p2 := NewPoint2D(4, 5)
	result := p1.Add(p2)

	expected := NewPoint2D(5, 7)
	if result != expected {
		t.Errorf("Add failed: expected %v, got %v", expected, result)
	}
}

func TestPoint2DSub(t *testing.T) {
	p1 := NewPoint2D(5, 7)
	p2 := NewPoint2D(1, 2)
	result := p1.Sub(p2)

	expected := NewPoint2D(4, 5)
	if result != expected {
		t.Errorf("Sub failed: expected %v, got %v", expected, result)
	}
}

func TestPoint2DLength(t *testing.T) {
	p := NewPoint2D(3, 4)
	length := p.Length()

	expected := 5.0
	if math.Abs(length-expected) > 1e-10 {
		t.Errorf("Length failed: expected %v, got %v", expected, length)
	}
}

func TestPoint2DDistance(t *testing.T) {
	p1 := NewPoint2D(0, 0)
	p2 := NewPoint2D(3, 4)
	distance := p1.Distance(p2)

	expected := 5.0
	if math.Abs(distance-expected) > 1e-10 {
		t.Errorf("Distance failed: expected %v, got %v", expected, distance)
	}
}

func TestPoint2DNormalize(t *testing.T) {
	p := NewPoint2D(3, 4)
	normalized := p.Normalize()

	if math.Abs(normalized.Length()-1.0) > 1e-10 {
		t.Errorf("Normalize failed: expected length 1, got %v", normalized.Length())
	}

	zero := NewPoint2D(0, 0).Normalize()
	if zero != (Point2D{}) {
		t.Errorf("Normalize of zero vector should stay zero, got %v", zero)
	}
}

func TestPoint2DDot(t *testing.T) {
	p1 := NewPoint2D(1, 2)
	p2 := NewPoint2D(4, 5)
	result := p1.Dot(p2)

	expected := 14.0 // 1*4 + 2*5 = 14
	if math.Abs(result-expected) > 1e-10 {
		t.Errorf("Dot failed: expected %v, got %v", expected, result)
	}
}

func TestPoint2DIsFinite(t *testing.T) {
	if !NewPoint2D(1, 2).IsFinite() {
		t.Error("expected (1,2) to be finite")
	}
	if NewPoint2D(math.NaN(), 0).IsFinite() {
		t.Error("expected NaN point to be non-finite")
	}
	if NewPoint2D(0, math.Inf(1)).IsFinite() {
		t.Error("expected Inf point to be non-finite")
	}
}
