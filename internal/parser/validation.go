package parser

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// InvalidGeometryError indicates an assembled geometry that violates the
// simple feature rules.
type InvalidGeometryError struct {
	Type   string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("invalid geometry (%s): %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

// ValidateCoordinate rejects NaN and infinite coordinates.
func ValidateCoordinate(p orb.Point) error {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate (%v, %v)", p[0], p[1])
		}
	}
	return nil
}

// ValidateGeometry checks vertex counts, ring closure and coordinate values.
func ValidateGeometry(g orb.Geometry) error {
	if g == nil {
		return &InvalidGeometryError{Reason: "geometry is nil"}
	}

	switch geom := g.(type) {
	case orb.Point:
		if err := ValidateCoordinate(geom); err != nil {
			return &InvalidGeometryError{Type: geom.GeoJSONType(), Reason: err.Error()}
		}

	case orb.LineString:
		if len(geom) < 2 {
			return &InvalidGeometryError{
				Type:   geom.GeoJSONType(),
				Reason: fmt.Sprintf("line string has %d vertices, need at least 2", len(geom)),
			}
		}
		for i, p := range geom {
			if err := ValidateCoordinate(p); err != nil {
				return &InvalidGeometryError{Type: geom.GeoJSONType(), Reason: fmt.Sprintf("vertex %d: %v", i, err)}
			}
		}

	case orb.Polygon:
		for r, ring := range geom {
			if len(ring) < 4 {
				return &InvalidGeometryError{
					Type:   geom.GeoJSONType(),
					Reason: fmt.Sprintf("ring %d has %d vertices, need at least 4", r, len(ring)),
				}
			}
			if !isRingClosed(ring) {
				return &InvalidGeometryError{Type: geom.GeoJSONType(), Reason: fmt.Sprintf("ring %d is not closed", r)}
			}
			for i, p := range ring {
				if err := ValidateCoordinate(p); err != nil {
					return &InvalidGeometryError{Type: geom.GeoJSONType(), Reason: fmt.Sprintf("ring %d vertex %d: %v", r, i, err)}
				}
			}
		}
	}

	return nil
}

// ValidateFeature validates a feature's geometry.
func ValidateFeature(feature *Feature) error {
	if feature == nil {
		return fmt.Errorf("feature is nil")
	}
	if feature.Geometry == nil {
		return nil
	}
	if err := ValidateGeometry(feature.Geometry); err != nil {
		return fmt.Errorf("feature %d: %w", feature.FID, err)
	}
	return nil
}
