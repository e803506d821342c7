package parser

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

// TestValidateCoordinate tests coordinate validation
func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		point   orb.Point
		wantErr bool
	}{
		{"projected", orb.Point{340099.875, 4100200.0}, false},
		{"negative", orb.Point{-71.05, -42.35}, false},
		{"origin", orb.Point{0, 0}, false},
		{"nan x", orb.Point{math.NaN(), 0}, true},
		{"inf y", orb.Point{0, math.Inf(1)}, true},
		{"negative inf", orb.Point{math.Inf(-1), 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.point)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateGeometry tests geometry validation
func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name     string
		geometry orb.Geometry
		wantErr  bool
	}{
		{"valid point", orb.Point{1, 2}, false},
		{"valid linestring", orb.LineString{{0, 0}, {1, 1}}, false},
		{
			name:     "valid polygon",
			geometry: orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}},
			wantErr:  false,
		},
		{
			name: "polygon with hole",
			geometry: orb.Polygon{
				{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
				{{2, 2}, {4, 2}, {4, 4}, {2, 2}},
			},
			wantErr: false,
		},
		{"empty polygon", orb.Polygon{}, false},
		{"nil", nil, true},
		{"nan point", orb.Point{math.NaN(), 1}, true},
		{"single vertex linestring", orb.LineString{{0, 0}}, true},
		{"linestring with inf", orb.LineString{{0, 0}, {math.Inf(1), 0}}, true},
		{"short ring", orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, true},
		{"unclosed ring", orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}}}, true},
		{
			name: "bad hole",
			geometry: orb.Polygon{
				{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
				{{2, 2}, {4, 2}, {4, 4}, {2, 3}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.geometry)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGeometry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateFeature tests feature validation
func TestValidateFeature(t *testing.T) {
	tests := []struct {
		name    string
		feature *Feature
		wantErr bool
	}{
		{
			name: "valid arc",
			feature: &Feature{
				FID:      1,
				Geometry: orb.LineString{{0, 0}, {1, 1}},
				Values:   []interface{}{1, 1, 2, 0, 0},
			},
			wantErr: false,
		},
		{
			name:    "no geometry",
			feature: &Feature{FID: 4, Values: []interface{}{[]int{-4, -5}}},
			wantErr: false,
		},
		{
			name:    "nil feature",
			feature: nil,
			wantErr: true,
		},
		{
			name:    "invalid geometry",
			feature: &Feature{FID: 2, Geometry: orb.LineString{{0, 0}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeature(tt.feature)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFeature() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
