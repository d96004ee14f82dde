// Package geom provides the 2D primitives shared by the panelization engine:
// points, rectangles, rings and polylines in a single internal unit.
//
// All coordinates are nanometres stored as float64. Conversion from and to
// millimetres happens only at the edges of the system (presets, file formats).
// The Y axis grows downwards, so the "top" side of a rectangle is its minimum Y.
package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Length conversion factors to the internal unit.
const (
	NmPerMM   = 1e6
	NmPerInch = 25.4e6
	NmPerMil  = 25400.0
)

// FromMM converts millimetres to internal units.
func FromMM(mm float64) float64 {
	return mm * NmPerMM
}

// ToMM converts internal units to millimetres.
func ToMM(v float64) float64 {
	return v / NmPerMM
}

// ParseLength reads a length with an optional unit suffix ("mm", "cm", "in",
// "mil") and returns it in internal units. A bare number is taken as mm.
func ParseLength(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty length")
	}

	units := []struct {
		suffix string
		factor float64
	}{
		{"mm", NmPerMM},
		{"cm", 10 * NmPerMM},
		{"mil", NmPerMil},
		{"in", NmPerInch},
	}

	factor := float64(NmPerMM)
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			factor = u.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return v * factor, nil
}
