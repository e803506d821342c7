package parser

// projection.go - PRJ keyword definitions
//
// A PRJ table is a list of "Keyword value" lines, for example:
//
//	Projection    UTM
//	Zone          10
//	Datum         NAD27
//	Units         METERS
//	Spheroid      CLARKE1866
//	Xshift        0.0000000000
//	Yshift        0.0000000000
//	Parameters
//
// Lines after "Parameters" hold projection parameters, one per line, in
// decimal or degrees/minutes/seconds form, optionally followed by a
// /* comment */.

import (
	"fmt"
	"strconv"
	"strings"
)

// Projection is a parsed PRJ definition.
type Projection struct {
	Name       string // value of the Projection keyword, e.g. "UTM"
	Zone       int
	HasZone    bool
	Datum      string
	Units      string
	Spheroid   string
	Zunits     string
	XShift     float64
	YShift     float64
	Parameters []float64
	Lines      []string // source lines, unmodified
}

// ParseProjection parses PRJ lines. A definition without a Projection
// keyword, or with a non-numeric Zone, Xshift or Yshift, fails with a
// *ProjectionError.
func ParseProjection(lines []string) (*Projection, error) {
	p := &Projection{Lines: append([]string(nil), lines...)}
	inParams := false
	for i, raw := range lines {
		n := i + 1
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		if inParams {
			v, err := parseParameter(line)
			if err != nil {
				return nil, &ProjectionError{Line: n, Reason: err.Error()}
			}
			p.Parameters = append(p.Parameters, v)
			continue
		}

		key, value := splitKeyword(line)
		switch strings.ToLower(key) {
		case "projection":
			p.Name = value
		case "zone":
			z, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ProjectionError{Line: n, Reason: fmt.Sprintf("zone %q is not an integer", value)}
			}
			p.Zone, p.HasZone = z, true
		case "datum":
			p.Datum = value
		case "units":
			p.Units = value
		case "spheroid":
			p.Spheroid = value
		case "zunits":
			p.Zunits = value
		case "xshift":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &ProjectionError{Line: n, Reason: fmt.Sprintf("xshift %q is not a number", value)}
			}
			p.XShift = v
		case "yshift":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &ProjectionError{Line: n, Reason: fmt.Sprintf("yshift %q is not a number", value)}
			}
			p.YShift = v
		case "parameters":
			inParams = true
		}
	}
	if p.Name == "" {
		return nil, &ProjectionError{Reason: "missing Projection keyword"}
	}
	return p, nil
}

func splitKeyword(line string) (key, value string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func stripComment(line string) string {
	if i := strings.Index(line, "/*"); i >= 0 {
		return line[:i]
	}
	return line
}

// parseParameter accepts "value" or "degrees minutes seconds".
func parseParameter(line string) (float64, error) {
	fields := strings.Fields(line)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %q is not a number", line)
		}
		vals[i] = v
	}
	switch len(vals) {
	case 1:
		return vals[0], nil
	case 3:
		neg := strings.HasPrefix(fields[0], "-")
		d := vals[0]
		if neg {
			d = -d
		}
		v := d + vals[1]/60 + vals[2]/3600
		if neg {
			v = -v
		}
		return v, nil
	default:
		return 0, fmt.Errorf("parameter %q has %d values", line, len(vals))
	}
}

// IsGeographic reports whether coordinates are longitude/latitude.
func (p *Projection) IsGeographic() bool {
	return strings.EqualFold(p.Name, "GEOGRAPHIC")
}

// WKT renders an ESRI style description of the reference system. It is
// meant for display and does not carry full CRS semantics.
func (p *Projection) WKT() string {
	datum := p.Datum
	if datum == "" {
		datum = "UNKNOWN"
	}
	geog := fmt.Sprintf(`GEOGCS["%s",DATUM["%s"`, datum, datum)
	if p.Spheroid != "" {
		geog += fmt.Sprintf(`,SPHEROID["%s"]`, p.Spheroid)
	}
	geog += `],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`
	if p.IsGeographic() {
		return geog
	}

	name := p.Name
	if p.HasZone {
		name = fmt.Sprintf("%s Zone %d", p.Name, p.Zone)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `PROJCS["%s",%s,PROJECTION["%s"]`, name, geog, p.Name)
	if p.HasZone {
		fmt.Fprintf(&sb, `,PARAMETER["Zone",%d]`, p.Zone)
	}
	if p.XShift != 0 {
		fmt.Fprintf(&sb, `,PARAMETER["False_Easting",%g]`, p.XShift)
	}
	if p.YShift != 0 {
		fmt.Fprintf(&sb, `,PARAMETER["False_Northing",%g]`, p.YShift)
	}
	for i, v := range p.Parameters {
		fmt.Fprintf(&sb, `,PARAMETER["Parameter_%d",%g]`, i+1, v)
	}
	units := p.Units
	if units == "" {
		units = "METERS"
	}
	fmt.Fprintf(&sb, `,UNIT["%s",%s]]`, units, unitFactor(units))
	return sb.String()
}

func unitFactor(units string) string {
	switch strings.ToUpper(units) {
	case "FEET":
		return "0.3048006096012192"
	default:
		return "1.0"
	}
}
