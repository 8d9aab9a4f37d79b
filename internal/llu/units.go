package llu

import (
	"fmt"
	"strconv"
)

// DisplayUnit is the unit glucose values are presented in
type DisplayUnit string

const (
	// UnitMgPerDl presents values in milligrams per decilitre
	UnitMgPerDl DisplayUnit = "mg/dL"
	// UnitMmolPerL presents values in millimoles per litre
	UnitMmolPerL DisplayUnit = "mmol/L"
)

// mgPerDlPerMmol is the conversion factor for glucose
const mgPerDlPerMmol = 18.0182

// Glucose range boundaries in mg/dL
const (
	LowThresholdMgPerDl  = 70.0
	HighThresholdMgPerDl = 180.0
)

// ParseDisplayUnit accepts "mg/dL" or "mmol/L" (an empty string means mg/dL)
func ParseDisplayUnit(s string) (DisplayUnit, error) {
	switch DisplayUnit(s) {
	case "", UnitMgPerDl:
		return UnitMgPerDl, nil
	case UnitMmolPerL:
		return UnitMmolPerL, nil
	default:
		return "", fmt.Errorf("unsupported display unit %q", s)
	}
}

// Convert expresses an mg/dL value in the unit
func (u DisplayUnit) Convert(mgPerDl float64) float64 {
	if u == UnitMmolPerL {
		return mgPerDl / mgPerDlPerMmol
	}
	return mgPerDl
}

// Format renders an mg/dL value in the unit with its customary precision
func (u DisplayUnit) Format(mgPerDl float64) string {
	if u == UnitMmolPerL {
		return strconv.FormatFloat(u.Convert(mgPerDl), 'f', 1, 64)
	}
	return strconv.FormatFloat(mgPerDl, 'f', 0, 64)
}

// Range classifies a glucose value
type Range string

// Glucose ranges
const (
	RangeLow     Range = "low"
	RangeInRange Range = "in-range"
	RangeHigh    Range = "high"
)

// Classify returns the range an mg/dL value falls into
func Classify(mgPerDl float64) Range {
	switch {
	case mgPerDl < LowThresholdMgPerDl:
		return RangeLow
	case mgPerDl > HighThresholdMgPerDl:
		return RangeHigh
	default:
		return RangeInRange
	}
}
