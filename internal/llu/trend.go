package llu

// Trend is the direction of glucose change reported with a reading
type Trend int

const (
	// TrendUnknown means the sensor could not determine a trend
	TrendUnknown Trend = iota
	// TrendFallingFast means glucose is falling quickly
	TrendFallingFast
	// TrendFalling means glucose is falling
	TrendFalling
	// TrendStable means glucose is steady
	TrendStable
	// TrendRising means glucose is rising
	TrendRising
	// TrendRisingFast means glucose is rising quickly
	TrendRisingFast
)

var trendSymbols = map[Trend]string{
	TrendUnknown:     "?",
	TrendFallingFast: "↓↓",
	TrendFalling:     "↓",
	TrendStable:      "→",
	TrendRising:      "↑",
	TrendRisingFast:  "↑↑",
}

var trendNames = map[Trend]string{
	TrendUnknown:     "NotDetermined",
	TrendFallingFast: "FallingQuickly",
	TrendFalling:     "Falling",
	TrendStable:      "Stable",
	TrendRising:      "Rising",
	TrendRisingFast:  "RisingQuickly",
}

// TrendFromCode maps the numeric trend arrow to a Trend; unknown codes map to TrendUnknown
func TrendFromCode(code int) Trend {
	t := Trend(code)
	if _, ok := trendNames[t]; !ok {
		return TrendUnknown
	}
	return t
}

// Symbol returns the arrow glyph for the trend
func (t Trend) Symbol() string {
	if s, ok := trendSymbols[t]; ok {
		return s
	}
	return trendSymbols[TrendUnknown]
}

func (t Trend) String() string {
	if s, ok := trendNames[t]; ok {
		return s
	}
	return trendNames[TrendUnknown]
}
