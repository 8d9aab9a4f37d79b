package llu

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestReading_MgPerDl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reading Reading
		want    float64
		wantOK  bool
	}{
		{name: "prefers mg/dL field", reading: Reading{ValueInMgPerDl: ptr(110.0), Value: ptr(6.1)}, want: 110, wantOK: true},
		{name: "falls back to value", reading: Reading{Value: ptr(95.0)}, want: 95, wantOK: true},
		{name: "no value", reading: Reading{}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.reading.MgPerDl()
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestReading_DecodeFromService(t *testing.T) {
	t.Parallel()

	payload := `{
		"FactoryTimestamp": "10/18/2026 3:04:05 PM",
		"Timestamp": "10/18/2026 5:04:05 PM",
		"type": 1,
		"ValueInMgPerDl": 123,
		"TrendArrow": 4,
		"MeasurementColor": 1,
		"GlucoseUnits": 1,
		"Value": 123,
		"isHigh": false,
		"isLow": false
	}`

	var r Reading
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	value, ok := r.MgPerDl()
	require.True(t, ok)
	assert.InDelta(t, 123.0, value, 0.0001)
	assert.Equal(t, TrendRising, r.Trend())
	assert.True(t, r.HasTimestamp())
	assert.Equal(t, "librelinkup-10/18/2026 3:04:05 PM", r.ExternalID())

	parsed, err := r.ParsedTime()
	require.NoError(t, err)
	assert.Equal(t, 15, parsed.Hour())
}

func TestConnection(t *testing.T) {
	t.Parallel()

	measurement := &Reading{FactoryTimestamp: "1/1/2026 1:00:00 PM"}
	item := &Reading{FactoryTimestamp: "1/1/2026 12:00:00 PM"}

	c := Connection{ID: "conn", PatientID: "patient", FirstName: "Ada", LastName: "Lovelace", GlucoseItem: item}
	assert.Equal(t, "Ada Lovelace", c.DisplayName())
	assert.Equal(t, item, c.LatestReading())
	assert.Equal(t, "patient", c.HistoryKey())

	c.GlucoseMeasurement = measurement
	assert.Equal(t, measurement, c.LatestReading())

	c.PatientID = ""
	assert.Equal(t, "conn", c.HistoryKey())

	var batch *ReadingBatch
	assert.Nil(t, batch.CurrentReading())
	assert.Equal(t, measurement, (&ReadingBatch{Connection: &c}).CurrentReading())
}

func TestTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   int
		trend  Trend
		symbol string
		name   string
	}{
		{0, TrendUnknown, "?", "NotDetermined"},
		{1, TrendFallingFast, "↓↓", "FallingQuickly"},
		{2, TrendFalling, "↓", "Falling"},
		{3, TrendStable, "→", "Stable"},
		{4, TrendRising, "↑", "Rising"},
		{5, TrendRisingFast, "↑↑", "RisingQuickly"},
		{6, TrendUnknown, "?", "NotDetermined"},
		{-1, TrendUnknown, "?", "NotDetermined"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code %d", tt.code), func(t *testing.T) {
			t.Parallel()
			trend := TrendFromCode(tt.code)
			assert.Equal(t, tt.trend, trend)
			assert.Equal(t, tt.symbol, trend.Symbol())
			assert.Equal(t, tt.name, trend.String())
		})
	}

	assert.Equal(t, TrendUnknown, Reading{}.Trend())
}

func TestRegion(t *testing.T) {
	t.Parallel()

	r, err := ParseRegion("EU")
	require.NoError(t, err)
	assert.Equal(t, RegionEU, r)
	assert.Equal(t, "https://api-eu.libreview.io", r.BaseURL())
	assert.Equal(t, "Europe", r.DisplayName())

	_, err = ParseRegion("mars")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidURL)

	assert.Len(t, Regions(), 13)
	assert.Equal(t, "", Region("mars").BaseURL())
}

func TestMatchRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   Region
		wantOK bool
	}{
		{input: "eu", want: RegionEU, wantOK: true},
		{input: "EU2", want: RegionEU2, wantOK: true},
		{input: "libreview.ru", want: RegionRU, wantOK: true},
		{input: "", wantOK: false},
		{input: "atlantis", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := MatchRedirect(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayUnit(t *testing.T) {
	t.Parallel()

	u, err := ParseDisplayUnit("")
	require.NoError(t, err)
	assert.Equal(t, UnitMgPerDl, u)
	assert.Equal(t, "120", u.Format(120))

	u, err = ParseDisplayUnit("mmol/L")
	require.NoError(t, err)
	assert.Equal(t, "6.7", u.Format(120))
	assert.InDelta(t, 5.55, u.Convert(100), 0.01)

	_, err = ParseDisplayUnit("stone")
	assert.Error(t, err)

	assert.Equal(t, RangeLow, Classify(69))
	assert.Equal(t, RangeInRange, Classify(70))
	assert.Equal(t, RangeInRange, Classify(180))
	assert.Equal(t, RangeHigh, Classify(181))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	expired := fmt.Errorf("fetching connections: %w", NewTokenExpiredError())
	assert.True(t, IsTokenExpired(expired))
	assert.True(t, IsAuthentication(expired))
	assert.Contains(t, expired.Error(), "Token expired (HTTP 401)")

	rejected := &AuthenticationError{Reason: "status: 1"}
	assert.False(t, IsTokenExpired(rejected))
	assert.True(t, IsAuthentication(rejected))

	invalid := NewInvalidResponseError(500)
	assert.ErrorIs(t, invalid, ErrInvalidResponse)
	assert.Contains(t, invalid.Error(), "500")

	cause := errors.New("connection reset")
	var netErr *NetworkError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", &NetworkError{Err: cause}), &netErr)
	assert.ErrorIs(t, netErr, cause)

	var decErr *DecodingError
	require.ErrorAs(t, &DecodingError{Err: cause}, &decErr)
	assert.False(t, IsAuthentication(ErrTermsRequired))
}
