package llu

import (
	"strings"
	"time"

	"github.com/lhs-project/libre-health-sync/internal/timestamp"
)

// Reading is a single glucose measurement as emitted by the service.
// FactoryTimestamp is the sensor-side UTC time and is the identity of a reading.
type Reading struct {
	FactoryTimestamp string   `json:"FactoryTimestamp,omitempty"`
	Timestamp        string   `json:"Timestamp,omitempty"`
	Type             *int     `json:"type,omitempty"`
	ValueInMgPerDl   *float64 `json:"ValueInMgPerDl,omitempty"`
	Value            *float64 `json:"Value,omitempty"`
	MeasurementColor *int     `json:"MeasurementColor,omitempty"`
	GlucoseUnits     *int     `json:"GlucoseUnits,omitempty"`
	IsHigh           *bool    `json:"isHigh,omitempty"`
	IsLow            *bool    `json:"isLow,omitempty"`
	TrendArrow       *int     `json:"TrendArrow,omitempty"`
}

// MgPerDl returns the reading value in mg/dL, preferring ValueInMgPerDl over Value.
func (r Reading) MgPerDl() (float64, bool) {
	if r.ValueInMgPerDl != nil {
		return *r.ValueInMgPerDl, true
	}
	if r.Value != nil {
		return *r.Value, true
	}
	return 0, false
}

// HasTimestamp reports whether the reading carries a factory timestamp at all
func (r Reading) HasTimestamp() bool {
	return r.FactoryTimestamp != ""
}

// ParsedTime parses the factory timestamp
func (r Reading) ParsedTime() (time.Time, error) {
	return timestamp.Parse(r.FactoryTimestamp)
}

// Trend returns the decoded trend arrow
func (r Reading) Trend() Trend {
	if r.TrendArrow == nil {
		return TrendUnknown
	}
	return TrendFromCode(*r.TrendArrow)
}

// ExternalID is the stable identifier sinks use to deduplicate a reading
func (r Reading) ExternalID() string {
	return "librelinkup-" + r.FactoryTimestamp
}

// Sensor identifies the sensor attached to a connection
type Sensor struct {
	DeviceID     string `json:"deviceId,omitempty"`
	SerialNumber string `json:"sn,omitempty"`
}

// Connection is a patient whose readings the authenticated follower account may read
type Connection struct {
	ID                 string   `json:"id"`
	PatientID          string   `json:"patientId"`
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	GlucoseMeasurement *Reading `json:"glucoseMeasurement,omitempty"`
	GlucoseItem        *Reading `json:"glucoseItem,omitempty"`
	Sensor             *Sensor  `json:"sensor,omitempty"`
}

// DisplayName joins the first and last names
func (c Connection) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// LatestReading returns the most recent reading known for the connection, if any
func (c Connection) LatestReading() *Reading {
	if c.GlucoseMeasurement != nil {
		return c.GlucoseMeasurement
	}
	return c.GlucoseItem
}

// HistoryKey is the identifier used to request the connection's history.
// The service keys history by patient id; the connection id is used when that is absent.
func (c Connection) HistoryKey() string {
	if c.PatientID != "" {
		return c.PatientID
	}
	return c.ID
}

// ActiveSensor describes a sensor currently paired with the patient
type ActiveSensor struct {
	Sensor *Sensor `json:"sensor,omitempty"`
}

// ReadingBatch is the history payload for one connection
type ReadingBatch struct {
	Connection    *Connection    `json:"connection,omitempty"`
	ActiveSensors []ActiveSensor `json:"activeSensors,omitempty"`
	GraphData     []Reading      `json:"graphData"`
}

// CurrentReading returns the connection's latest reading, carried separately from history
func (b *ReadingBatch) CurrentReading() *Reading {
	if b == nil || b.Connection == nil {
		return nil
	}
	return b.Connection.LatestReading()
}

// AuthTicket is the bearer token issued by the service
type AuthTicket struct {
	Token    string `json:"token"`
	Expires  int64  `json:"expires,omitempty"`
	Duration int64  `json:"duration,omitempty"`
}

// UserInfo is the subset of the account profile the client needs
type UserInfo struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Country   string `json:"country,omitempty"`
}

// LoginRequest is the body of the login call
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is the data section of a login response
type LoginData struct {
	User       *UserInfo   `json:"user,omitempty"`
	AuthTicket *AuthTicket `json:"authTicket,omitempty"`
	Redirect   bool        `json:"redirect,omitempty"`
	Region     string      `json:"region,omitempty"`
}

// LoginResponse is the login call's response envelope.
// Redirect hints may appear either in Data or at the top level.
type LoginResponse struct {
	Status   int         `json:"status"`
	Data     *LoginData  `json:"data,omitempty"`
	Ticket   *AuthTicket `json:"ticket,omitempty"`
	Redirect bool        `json:"redirect,omitempty"`
	Region   string      `json:"region,omitempty"`
}

// Login response status codes
const (
	StatusOK            = 0
	StatusOKAlternate   = 2
	StatusTermsRequired = 4
)
