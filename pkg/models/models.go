// Package models defines core data structures for readings, filters,
// datasets, and device metadata shared across the application.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is a sensor measurement that may arrive as a JSON number or string.
// It round-trips whichever form was stored.
type Value struct {
	Number  float64
	Text    string
	Numeric bool
}

// UnmarshalJSON implements json.Unmarshaler for Value
func (v *Value) UnmarshalJSON(b []byte) error {
	// json.Unmarshal treats null as a no-op on float64, which would turn
	// {"value":null} into numeric 0
	if string(b) == "null" {
		return fmt.Errorf("value must be a number or string, not null")
	}

	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		v.Number = n
		v.Numeric = true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("value must be a number or string: %w", err)
	}

	v.Text = s
	return nil
}

// MarshalJSON implements json.Marshaler for Value
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

// String renders the value the way it appears in a CSV cell
func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// NumberValue builds a numeric Value
func NumberValue(n float64) Value {
	return Value{Number: n, Numeric: true}
}

// TextValue builds a string Value
func TextValue(s string) Value {
	return Value{Text: s}
}

// Reading is one immutable sensor observation stored as a single bucket
// object. The read side never mutates a Reading.
type Reading struct {
	DeviceID  string `json:"device_id"`
	Sensor    string `json:"sensor"`
	Timestamp string `json:"timestamp"`
	Value     Value  `json:"value"`
	Province  string `json:"province,omitempty"`
	District  string `json:"district,omitempty"`
	Ward      string `json:"ward,omitempty"`
}

// Valid reports whether the required fields are present. Invalid readings
// are excluded from every dataset.
func (r *Reading) Valid() bool {
	return r.DeviceID != "" && r.Sensor != "" && r.Timestamp != ""
}

// Time parses the reading timestamp
func (r *Reading) Time() (time.Time, error) {
	return ParseTimestamp(r.Timestamp)
}

// GroupingMode selects the output shape of a dataset build
type GroupingMode string

const (
	GroupingFlat     GroupingMode = "flat"
	GroupingBySensor GroupingMode = "by-sensor"
	GroupingByDevice GroupingMode = "by-device"
)

// DatasetResult is the filtered, grouped, sorted output of one build.
// Exactly one shape is populated per build; Total always equals the sum of
// cardinalities across all groups.
type DatasetResult struct {
	Total   int                  `json:"total"`
	Data    []Reading            `json:"data"`
	Sensors map[string][]Reading `json:"sensors,omitempty"`
	Devices map[string][]Reading `json:"devices,omitempty"`
}

// SavedFilter is a persisted filter specification, replayable on demand.
// Records are created once, read many times, and deleted explicitly.
type SavedFilter struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FilterName string    `json:"filter_name"`
	Filter     Filter    `json:"filter_json"`
	CreatedAt  time.Time `json:"created_at"`
}

// Device is registered device metadata. Ingestion stamps the device's
// location fields onto every reading it writes.
type Device struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DeviceType  string    `json:"device_type"`
	APIKey      string    `json:"api_key,omitempty"`
	UserID      int64     `json:"user_id"`
	Province    string    `json:"province,omitempty"`
	District    string    `json:"district,omitempty"`
	Ward        string    `json:"ward,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeviceType is a registered category of devices
type DeviceType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Location renders the display form "ward, district, province", skipping
// empty parts.
func (d *Device) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Ward, d.District, d.Province} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
