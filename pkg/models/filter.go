package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Unconstrained is the sentinel filter value meaning "no constraint".
// Both it and the empty string are normalized away before evaluation.
const Unconstrained = "all"

// Window sentinel bounds. Substituting them for missing sides keeps the
// timestamp comparison total.
var (
	WindowFloor = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	WindowCeil  = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// timestampFormats is the ordered list of accepted timestamp layouts
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601-ish timestamp string against the
// accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

// Filter is a user-supplied constraint set selecting a dataset subset.
// A Filter is immutable once saved.
type Filter struct {
	DeviceID string `json:"device_id,omitempty"`
	Sensor   string `json:"sensor,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Province string `json:"province,omitempty"`
	District string `json:"district,omitempty"`
	Ward     string `json:"ward,omitempty"`
}

// filterJSON accepts both the flat shape and the legacy export shape where
// the location fields are nested under "location".
type filterJSON struct {
	DeviceID string `json:"device_id"`
	Sensor   string `json:"sensor"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Province string `json:"province"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Location *struct {
		Province string `json:"province"`
		District string `json:"district"`
		Ward     string `json:"ward"`
	} `json:"location"`
}

// UnmarshalJSON implements json.Unmarshaler for Filter
func (f *Filter) UnmarshalJSON(b []byte) error {
	var raw filterJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	f.DeviceID = raw.DeviceID
	f.Sensor = raw.Sensor
	f.Start = raw.Start
	f.End = raw.End
	f.Province = raw.Province
	f.District = raw.District
	f.Ward = raw.Ward

	if raw.Location != nil {
		if f.Province == "" {
			f.Province = raw.Location.Province
		}
		if f.District == "" {
			f.District = raw.Location.District
		}
		if f.Ward == "" {
			f.Ward = raw.Location.Ward
		}
	}

	return nil
}

// Normalized returns a copy with every unconstrained field ("all" or empty)
// cleared, so the predicate only ever sees active constraints.
func (f Filter) Normalized() Filter {
	clear := func(s string) string {
		if s == "" || s == Unconstrained {
			return ""
		}
		return s
	}

	return Filter{
		DeviceID: clear(f.DeviceID),
		Sensor:   clear(f.Sensor),
		Start:    clear(f.Start),
		End:      clear(f.End),
		Province: clear(f.Province),
		District: clear(f.District),
		Ward:     clear(f.Ward),
	}
}

// Window returns the effective [start, end] bounds, substituting the
// sentinel bounds for missing or unparsable sides.
func (f Filter) Window() (time.Time, time.Time) {
	start := WindowFloor
	end := WindowCeil

	norm := f.Normalized()
	if norm.Start != "" {
		if t, err := ParseTimestamp(norm.Start); err == nil {
			start = t
		}
	}
	if norm.End != "" {
		if t, err := ParseTimestamp(norm.End); err == nil {
			end = t
		}
	}

	return start, end
}
