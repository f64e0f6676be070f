package dataset

import (
	"testing"
	"time"

	"github.com/quangdm/sensorlake/pkg/models"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			"complete reading",
			`{"device_id":"D1","sensor":"temperature","timestamp":"2025-01-15T10:00:00Z","value":21.5}`,
			true,
		},
		{
			"string value",
			`{"device_id":"D1","sensor":"door","timestamp":"2025-01-15T10:00:00Z","value":"open"}`,
			true,
		},
		{
			"with location",
			`{"device_id":"D1","sensor":"temperature","timestamp":"2025-01-15T10:00:00Z","value":1,"province":"Hanoi","district":"Cau Giay","ward":"Dich Vong"}`,
			true,
		},
		{"invalid json", `{not json`, false},
		{"empty body", ``, false},
		{"missing device_id", `{"sensor":"temperature","timestamp":"2025-01-15T10:00:00Z","value":1}`, false},
		{"missing sensor", `{"device_id":"D1","timestamp":"2025-01-15T10:00:00Z","value":1}`, false},
		{"missing timestamp", `{"device_id":"D1","sensor":"temperature","value":1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseReading([]byte(tt.body))
			if (r != nil) != tt.want {
				t.Errorf("ParseReading(%q) = %v, want valid=%v", tt.body, r, tt.want)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)
	got := ObjectKey("D1", "temperature", ts, "1741357800000.json")
	want := "device_id=D1/sensor=temperature/year=2025/month=03/day=07/1741357800000.json"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestObjectPrefix(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   string
	}{
		{"device and sensor", models.Filter{DeviceID: "D1", Sensor: "temperature"}, "device_id=D1/sensor=temperature/"},
		{"device only", models.Filter{DeviceID: "D1"}, "device_id=D1/"},
		{"sensor only cannot prune", models.Filter{Sensor: "temperature"}, ""},
		{"unconstrained", models.Filter{}, ""},
		{"sentinel values cannot prune", models.Filter{DeviceID: "all", Sensor: "all"}, ""},
		{"device with sentinel sensor", models.Filter{DeviceID: "D1", Sensor: "all"}, "device_id=D1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectPrefix(tt.filter); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
