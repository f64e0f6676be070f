package dataset

import (
	"strings"
	"testing"

	"github.com/quangdm/sensorlake/pkg/models"
)

func csvLines(t *testing.T, csv string) []string {
	t.Helper()
	return strings.Split(csv, "\n")
}

func TestProjectCSVFlat(t *testing.T) {
	result := &models.DatasetResult{
		Total: 2,
		Data: []models.Reading{
			{DeviceID: "D1", Sensor: "temperature", Timestamp: "2025-01-15T10:00:00Z", Value: models.NumberValue(21.5)},
			{DeviceID: "D1", Sensor: "door", Timestamp: "2025-01-15T11:00:00Z", Value: models.TextValue("open")},
		},
	}

	csv := ProjectCSV(result)
	lines := csvLines(t, csv)

	if lines[0] != CSVHeader {
		t.Errorf("expected header %q, got %q", CSVHeader, lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[1] != "2025-01-15T10:00:00Z,D1,temperature,21.5" {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if lines[2] != "2025-01-15T11:00:00Z,D1,door,open" {
		t.Errorf("unexpected second row: %q", lines[2])
	}
}

func TestProjectCSVEmpty(t *testing.T) {
	csv := ProjectCSV(&models.DatasetResult{Data: []models.Reading{}})
	if csv != CSVHeader+"\n" {
		t.Errorf("expected bare header, got %q", csv)
	}
}

func TestProjectCSVGrouped(t *testing.T) {
	result := &models.DatasetResult{
		Total: 3,
		Data:  []models.Reading{},
		Sensors: map[string][]models.Reading{
			"temperature": {
				{DeviceID: "D1", Sensor: "temperature", Timestamp: "2025-01-15T10:00:00Z", Value: models.NumberValue(21)},
				{DeviceID: "D1", Sensor: "temperature", Timestamp: "2025-01-15T11:00:00Z", Value: models.NumberValue(22)},
			},
			"humidity": {
				{DeviceID: "D1", Sensor: "humidity", Timestamp: "2025-01-15T12:00:00Z", Value: models.NumberValue(60)},
			},
		},
	}

	lines := csvLines(t, ProjectCSV(result))

	// header + exactly total rows
	if len(lines) != 1+result.Total {
		t.Fatalf("expected %d lines, got %d", 1+result.Total, len(lines))
	}

	// Groups are emitted in sorted key order: humidity before temperature
	if !strings.Contains(lines[1], "humidity") {
		t.Errorf("expected humidity group first, got %q", lines[1])
	}
}

// Round-trip property: building then projecting yields header + total lines.
func TestProjectCSVRowCountMatchesTotal(t *testing.T) {
	for _, result := range []*models.DatasetResult{
		{Total: 0, Data: []models.Reading{}},
		{Total: 1, Data: []models.Reading{{DeviceID: "D1", Sensor: "s", Timestamp: "2025-01-01", Value: models.NumberValue(1)}}},
		{
			Total: 2,
			Data:  []models.Reading{},
			Devices: map[string][]models.Reading{
				"D1": {{DeviceID: "D1", Sensor: "s", Timestamp: "2025-01-01", Value: models.NumberValue(1)}},
				"D2": {{DeviceID: "D2", Sensor: "s", Timestamp: "2025-01-02", Value: models.NumberValue(2)}},
			},
		},
	} {
		lines := csvLines(t, ProjectCSV(result))
		dataLines := 0
		for _, l := range lines[1:] {
			if l != "" {
				dataLines++
			}
		}
		if dataLines != result.Total {
			t.Errorf("expected %d data lines, got %d", result.Total, dataLines)
		}
	}
}
