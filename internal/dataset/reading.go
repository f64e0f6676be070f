// Package dataset implements the reconstruction engine: it scans the flat
// object population, filters and groups surviving readings, and projects
// results as JSON-shaped datasets or CSV.
package dataset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quangdm/sensorlake/pkg/models"
)

// ParseReading parses one stored object body into a Reading. It returns nil
// for invalid JSON or missing required fields; a single malformed object
// never aborts the larger scan.
func ParseReading(data []byte) *models.Reading {
	var r models.Reading
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	if !r.Valid() {
		return nil
	}
	return &r
}

// ObjectKey builds the partitioned key under which a reading is stored:
// device_id=<D>/sensor=<S>/year=<Y>/month=<M>/day=<Dd>/<name>
func ObjectKey(deviceID, sensor string, t time.Time, name string) string {
	return fmt.Sprintf("device_id=%s/sensor=%s/year=%04d/month=%02d/day=%02d/%s",
		deviceID, sensor, t.Year(), int(t.Month()), t.Day(), name)
}

// ObjectPrefix computes the enumeration prefix for a filter. Pruning is an
// optimization only: the key layout is advisory and the predicate always
// re-validates the parsed body, so an empty prefix (full listing) is always
// correct.
func ObjectPrefix(f models.Filter) string {
	f = f.Normalized()
	switch {
	case f.DeviceID != "" && f.Sensor != "":
		return fmt.Sprintf("device_id=%s/sensor=%s/", f.DeviceID, f.Sensor)
	case f.DeviceID != "":
		return fmt.Sprintf("device_id=%s/", f.DeviceID)
	default:
		return ""
	}
}
