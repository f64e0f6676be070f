package dataset

import (
	"github.com/quangdm/sensorlake/pkg/models"
)

// Matches evaluates a reading against a filter specification. Pure function:
// a reading passes iff every active constraint passes. A reading with an
// unparsable timestamp never matches, and a reading missing an optional
// field is rejected by an active constraint on that field.
func Matches(r *models.Reading, f models.Filter) bool {
	f = f.Normalized()

	t, err := r.Time()
	if err != nil {
		return false
	}

	start, end := f.Window()
	if t.Before(start) || t.After(end) {
		return false
	}

	if f.DeviceID != "" && r.DeviceID != f.DeviceID {
		return false
	}
	if f.Sensor != "" && r.Sensor != f.Sensor {
		return false
	}
	if f.Province != "" && r.Province != f.Province {
		return false
	}
	if f.District != "" && r.District != f.District {
		return false
	}
	if f.Ward != "" && r.Ward != f.Ward {
		return false
	}

	return true
}
