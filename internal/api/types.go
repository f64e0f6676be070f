package api

import (
	"encoding/json"
	"fmt"

	"github.com/quangdm/sensorlake/pkg/models"
)

// SaveFilterRequest is the body of POST /api/export_filters. FilterJSON
// accepts either an inline object or a JSON-encoded string, matching both
// client generations.
type SaveFilterRequest struct {
	UserID     int64           `json:"user_id"`
	FilterName string          `json:"filter_name"`
	FilterJSON json.RawMessage `json:"filter_json"`
}

// Filter decodes the filter specification from either accepted encoding
func (r *SaveFilterRequest) Filter() (models.Filter, error) {
	var f models.Filter

	raw := r.FilterJSON
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return f, fmt.Errorf("invalid filter_json: %w", err)
		}
		raw = []byte(inner)
	}

	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("invalid filter_json: %w", err)
	}
	return f, nil
}

// AddDeviceRequest is the body of POST /api/add-device
type AddDeviceRequest struct {
	DeviceID    string `json:"device_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DeviceType  string `json:"device_type"`
	UserID      int64  `json:"user_id"`
	Province    string `json:"province"`
	District    string `json:"district"`
	Ward        string `json:"ward"`
}

// UploadRequest is the body of POST /api/device/upload. Every key besides
// the credentials and timestamp is treated as a sensor value; non-scalar
// values are ignored.
type UploadRequest struct {
	APIKey    string
	DeviceID  string
	Timestamp string
	Sensors   map[string]models.Value
}

// UnmarshalJSON implements json.Unmarshaler for UploadRequest
func (u *UploadRequest) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	u.Sensors = make(map[string]models.Value)
	for key, value := range raw {
		switch key {
		case "api_key":
			if err := json.Unmarshal(value, &u.APIKey); err != nil {
				return fmt.Errorf("invalid api_key: %w", err)
			}
		case "device_id":
			if err := json.Unmarshal(value, &u.DeviceID); err != nil {
				return fmt.Errorf("invalid device_id: %w", err)
			}
		case "timestamp":
			if err := json.Unmarshal(value, &u.Timestamp); err != nil {
				return fmt.Errorf("invalid timestamp: %w", err)
			}
		default:
			var v models.Value
			if err := json.Unmarshal(value, &v); err != nil {
				continue
			}
			u.Sensors[key] = v
		}
	}

	return nil
}
