package dataset

import (
	"sort"
	"strings"

	"github.com/quangdm/sensorlake/pkg/models"
)

// CSVHeader is the fixed header line of every projection
const CSVHeader = "timestamp,device_id,sensor,value"

// ProjectCSV flattens a dataset into tabular text: the flat rows first, then
// all by-sensor groups, then all by-device groups, each group in sorted key
// order so output is deterministic. Values are written verbatim; embedded
// commas are not escaped (known limitation of the export format).
func ProjectCSV(result *models.DatasetResult) string {
	rows := make([]models.Reading, 0, result.Total)
	rows = append(rows, result.Data...)

	for _, name := range sortedKeys(result.Sensors) {
		rows = append(rows, result.Sensors[name]...)
	}
	for _, name := range sortedKeys(result.Devices) {
		rows = append(rows, result.Devices[name]...)
	}

	var sb strings.Builder
	sb.WriteString(CSVHeader)
	sb.WriteByte('\n')

	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.Timestamp)
		sb.WriteByte(',')
		sb.WriteString(r.DeviceID)
		sb.WriteByte(',')
		sb.WriteString(r.Sensor)
		sb.WriteByte(',')
		sb.WriteString(r.Value.String())
	}

	return sb.String()
}

func sortedKeys(groups map[string][]models.Reading) []string {
	if len(groups) == 0 {
		return nil
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
