package dataset

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/quangdm/sensorlake/internal/blob"
	"github.com/quangdm/sensorlake/internal/logging"
	"github.com/quangdm/sensorlake/internal/metrics"
	"github.com/quangdm/sensorlake/pkg/models"
)

// Builder reconstructs datasets from the flat object population:
// enumerate, read, filter, accumulate, sort. Object reads within one build
// are strictly sequential, so peak store concurrency stays bounded.
type Builder struct {
	store   blob.Store
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewBuilder creates a dataset builder over the given object store
func NewBuilder(store blob.Store, logger *logging.Logger, m *metrics.Metrics) *Builder {
	return &Builder{
		store:   store,
		logger:  logger.WithComponent(logging.ComponentDataset),
		metrics: m,
	}
}

// entry pairs a retained reading with its parsed timestamp so sorting never
// reparses.
type entry struct {
	reading models.Reading
	ts      time.Time
}

// Build runs one scan-filter-group-sort pass and returns the dataset.
// Enumeration failure aborts the whole build with no partial result; a
// failure reading or parsing an individual object only skips that object.
// Within each group, ties on identical timestamps keep scan-arrival order.
func (b *Builder) Build(ctx context.Context, filter models.Filter, grouping models.GroupingMode) (*models.DatasetResult, error) {
	started := time.Now()
	norm := filter.Normalized()
	prefix := ObjectPrefix(norm)

	var flat []entry
	groups := make(map[string][]entry)
	scanned := 0
	skipped := 0

	err := b.store.List(ctx, prefix, func(key string) error {
		if !strings.HasSuffix(key, ".json") {
			return nil
		}
		scanned++

		data, err := b.store.Get(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			skipped++
			b.metrics.RecordSkipped(metrics.SkipReasonReadError)
			b.logger.WithEvent(logging.EventObjectSkipped).
				WithError(err).
				WithFields(map[string]interface{}{"key": key}).
				Debug("Skipping unreadable object")
			return nil
		}

		r := ParseReading(data)
		if r == nil {
			skipped++
			b.metrics.RecordSkipped(metrics.SkipReasonMalformed)
			b.logger.WithEvent(logging.EventObjectSkipped).
				WithFields(map[string]interface{}{"key": key}).
				Debug("Skipping malformed object")
			return nil
		}

		if !Matches(r, norm) {
			b.metrics.RecordSkipped(metrics.SkipReasonFiltered)
			return nil
		}

		// Matches guarantees the timestamp parses
		ts, _ := r.Time()
		e := entry{reading: *r, ts: ts}

		switch grouping {
		case models.GroupingBySensor:
			groups[r.Sensor] = append(groups[r.Sensor], e)
		case models.GroupingByDevice:
			groups[r.DeviceID] = append(groups[r.DeviceID], e)
		default:
			flat = append(flat, e)
		}
		return nil
	})

	b.metrics.RecordScanned(scanned)

	if err != nil {
		b.metrics.RecordBuild(string(grouping), "error", time.Since(started))
		b.logger.BuildCompleted(string(grouping), 0, scanned, skipped, time.Since(started), err)
		return nil, err
	}

	result := &models.DatasetResult{Data: []models.Reading{}}

	switch grouping {
	case models.GroupingBySensor:
		result.Sensors = sortGroups(groups)
		for _, readings := range result.Sensors {
			result.Total += len(readings)
		}
	case models.GroupingByDevice:
		result.Devices = sortGroups(groups)
		for _, readings := range result.Devices {
			result.Total += len(readings)
		}
	default:
		sortEntries(flat)
		result.Data = projectEntries(flat)
		result.Total = len(result.Data)
	}

	b.metrics.RecordBuild(string(grouping), "success", time.Since(started))
	b.logger.BuildCompleted(string(grouping), result.Total, scanned, skipped, time.Since(started), nil)

	return result, nil
}

// sortEntries orders entries ascending by timestamp, stable on ties
func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ts.Before(entries[j].ts)
	})
}

func projectEntries(entries []entry) []models.Reading {
	readings := make([]models.Reading, len(entries))
	for i, e := range entries {
		readings[i] = e.reading
	}
	return readings
}

func sortGroups(groups map[string][]entry) map[string][]models.Reading {
	out := make(map[string][]models.Reading, len(groups))
	for name, entries := range groups {
		sortEntries(entries)
		out[name] = projectEntries(entries)
	}
	return out
}
