package filters

import (
	"context"

	"github.com/quangdm/sensorlake/internal/dataset"
	"github.com/quangdm/sensorlake/pkg/models"
)

// Replayer regenerates datasets from saved filter specifications. Replay is
// not a snapshot: only the specification is persisted, so a replay runs a
// live build with the same semantics as a fresh query and reflects the
// object population at call time.
type Replayer struct {
	store   Store
	builder *dataset.Builder
}

// NewReplayer creates a replayer over the given store and builder
func NewReplayer(store Store, builder *dataset.Builder) *Replayer {
	return &Replayer{store: store, builder: builder}
}

// ReplayDataset loads a saved filter and rebuilds its dataset
func (rp *Replayer) ReplayDataset(ctx context.Context, id int64) (*models.DatasetResult, error) {
	record, err := rp.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return rp.builder.Build(ctx, record.Filter.Normalized(), models.GroupingFlat)
}

// ReplayCSV loads a saved filter, rebuilds its dataset, and projects it as
// CSV. The returned name is the saved filter name, for use as the download
// filename.
func (rp *Replayer) ReplayCSV(ctx context.Context, id int64) (name string, csv string, err error) {
	record, err := rp.store.Get(ctx, id)
	if err != nil {
		return "", "", err
	}

	result, err := rp.builder.Build(ctx, record.Filter.Normalized(), models.GroupingFlat)
	if err != nil {
		return "", "", err
	}

	name = record.FilterName
	if name == "" {
		name = "dataset.csv"
	}

	return name, dataset.ProjectCSV(result), nil
}
