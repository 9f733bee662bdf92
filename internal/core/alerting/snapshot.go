package alerting

import (
	"context"
)

// Snapshot is an immutable point-in-time nested mapping of metric names
// to values. Leaves are numeric; interior nodes are nested maps.
type Snapshot map[string]interface{}

// SnapshotProvider supplies metric snapshots to the scheduler. Providers
// are external collaborators; the engine treats them uniformly.
type SnapshotProvider interface {
	Name() string
	GetSnapshot(ctx context.Context) (Snapshot, error)
}

// MergeSnapshots combines provider snapshots into one tree. Later
// snapshots win on conflicting top-level keys; providers are expected to
// publish under disjoint roots.
func MergeSnapshots(snapshots ...Snapshot) Snapshot {
	merged := make(Snapshot)
	for _, s := range snapshots {
		for k, v := range s {
			merged[k] = v
		}
	}
	return merged
}
