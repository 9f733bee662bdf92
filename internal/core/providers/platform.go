package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// PlatformProvider holds externally fed platform metrics: cost figures,
// migration progress, cross-integration health scores. The engine treats
// the values as opaque; collaborators push updates through Set.
type PlatformProvider struct {
	mu     sync.RWMutex
	values map[string]float64
	name   string
}

// NewPlatformProvider creates an empty platform metrics provider
func NewPlatformProvider(name string) *PlatformProvider {
	if name == "" {
		name = "platform"
	}
	return &PlatformProvider{
		values: make(map[string]float64),
		name:   name,
	}
}

// Name implements alerting.SnapshotProvider
func (p *PlatformProvider) Name() string { return p.name }

// Set records a metric value under a dotted path
func (p *PlatformProvider) Set(path string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[path] = value
}

// SetAll replaces a batch of metric values
func (p *PlatformProvider) SetAll(values map[string]float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for path, value := range values {
		p.values[path] = value
	}
}

// GetSnapshot expands the flat dotted paths into the nested snapshot
// tree the condition evaluator walks
func (p *PlatformProvider) GetSnapshot(ctx context.Context) (alerting.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make(alerting.Snapshot)
	for path, value := range p.values {
		insertPath(snapshot, path, value)
	}
	return snapshot, nil
}

// insertPath writes a value into the nested tree, creating intermediate
// maps as needed. A leaf/branch conflict keeps the existing entry.
func insertPath(root map[string]interface{}, path string, value float64) {
	segments := strings.Split(path, ".")
	node := root
	for i, segment := range segments {
		if i == len(segments)-1 {
			node[segment] = value
			return
		}
		next, exists := node[segment]
		if !exists {
			child := make(map[string]interface{})
			node[segment] = child
			node = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return
		}
		node = child
	}
}
