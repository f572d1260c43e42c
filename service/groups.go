package service

import (
	"context"
	"maps"
	"slices"
	"sync"

	"feature-rollout/entity"
)

// GroupPredicate decides whether a record belongs to a code-defined group.
type GroupPredicate func(ctx context.Context, record entity.Flaggable) (bool, error)

// GroupRegistry holds code-defined groups keyed by record type and group name.
// Groups are defined during configuration and read during evaluation; Reset
// clears them for reloads and tests.
type GroupRegistry struct {
	mu     sync.RWMutex
	groups map[string]map[string]GroupPredicate
}

func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{groups: make(map[string]map[string]GroupPredicate)}
}

// Define registers (or replaces) the predicate of a group.
func (gr *GroupRegistry) Define(recordType, groupName string, predicate GroupPredicate) {
	if predicate == nil {
		return
	}
	gr.mu.Lock()
	defer gr.mu.Unlock()

	byName, ok := gr.groups[recordType]
	if !ok {
		byName = make(map[string]GroupPredicate)
		gr.groups[recordType] = byName
	}
	byName[groupName] = predicate
}

// Undefine removes a single group; it reports whether the group existed.
func (gr *GroupRegistry) Undefine(recordType, groupName string) bool {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	byName, ok := gr.groups[recordType]
	if !ok {
		return false
	}
	if _, ok := byName[groupName]; !ok {
		return false
	}
	delete(byName, groupName)
	if len(byName) == 0 {
		delete(gr.groups, recordType)
	}
	return true
}

func (gr *GroupRegistry) Reset() {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	gr.groups = make(map[string]map[string]GroupPredicate)
}

// GroupNames returns the names defined for recordType, sorted.
func (gr *GroupRegistry) GroupNames(recordType string) []string {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return slices.Sorted(maps.Keys(gr.groups[recordType]))
}

func (gr *GroupRegistry) Predicate(recordType, groupName string) (GroupPredicate, bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	predicate, ok := gr.groups[recordType][groupName]
	return predicate, ok
}
