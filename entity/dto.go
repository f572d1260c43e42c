package entity

import (
	"fmt"

	"feature-rollout/models"
)

// Flaggable - any entity a feature can be rolled out to
type Flaggable interface {
	FlaggableType() string
	FlaggableID() int64
}

// Record - plain tagged reference {type, id} to a flaggable entity
type Record struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

func NewRecord(recordType string, id int64) Record {
	return Record{Type: recordType, ID: id}
}

// RecordOf copies the reference out of any flaggable
func RecordOf(f Flaggable) Record {
	if r, ok := f.(Record); ok {
		return r
	}
	return Record{Type: f.FlaggableType(), ID: f.FlaggableID()}
}

func (r Record) FlaggableType() string { return r.Type }

func (r Record) FlaggableID() int64 { return r.ID }

func (r Record) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

// DiscoveredFeature - feature together with the source lines that check for it
type DiscoveredFeature struct {
	Feature   models.Feature `json:"feature"`
	Persisted bool           `json:"persisted"`
	Lines     []string       `json:"lines"`
}

// Counters - reporting view over the feature counters
type Counters struct {
	FeatureName  string           `json:"feature_name"`
	FlagInCounts map[string]int64 `json:"flag_in_counts"`
	OptOutCounts map[string]int64 `json:"opt_out_counts"`
	FailureCount int64            `json:"failure_count"`
}

func NewCounters(feature models.Feature) *Counters {
	return &Counters{
		FeatureName:  feature.Name,
		FlagInCounts: feature.FlagInCounts.Clone(),
		OptOutCounts: feature.OptOutCounts.Clone(),
		FailureCount: feature.FailureCount,
	}
}
