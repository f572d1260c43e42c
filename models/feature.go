//go:generate reform
package models

import (
	"time"

	"github.com/google/uuid"
)

//reform:public.features
type Feature struct {
	ID           uuid.UUID `json:"id" reform:"id,pk"`
	Name         string    `json:"name" reform:"name" validate:"required,max=255"`
	FlagInCounts Counts    `json:"flag_in_counts" reform:"flag_in_counts"`
	OptOutCounts Counts    `json:"opt_out_counts" reform:"opt_out_counts"`
	FailureCount int64     `json:"failure_count" reform:"failure_count"`
	CreatedAt    time.Time `json:"created_at" reform:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" reform:"updated_at"`
}

// NewFeature - unpersisted feature with a fresh id
func NewFeature(name string) Feature {
	return Feature{
		ID:           uuid.New(),
		Name:         name,
		FlagInCounts: Counts{},
		OptOutCounts: Counts{},
	}
}

// FlagInCount возвращает число flag-in для типа
func (f *Feature) FlagInCount(recordType string) int64 {
	return f.FlagInCounts.Get(recordType)
}

// OptOutCount возвращает число opt-out для типа
func (f *Feature) OptOutCount(recordType string) int64 {
	return f.OptOutCounts.Get(recordType)
}

func (f *Feature) BeforeInsert() error {
	now := time.Now().UTC()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return nil
}

func (f *Feature) BeforeUpdate() error {
	f.UpdatedAt = time.Now().UTC()
	return nil
}
