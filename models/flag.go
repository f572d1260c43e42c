//go:generate reform
package models

import (
	"time"

	"github.com/google/uuid"
)

// FlagKind - discriminator of the flags table
type FlagKind string

const (
	FlagKindFlagIn        FlagKind = "flag_in"
	FlagKindOptOut        FlagKind = "opt_out"
	FlagKindPercentage    FlagKind = "percentage"
	FlagKindCodeGroup     FlagKind = "code_group"
	FlagKindDatabaseGroup FlagKind = "database_group"
)

//reform:public.flags
type Flag struct {
	ID         int64     `json:"id" reform:"id,pk"`
	FeatureID  uuid.UUID `json:"feature_id" reform:"feature_id" validate:"required"`
	Kind       FlagKind  `json:"kind" reform:"kind" validate:"oneof=flag_in opt_out percentage code_group database_group"`
	RecordType string    `json:"record_type" reform:"record_type" validate:"required"`
	RecordID   int64     `json:"record_id" reform:"record_id"`
	Percentage int       `json:"percentage" reform:"percentage" validate:"min=0,max=100"`
	GroupName  string    `json:"group_name,omitempty" reform:"group_name" validate:"required_if=Kind code_group"`
	GroupID    *int64    `json:"group_id,omitempty" reform:"group_id" validate:"required_if=Kind database_group"`
	CreatedAt  time.Time `json:"created_at" reform:"created_at"`
}

func NewFlagIn(featureID uuid.UUID, recordType string, recordID int64) Flag {
	return Flag{FeatureID: featureID, Kind: FlagKindFlagIn, RecordType: recordType, RecordID: recordID}
}

func NewOptOut(featureID uuid.UUID, recordType string, recordID int64) Flag {
	return Flag{FeatureID: featureID, Kind: FlagKindOptOut, RecordType: recordType, RecordID: recordID}
}

func NewPercentage(featureID uuid.UUID, recordType string, percentage int) Flag {
	return Flag{FeatureID: featureID, Kind: FlagKindPercentage, RecordType: recordType, Percentage: percentage}
}

func NewCodeGroupFlag(featureID uuid.UUID, recordType, groupName string) Flag {
	return Flag{FeatureID: featureID, Kind: FlagKindCodeGroup, RecordType: recordType, GroupName: groupName}
}

func NewDatabaseGroupFlag(featureID uuid.UUID, group Group) Flag {
	groupID := group.ID
	return Flag{
		FeatureID:  featureID,
		Kind:       FlagKindDatabaseGroup,
		RecordType: group.RecordType,
		GroupName:  group.Name,
		GroupID:    &groupID,
	}
}

// GroupIDValue returns the referenced group id or 0
func (f *Flag) GroupIDValue() int64 {
	if f.GroupID == nil {
		return 0
	}
	return *f.GroupID
}

func (f *Flag) BeforeInsert() error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return nil
}
