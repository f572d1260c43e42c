// Package repository holds the storage contracts of the rollout engine.
// Implementations live in repository/db (PostgreSQL through reform) and
// repository/memory.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"feature-rollout/models"
)

var (
	ErrNotFound = errors.New("not found")

	ErrAlreadyExists = errors.New("already exists")
)

// Reader - lookups used by evaluation and by administrative reads.
// Single-row lookups return ErrNotFound when the row does not exist.
type Reader interface {
	FeatureByName(ctx context.Context, name string) (models.Feature, error)
	// ListFeatures returns every persisted feature ordered by name.
	ListFeatures(ctx context.Context) ([]models.Feature, error)

	FlagInFor(ctx context.Context, featureID uuid.UUID, recordType string, recordID int64) (models.Flag, error)
	// OptOutFor is scoped by feature and record id only.
	OptOutFor(ctx context.Context, featureID uuid.UUID, recordID int64) (models.Flag, error)
	PercentageFor(ctx context.Context, featureID uuid.UUID, recordType string) (models.Flag, error)
	CodeGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error)
	DatabaseGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error)
	// FlagsFor lists flags of one kind ordered by id; an empty recordType means every type.
	FlagsFor(ctx context.Context, featureID uuid.UUID, kind models.FlagKind, recordType string) ([]models.Flag, error)

	GroupByID(ctx context.Context, id int64) (models.Group, error)
	GroupByName(ctx context.Context, recordType, name string) (models.Group, error)
	// ListGroups returns groups ordered by name; an empty recordType means every type.
	ListGroups(ctx context.Context, recordType string) ([]models.Group, error)
	// MembershipsFor returns memberships ordered by member type ascending.
	MembershipsFor(ctx context.Context, groupID int64) ([]models.Membership, error)
	MembershipFor(ctx context.Context, groupID int64, memberType string, memberID int64) (models.Membership, error)
	// GroupsForMember returns groups of memberType the member belongs to.
	GroupsForMember(ctx context.Context, memberType string, memberID int64) ([]models.Group, error)
}

// Writer - mutations available inside a transaction.
type Writer interface {
	Reader

	// LockFeature loads the feature and holds it until the transaction ends.
	LockFeature(ctx context.Context, name string) (models.Feature, error)
	LockGroup(ctx context.Context, id int64) (models.Group, error)

	InsertFeature(ctx context.Context, feature *models.Feature) error
	UpdateFeature(ctx context.Context, feature *models.Feature) error
	// DeleteFeature removes the feature together with its flags.
	DeleteFeature(ctx context.Context, feature *models.Feature) error

	InsertFlag(ctx context.Context, flag *models.Flag) error
	UpdateFlag(ctx context.Context, flag *models.Flag) error
	DeleteFlag(ctx context.Context, flag *models.Flag) error

	InsertGroup(ctx context.Context, group *models.Group) error
	// DeleteGroup removes the group, its memberships and the flags referencing it.
	DeleteGroup(ctx context.Context, group *models.Group) error

	InsertMembership(ctx context.Context, membership *models.Membership) error
	DeleteMembership(ctx context.Context, membership *models.Membership) error
}

// Store - durable storage consumed by the service layer.
type Store interface {
	Reader

	// IncrementFailureCount atomically adds one to the feature failure counter.
	IncrementFailureCount(ctx context.Context, feature models.Feature) error

	// InTransaction runs fn in one transaction; any error returned by fn rolls it back.
	InTransaction(ctx context.Context, fn func(w Writer) error) error
}
