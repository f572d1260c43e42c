package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"feature-rollout/entity"
	"feature-rollout/models"
	"feature-rollout/repository"
)

// bucketCount - percentages are applied in bands of 100/bucketCount
const bucketCount = 10

// ServiceRollout decides whether features are on for records.
type ServiceRollout struct {
	store  repository.Store
	groups *GroupRegistry
	log    *slog.Logger
}

type RolloutOption func(*ServiceRollout)

func WithRolloutLogger(log *slog.Logger) RolloutOption {
	return func(sr *ServiceRollout) {
		if log != nil {
			sr.log = log
		}
	}
}

func NewServiceRollout(store repository.Store, groups *GroupRegistry, opts ...RolloutOption) *ServiceRollout {
	if groups == nil {
		groups = NewGroupRegistry()
	}
	sr := &ServiceRollout{
		store:  store,
		groups: groups,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

func (sr *ServiceRollout) Groups() *GroupRegistry {
	return sr.groups
}

// Match reports whether the feature is rolled out to the record by flag-in,
// percentage or group membership, checked in that order.
func (sr *ServiceRollout) Match(ctx context.Context, feature *models.Feature, record entity.Flaggable) (bool, error) {
	if ok, err := sr.MatchByID(ctx, feature, record); err != nil || ok {
		return ok, err
	}
	if ok, err := sr.MatchPercentage(ctx, feature, record); err != nil || ok {
		return ok, err
	}
	return sr.MatchGroups(ctx, feature, record)
}

// MatchByID reports whether the record was flagged in directly.
func (sr *ServiceRollout) MatchByID(ctx context.Context, feature *models.Feature, record entity.Flaggable) (bool, error) {
	_, err := sr.store.FlagInFor(ctx, feature.ID, record.FlaggableType(), record.FlaggableID())
	return found("flag-in lookup", err)
}

// MatchPercentage reports whether the record's bucket falls under the
// percentage configured for its type.
func (sr *ServiceRollout) MatchPercentage(ctx context.Context, feature *models.Feature, record entity.Flaggable) (bool, error) {
	percentage := 0
	flag, err := sr.store.PercentageFor(ctx, feature.ID, record.FlaggableType())
	switch {
	case err == nil:
		percentage = flag.Percentage
	case !errors.Is(err, repository.ErrNotFound):
		return false, storageError("percentage lookup", err)
	}

	return Bucket(record.FlaggableID()) < percentage/(100/bucketCount), nil
}

// Bucket maps an id onto 0..9; the same id always lands in the same bucket.
func Bucket(id int64) int {
	b := id % bucketCount
	if b < 0 {
		b += bucketCount
	}
	return int(b)
}

// MatchGroups reports whether the record belongs to a code-defined or a
// database group attached to the feature for its type.
func (sr *ServiceRollout) MatchGroups(ctx context.Context, feature *models.Feature, record entity.Flaggable) (bool, error) {
	if ok, err := sr.matchCodeGroups(ctx, feature, record); err != nil || ok {
		return ok, err
	}
	return sr.matchDatabaseGroups(ctx, feature, record)
}

func (sr *ServiceRollout) matchCodeGroups(ctx context.Context, feature *models.Feature, record entity.Flaggable) (bool, error) {
	recordType := record.FlaggableType()
	defined := sr.groups.GroupNames(recordType)
	if len(defined) == 0 {
		return false, nil
	}

	flags, err := sr.store.CodeGroupFlagsFor(ctx, feature.ID, recordType)
	if err != nil {
		return false, storageError("code group flags lookup", err)
	}
	attached := make(map[string]struct{}, len(flags))
	for _, flag := range flags {
		attached[flag.GroupName] = struct{}{}
	}

	for _, groupName := range defined {
		if _, ok := attached[groupName]; !ok {
			continue
		}
		predicate, ok := sr.groups.Predicate(recordType, groupName)
		if !ok {
			continue
		}
		member, err := predicate(ctx, record)
		if err != nil {
			return false, fmt.Errorf("service: group {%s} predicate for {%s} - {%w}", groupName, recordType, err)
		}
		if member {
			return true, nil
		}
	}

	return false, nil
}

func (sr *ServiceRollout) matchDatabaseGroups(ctx context.Context, feature *models.Feature, record entity.Flaggable) (bool, error) {
	flags, err := sr.store.DatabaseGroupFlagsFor(ctx, feature.ID, record.FlaggableType())
	if err != nil {
		return false, storageError("database group flags lookup", err)
	}
	if len(flags) == 0 {
		return false, nil
	}

	groups, err := sr.store.GroupsForMember(ctx, record.FlaggableType(), record.FlaggableID())
	if err != nil {
		return false, storageError("membership lookup", err)
	}
	memberOf := make(map[int64]struct{}, len(groups))
	for _, group := range groups {
		memberOf[group.ID] = struct{}{}
	}
	for _, flag := range flags {
		if _, ok := memberOf[flag.GroupIDValue()]; ok {
			return true, nil
		}
	}

	return false, nil
}

// GroupNamesFor returns the names of the database groups the record belongs to.
func (sr *ServiceRollout) GroupNamesFor(ctx context.Context, record entity.Flaggable) ([]string, error) {
	groups, err := sr.store.GroupsForMember(ctx, record.FlaggableType(), record.FlaggableID())
	if err != nil {
		return nil, storageError("membership lookup", err)
	}
	names := make([]string, 0, len(groups))
	for _, group := range groups {
		names = append(names, group.Name)
	}
	return names, nil
}

// found turns a single-row lookup into a boolean, absence is not an error
func found(op string, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, storageError(op, err)
	}
}
