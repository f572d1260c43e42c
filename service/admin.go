package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"feature-rollout/entity"
	"feature-rollout/models"
	"feature-rollout/repository"
)

// Loader resolves a polymorphic reference back to the entity.
type Loader interface {
	LoadByID(ctx context.Context, recordType string, id int64) (entity.Flaggable, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, recordType string, id int64) (entity.Flaggable, error)

func (fn LoaderFunc) LoadByID(ctx context.Context, recordType string, id int64) (entity.Flaggable, error) {
	return fn(ctx, recordType, id)
}

// ServiceAdmin mutates features, flags and database groups. Every method runs
// in its own transaction; InTransaction groups several mutations into one.
type ServiceAdmin struct {
	store          repository.Store
	flaggableTypes []string
	loader         Loader
	log            *slog.Logger
}

type AdminOption func(*ServiceAdmin)

// WithFlaggableTypes sets the record types database groups may be created for.
func WithFlaggableTypes(types ...string) AdminOption {
	return func(sa *ServiceAdmin) {
		sa.flaggableTypes = slices.Clone(types)
	}
}

func WithLoader(loader Loader) AdminOption {
	return func(sa *ServiceAdmin) {
		sa.loader = loader
	}
}

func WithAdminLogger(log *slog.Logger) AdminOption {
	return func(sa *ServiceAdmin) {
		if log != nil {
			sa.log = log
		}
	}
}

func NewServiceAdmin(store repository.Store, opts ...AdminOption) *ServiceAdmin {
	sa := &ServiceAdmin{
		store: store,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(sa)
	}
	return sa
}

func (sa *ServiceAdmin) FlaggableTypes() []string {
	return slices.Clone(sa.flaggableTypes)
}

// InTransaction runs fn in one transaction. Nothing fn did persists when it
// returns an error, and that error is returned as is.
func (sa *ServiceAdmin) InTransaction(ctx context.Context, fn func(tx *AdminTx) error) error {
	var fnErr error
	err := sa.store.InTransaction(ctx, func(w repository.Writer) error {
		fnErr = fn(&AdminTx{sa: sa, w: w})
		return fnErr
	})
	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		sa.log.DebugContext(ctx, "admin transaction rolled back", slog.Any("error", fnErr))
		return fnErr
	default:
		sa.log.ErrorContext(ctx, "admin transaction", slog.Any("error", err))
		return storageError("transaction", err)
	}
}

func inTx[T any](ctx context.Context, sa *ServiceAdmin, fn func(tx *AdminTx) (T, error)) (T, error) {
	var out T
	err := sa.InTransaction(ctx, func(tx *AdminTx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// AdminTx exposes the administrative operations inside one transaction.
type AdminTx struct {
	sa *ServiceAdmin
	w  repository.Writer
}

// ==================== features ====================

func (tx *AdminTx) CreateFeature(ctx context.Context, name string) (models.Feature, error) {
	feature := models.NewFeature(name)
	if err := validateStruct(feature); err != nil {
		return models.Feature{}, err
	}
	if err := tx.w.InsertFeature(ctx, &feature); err != nil {
		return models.Feature{}, translate("feature insert", "name", name, err)
	}
	tx.sa.log.InfoContext(ctx, "feature created", slog.String("feature", name))
	return feature, nil
}

// EnsureFeature returns the feature, creating it on first reference.
// A concurrent create makes it fail with a unique ValidationError.
func (tx *AdminTx) EnsureFeature(ctx context.Context, name string) (models.Feature, error) {
	feature, err := tx.w.LockFeature(ctx, name)
	switch {
	case err == nil:
		return feature, nil
	case errors.Is(err, repository.ErrNotFound):
		return tx.CreateFeature(ctx, name)
	default:
		return models.Feature{}, storageError("feature lock", err)
	}
}

// DestroyFeature removes the feature and every flag it owns.
func (tx *AdminTx) DestroyFeature(ctx context.Context, name string) error {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return err
	}
	if err := tx.w.DeleteFeature(ctx, &feature); err != nil {
		return translate("feature delete", "feature", name, err)
	}
	tx.sa.log.InfoContext(ctx, "feature destroyed", slog.String("feature", name))
	return nil
}

func (tx *AdminTx) Feature(ctx context.Context, name string) (models.Feature, error) {
	feature, err := tx.w.FeatureByName(ctx, name)
	if err != nil {
		return models.Feature{}, translate("feature lookup", "feature", name, err)
	}
	return feature, nil
}

func (tx *AdminTx) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	features, err := tx.w.ListFeatures(ctx)
	if err != nil {
		return nil, storageError("feature list", err)
	}
	return features, nil
}

// ==================== flag-in / opt-out ====================

// AddRecordToFeature flags the record in. Adding it twice returns the existing flag.
func (tx *AdminTx) AddRecordToFeature(ctx context.Context, record entity.Flaggable, name string) (models.Flag, error) {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return models.Flag{}, err
	}

	existing, err := tx.w.FlagInFor(ctx, feature.ID, record.FlaggableType(), record.FlaggableID())
	if ok, err := found("flag-in lookup", err); err != nil || ok {
		return existing, err
	}

	flag := models.NewFlagIn(feature.ID, record.FlaggableType(), record.FlaggableID())
	if err := tx.insertFlag(ctx, &flag); err != nil {
		return models.Flag{}, err
	}
	feature.FlagInCounts.Add(flag.RecordType, 1)
	if err := tx.updateFeature(ctx, &feature); err != nil {
		return models.Flag{}, err
	}
	return flag, nil
}

// RemoveRecordFromFeature drops the flag-in; a missing flag is not an error.
func (tx *AdminTx) RemoveRecordFromFeature(ctx context.Context, record entity.Flaggable, name string) error {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return err
	}

	flag, err := tx.w.FlagInFor(ctx, feature.ID, record.FlaggableType(), record.FlaggableID())
	if ok, err := found("flag-in lookup", err); err != nil || !ok {
		return err
	}
	if err := tx.deleteFlag(ctx, &flag); err != nil {
		return err
	}
	feature.FlagInCounts.Add(flag.RecordType, -1)
	return tx.updateFeature(ctx, &feature)
}

// OptRecordOutOfFeature opts the record out. Opt-outs are unique per record
// id, so an id already opted out under another type fails validation.
func (tx *AdminTx) OptRecordOutOfFeature(ctx context.Context, record entity.Flaggable, name string) (models.Flag, error) {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return models.Flag{}, err
	}

	existing, err := tx.w.OptOutFor(ctx, feature.ID, record.FlaggableID())
	ok, err := found("opt-out lookup", err)
	switch {
	case err != nil:
		return models.Flag{}, err
	case ok && existing.RecordType == record.FlaggableType():
		return existing, nil
	case ok:
		return models.Flag{}, newValidationError("record_id", "unique", record.FlaggableID())
	}

	flag := models.NewOptOut(feature.ID, record.FlaggableType(), record.FlaggableID())
	if err := tx.insertFlag(ctx, &flag); err != nil {
		return models.Flag{}, err
	}
	feature.OptOutCounts.Add(flag.RecordType, 1)
	if err := tx.updateFeature(ctx, &feature); err != nil {
		return models.Flag{}, err
	}
	return flag, nil
}

// UnOptRecordOutOfFeature drops the opt-out held for the record id.
func (tx *AdminTx) UnOptRecordOutOfFeature(ctx context.Context, record entity.Flaggable, name string) error {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return err
	}

	flag, err := tx.w.OptOutFor(ctx, feature.ID, record.FlaggableID())
	if ok, err := found("opt-out lookup", err); err != nil || !ok {
		return err
	}
	if err := tx.deleteFlag(ctx, &flag); err != nil {
		return err
	}
	feature.OptOutCounts.Add(flag.RecordType, -1)
	return tx.updateFeature(ctx, &feature)
}

// ==================== groups attached to features ====================

// AddGroupToFeature attaches a code-defined group to the feature.
func (tx *AdminTx) AddGroupToFeature(ctx context.Context, recordType, groupName, name string) (models.Flag, error) {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return models.Flag{}, err
	}

	existing, ok, err := tx.codeGroupFlag(ctx, feature, recordType, groupName)
	if err != nil || ok {
		return existing, err
	}

	flag := models.NewCodeGroupFlag(feature.ID, recordType, groupName)
	if err := tx.insertFlag(ctx, &flag); err != nil {
		return models.Flag{}, err
	}
	return flag, nil
}

func (tx *AdminTx) RemoveGroupFromFeature(ctx context.Context, recordType, groupName, name string) error {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return err
	}

	flag, ok, err := tx.codeGroupFlag(ctx, feature, recordType, groupName)
	if err != nil || !ok {
		return err
	}
	return tx.deleteFlag(ctx, &flag)
}

// AddDatabaseGroupToFeature attaches a database group to the feature.
func (tx *AdminTx) AddDatabaseGroupToFeature(ctx context.Context, groupID int64, name string) (models.Flag, error) {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return models.Flag{}, err
	}
	group, err := tx.lockGroup(ctx, groupID)
	if err != nil {
		return models.Flag{}, err
	}

	existing, ok, err := tx.databaseGroupFlag(ctx, feature, groupID)
	if err != nil || ok {
		return existing, err
	}

	flag := models.NewDatabaseGroupFlag(feature.ID, group)
	if err := tx.insertFlag(ctx, &flag); err != nil {
		return models.Flag{}, err
	}
	return flag, nil
}

func (tx *AdminTx) RemoveDatabaseGroupFromFeature(ctx context.Context, groupID int64, name string) error {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return err
	}
	if _, err := tx.lockGroup(ctx, groupID); err != nil {
		return err
	}

	flag, ok, err := tx.databaseGroupFlag(ctx, feature, groupID)
	if err != nil || !ok {
		return err
	}
	return tx.deleteFlag(ctx, &flag)
}

// ==================== percentage ====================

// AddPercentageToFeature sets the percentage for recordType, replacing a previous value.
func (tx *AdminTx) AddPercentageToFeature(ctx context.Context, recordType string, percentage int, name string) (models.Flag, error) {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return models.Flag{}, err
	}

	flag, err := tx.w.PercentageFor(ctx, feature.ID, recordType)
	ok, err := found("percentage lookup", err)
	if err != nil {
		return models.Flag{}, err
	}
	if !ok {
		flag = models.NewPercentage(feature.ID, recordType, percentage)
		if err := tx.insertFlag(ctx, &flag); err != nil {
			return models.Flag{}, err
		}
		return flag, nil
	}

	flag.Percentage = percentage
	if err := validateStruct(flag); err != nil {
		return models.Flag{}, err
	}
	if err := tx.w.UpdateFlag(ctx, &flag); err != nil {
		return models.Flag{}, translate("flag update", "percentage", recordType, err)
	}
	return flag, nil
}

func (tx *AdminTx) RemovePercentageFromFeature(ctx context.Context, recordType, name string) error {
	feature, err := tx.lockFeature(ctx, name)
	if err != nil {
		return err
	}

	flag, err := tx.w.PercentageFor(ctx, feature.ID, recordType)
	if ok, err := found("percentage lookup", err); err != nil || !ok {
		return err
	}
	return tx.deleteFlag(ctx, &flag)
}

// ==================== flag listings ====================

// FlagsFor lists the feature flags of one kind; an empty recordType lists every type.
func (tx *AdminTx) FlagsFor(ctx context.Context, name string, kind models.FlagKind, recordType string) ([]models.Flag, error) {
	feature, err := tx.Feature(ctx, name)
	if err != nil {
		return nil, err
	}
	flags, err := tx.w.FlagsFor(ctx, feature.ID, kind, recordType)
	if err != nil {
		return nil, storageError("flag list", err)
	}
	return flags, nil
}

func (tx *AdminTx) FlagInsFor(ctx context.Context, name, recordType string) ([]models.Flag, error) {
	return tx.FlagsFor(ctx, name, models.FlagKindFlagIn, recordType)
}

func (tx *AdminTx) OptOutsFor(ctx context.Context, name, recordType string) ([]models.Flag, error) {
	return tx.FlagsFor(ctx, name, models.FlagKindOptOut, recordType)
}

// ==================== database groups ====================

// CreateGroup creates a database group for one of the flaggable types.
func (tx *AdminTx) CreateGroup(ctx context.Context, name, recordType string) (models.Group, error) {
	if !slices.Contains(tx.sa.flaggableTypes, recordType) {
		return models.Group{}, newValidationError("record_type", "flaggable", recordType)
	}
	group := models.Group{Name: name, RecordType: recordType}
	if err := validateStruct(group); err != nil {
		return models.Group{}, err
	}
	if err := tx.w.InsertGroup(ctx, &group); err != nil {
		return models.Group{}, translate("group insert", "name", name, err)
	}
	tx.sa.log.InfoContext(ctx, "group created",
		slog.String("group", name), slog.String("record_type", recordType))
	return group, nil
}

// DestroyGroup removes the group, its memberships and the flags attaching it to features.
func (tx *AdminTx) DestroyGroup(ctx context.Context, id int64) error {
	group, err := tx.lockGroup(ctx, id)
	if err != nil {
		return err
	}
	if err := tx.w.DeleteGroup(ctx, &group); err != nil {
		return translate("group delete", "group", fmt.Sprint(id), err)
	}
	tx.sa.log.InfoContext(ctx, "group destroyed", slog.Int64("group_id", id))
	return nil
}

func (tx *AdminTx) Group(ctx context.Context, id int64) (models.Group, error) {
	group, err := tx.w.GroupByID(ctx, id)
	if err != nil {
		return models.Group{}, translate("group lookup", "group", fmt.Sprint(id), err)
	}
	return group, nil
}

func (tx *AdminTx) GroupByName(ctx context.Context, recordType, name string) (models.Group, error) {
	group, err := tx.w.GroupByName(ctx, recordType, name)
	if err != nil {
		return models.Group{}, translate("group lookup", "group", name, err)
	}
	return group, nil
}

// ListGroups lists groups of recordType; an empty recordType lists every group.
func (tx *AdminTx) ListGroups(ctx context.Context, recordType string) ([]models.Group, error) {
	groups, err := tx.w.ListGroups(ctx, recordType)
	if err != nil {
		return nil, storageError("group list", err)
	}
	return groups, nil
}

// AddMembership adds member to the group. The member must be of the group record type.
func (tx *AdminTx) AddMembership(ctx context.Context, groupID int64, member entity.Flaggable) (models.Membership, error) {
	group, err := tx.lockGroup(ctx, groupID)
	if err != nil {
		return models.Membership{}, err
	}
	if member.FlaggableType() != group.RecordType {
		return models.Membership{}, newValidationError("member_type", "eq "+group.RecordType, member.FlaggableType())
	}

	existing, err := tx.w.MembershipFor(ctx, groupID, member.FlaggableType(), member.FlaggableID())
	if ok, err := found("membership lookup", err); err != nil || ok {
		return existing, err
	}

	membership := models.Membership{GroupID: groupID, MemberType: member.FlaggableType(), MemberID: member.FlaggableID()}
	if err := validateStruct(membership); err != nil {
		return models.Membership{}, err
	}
	if err := tx.w.InsertMembership(ctx, &membership); err != nil {
		return models.Membership{}, translate("membership insert", "member", entity.RecordOf(member).String(), err)
	}
	return membership, nil
}

func (tx *AdminTx) RemoveMembership(ctx context.Context, groupID int64, member entity.Flaggable) error {
	if _, err := tx.lockGroup(ctx, groupID); err != nil {
		return err
	}

	membership, err := tx.w.MembershipFor(ctx, groupID, member.FlaggableType(), member.FlaggableID())
	if ok, err := found("membership lookup", err); err != nil || !ok {
		return err
	}
	if err := tx.w.DeleteMembership(ctx, &membership); err != nil {
		return translate("membership delete", "member", entity.RecordOf(member).String(), err)
	}
	return nil
}

// Memberships lists the group memberships ordered by member type.
func (tx *AdminTx) Memberships(ctx context.Context, groupID int64) ([]models.Membership, error) {
	if _, err := tx.Group(ctx, groupID); err != nil {
		return nil, err
	}
	memberships, err := tx.w.MembershipsFor(ctx, groupID)
	if err != nil {
		return nil, storageError("membership list", err)
	}
	return memberships, nil
}

// Members resolves the group memberships through the configured Loader.
func (tx *AdminTx) Members(ctx context.Context, groupID int64) ([]entity.Flaggable, error) {
	if tx.sa.loader == nil {
		return nil, ErrServiceLoaderNotConfigured
	}
	memberships, err := tx.Memberships(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := make([]entity.Flaggable, 0, len(memberships))
	for _, m := range memberships {
		member, err := tx.sa.loader.LoadByID(ctx, m.MemberType, m.MemberID)
		if err != nil {
			return nil, fmt.Errorf("service: load member {%s#%d} - {%w}", m.MemberType, m.MemberID, err)
		}
		members = append(members, member)
	}
	return members, nil
}

// ==================== helpers ====================

func (tx *AdminTx) lockFeature(ctx context.Context, name string) (models.Feature, error) {
	feature, err := tx.w.LockFeature(ctx, name)
	if err != nil {
		return models.Feature{}, translate("feature lock", "feature", name, err)
	}
	return feature, nil
}

func (tx *AdminTx) lockGroup(ctx context.Context, id int64) (models.Group, error) {
	group, err := tx.w.LockGroup(ctx, id)
	if err != nil {
		return models.Group{}, translate("group lock", "group", fmt.Sprint(id), err)
	}
	return group, nil
}

func (tx *AdminTx) updateFeature(ctx context.Context, feature *models.Feature) error {
	if err := tx.w.UpdateFeature(ctx, feature); err != nil {
		return translate("feature update", "feature", feature.Name, err)
	}
	return nil
}

func (tx *AdminTx) insertFlag(ctx context.Context, flag *models.Flag) error {
	if err := validateStruct(flag); err != nil {
		return err
	}
	if err := tx.w.InsertFlag(ctx, flag); err != nil {
		return translate("flag insert", string(flag.Kind), flag.RecordType, err)
	}
	return nil
}

func (tx *AdminTx) deleteFlag(ctx context.Context, flag *models.Flag) error {
	if err := tx.w.DeleteFlag(ctx, flag); err != nil {
		return translate("flag delete", string(flag.Kind), flag.RecordType, err)
	}
	return nil
}

func (tx *AdminTx) codeGroupFlag(ctx context.Context, feature models.Feature, recordType, groupName string) (models.Flag, bool, error) {
	flags, err := tx.w.CodeGroupFlagsFor(ctx, feature.ID, recordType)
	if err != nil {
		return models.Flag{}, false, storageError("code group flags lookup", err)
	}
	for _, flag := range flags {
		if flag.GroupName == groupName {
			return flag, true, nil
		}
	}
	return models.Flag{}, false, nil
}

func (tx *AdminTx) databaseGroupFlag(ctx context.Context, feature models.Feature, groupID int64) (models.Flag, bool, error) {
	flags, err := tx.w.FlagsFor(ctx, feature.ID, models.FlagKindDatabaseGroup, "")
	if err != nil {
		return models.Flag{}, false, storageError("database group flags lookup", err)
	}
	for _, flag := range flags {
		if flag.GroupIDValue() == groupID {
			return flag, true, nil
		}
	}
	return models.Flag{}, false, nil
}

// ==================== single-operation transactions ====================

func (sa *ServiceAdmin) CreateFeature(ctx context.Context, name string) (models.Feature, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Feature, error) { return tx.CreateFeature(ctx, name) })
}

// EnsureFeature returns the feature, creating it on first reference. When a
// concurrent caller creates it first the committed feature is returned.
func (sa *ServiceAdmin) EnsureFeature(ctx context.Context, name string) (models.Feature, error) {
	feature, err := inTx(ctx, sa, func(tx *AdminTx) (models.Feature, error) { return tx.EnsureFeature(ctx, name) })
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Field == "name" && verr.Rule == "unique" {
		return sa.Feature(ctx, name)
	}
	return feature, err
}

func (sa *ServiceAdmin) DestroyFeature(ctx context.Context, name string) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.DestroyFeature(ctx, name) })
}

func (sa *ServiceAdmin) Feature(ctx context.Context, name string) (models.Feature, error) {
	feature, err := sa.store.FeatureByName(ctx, name)
	if err != nil {
		return models.Feature{}, translate("feature lookup", "feature", name, err)
	}
	return feature, nil
}

func (sa *ServiceAdmin) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	features, err := sa.store.ListFeatures(ctx)
	if err != nil {
		return nil, storageError("feature list", err)
	}
	return features, nil
}

func (sa *ServiceAdmin) AddRecordToFeature(ctx context.Context, record entity.Flaggable, name string) (models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Flag, error) { return tx.AddRecordToFeature(ctx, record, name) })
}

func (sa *ServiceAdmin) RemoveRecordFromFeature(ctx context.Context, record entity.Flaggable, name string) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.RemoveRecordFromFeature(ctx, record, name) })
}

func (sa *ServiceAdmin) OptRecordOutOfFeature(ctx context.Context, record entity.Flaggable, name string) (models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Flag, error) { return tx.OptRecordOutOfFeature(ctx, record, name) })
}

func (sa *ServiceAdmin) UnOptRecordOutOfFeature(ctx context.Context, record entity.Flaggable, name string) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.UnOptRecordOutOfFeature(ctx, record, name) })
}

func (sa *ServiceAdmin) AddGroupToFeature(ctx context.Context, recordType, groupName, name string) (models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Flag, error) {
		return tx.AddGroupToFeature(ctx, recordType, groupName, name)
	})
}

func (sa *ServiceAdmin) RemoveGroupFromFeature(ctx context.Context, recordType, groupName, name string) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error {
		return tx.RemoveGroupFromFeature(ctx, recordType, groupName, name)
	})
}

func (sa *ServiceAdmin) AddDatabaseGroupToFeature(ctx context.Context, groupID int64, name string) (models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Flag, error) { return tx.AddDatabaseGroupToFeature(ctx, groupID, name) })
}

func (sa *ServiceAdmin) RemoveDatabaseGroupFromFeature(ctx context.Context, groupID int64, name string) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.RemoveDatabaseGroupFromFeature(ctx, groupID, name) })
}

func (sa *ServiceAdmin) AddPercentageToFeature(ctx context.Context, recordType string, percentage int, name string) (models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Flag, error) {
		return tx.AddPercentageToFeature(ctx, recordType, percentage, name)
	})
}

func (sa *ServiceAdmin) RemovePercentageFromFeature(ctx context.Context, recordType, name string) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.RemovePercentageFromFeature(ctx, recordType, name) })
}

func (sa *ServiceAdmin) FlagsFor(ctx context.Context, name string, kind models.FlagKind, recordType string) ([]models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) ([]models.Flag, error) { return tx.FlagsFor(ctx, name, kind, recordType) })
}

func (sa *ServiceAdmin) FlagInsFor(ctx context.Context, name, recordType string) ([]models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) ([]models.Flag, error) { return tx.FlagInsFor(ctx, name, recordType) })
}

func (sa *ServiceAdmin) OptOutsFor(ctx context.Context, name, recordType string) ([]models.Flag, error) {
	return inTx(ctx, sa, func(tx *AdminTx) ([]models.Flag, error) { return tx.OptOutsFor(ctx, name, recordType) })
}

func (sa *ServiceAdmin) CreateGroup(ctx context.Context, name, recordType string) (models.Group, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Group, error) { return tx.CreateGroup(ctx, name, recordType) })
}

func (sa *ServiceAdmin) DestroyGroup(ctx context.Context, id int64) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.DestroyGroup(ctx, id) })
}

func (sa *ServiceAdmin) Group(ctx context.Context, id int64) (models.Group, error) {
	group, err := sa.store.GroupByID(ctx, id)
	if err != nil {
		return models.Group{}, translate("group lookup", "group", fmt.Sprint(id), err)
	}
	return group, nil
}

func (sa *ServiceAdmin) GroupByName(ctx context.Context, recordType, name string) (models.Group, error) {
	group, err := sa.store.GroupByName(ctx, recordType, name)
	if err != nil {
		return models.Group{}, translate("group lookup", "group", name, err)
	}
	return group, nil
}

func (sa *ServiceAdmin) ListGroups(ctx context.Context, recordType string) ([]models.Group, error) {
	groups, err := sa.store.ListGroups(ctx, recordType)
	if err != nil {
		return nil, storageError("group list", err)
	}
	return groups, nil
}

func (sa *ServiceAdmin) AddMembership(ctx context.Context, groupID int64, member entity.Flaggable) (models.Membership, error) {
	return inTx(ctx, sa, func(tx *AdminTx) (models.Membership, error) { return tx.AddMembership(ctx, groupID, member) })
}

func (sa *ServiceAdmin) RemoveMembership(ctx context.Context, groupID int64, member entity.Flaggable) error {
	return sa.InTransaction(ctx, func(tx *AdminTx) error { return tx.RemoveMembership(ctx, groupID, member) })
}

func (sa *ServiceAdmin) Memberships(ctx context.Context, groupID int64) ([]models.Membership, error) {
	return inTx(ctx, sa, func(tx *AdminTx) ([]models.Membership, error) { return tx.Memberships(ctx, groupID) })
}

func (sa *ServiceAdmin) Members(ctx context.Context, groupID int64) ([]entity.Flaggable, error) {
	return inTx(ctx, sa, func(tx *AdminTx) ([]entity.Flaggable, error) { return tx.Members(ctx, groupID) })
}
