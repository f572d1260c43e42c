package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx"
	"gopkg.in/reform.v1"

	"feature-rollout/models"
	"feature-rollout/repository"
	"feature-rollout/repository/cache"
)

var ErrDBRUnexpectrdType = errors.New("unexpected type")

// pgUniqueViolation - SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// RepoRolloutDB - PostgreSQL store of features, flags, groups and memberships
type RepoRolloutDB struct {
	repoReader
	db    *reform.DB
	cache *cache.RepoCacheFeature
}

var _ repository.Store = (*RepoRolloutDB)(nil)

func NewRepoRolloutDB(db *reform.DB, cache *cache.RepoCacheFeature) *RepoRolloutDB {
	r := &RepoRolloutDB{db: db, cache: cache}
	r.repoReader = repoReader{querier: func(ctx context.Context) *reform.Querier {
		return db.WithContext(ctx)
	}}
	return r
}

// FeatureByName возвращает фичу по имени, сначала из кэша.
// Строка, прочитанная до параллельной записи, в кэш не попадает.
func (r *RepoRolloutDB) FeatureByName(ctx context.Context, name string) (models.Feature, error) {
	if feature, ok := r.cache.GetFeatureByName(name); ok {
		return cloneFeature(feature), nil
	}
	generation := r.cache.Generation()
	feature, err := r.repoReader.FeatureByName(ctx, name)
	if err != nil {
		return feature, err
	}
	r.cache.AddFeatureIfCurrent(cloneFeature(feature), generation)

	return feature, nil
}

// IncrementFailureCount увеличивает failure_count одной командой UPDATE
func (r *RepoRolloutDB) IncrementFailureCount(ctx context.Context, feature models.Feature) error {
	res, err := r.db.WithContext(ctx).Exec(
		`UPDATE public.features SET failure_count = failure_count + 1, updated_at = $2 WHERE id = $1`,
		feature.ID,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	r.cache.RemoveFeature(feature.Name)
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// InTransaction открывает транзакцию вокруг пачки изменений
func (r *RepoRolloutDB) InTransaction(ctx context.Context, fn func(w repository.Writer) error) error {
	var touched []string
	exec := func(tx *reform.TX) error {
		w := &repoTx{tx: tx}
		w.repoReader = repoReader{querier: func(ctx context.Context) *reform.Querier {
			return tx.WithContext(ctx)
		}}
		err := fn(w)
		touched = w.touched
		return err
	}
	err := r.db.InTransactionContext(ctx, nil, exec)
	for _, name := range touched {
		r.cache.RemoveFeature(name)
	}

	return err
}

type repoTx struct {
	repoReader
	tx      *reform.TX
	touched []string
}

func (w *repoTx) q(ctx context.Context) *reform.Querier {
	return w.tx.WithContext(ctx)
}

func (w *repoTx) LockFeature(ctx context.Context, name string) (models.Feature, error) {
	var feature models.Feature
	if err := w.q(ctx).SelectOneTo(&feature, `WHERE name = $1 FOR UPDATE`, name); err != nil {
		return feature, notFound(err)
	}
	w.touched = append(w.touched, feature.Name)

	return feature, nil
}

func (w *repoTx) LockGroup(ctx context.Context, id int64) (models.Group, error) {
	var group models.Group
	if err := w.q(ctx).SelectOneTo(&group, `WHERE id = $1 FOR UPDATE`, id); err != nil {
		return group, notFound(err)
	}

	return group, nil
}

func (w *repoTx) InsertFeature(ctx context.Context, feature *models.Feature) error {
	w.touched = append(w.touched, feature.Name)
	return alreadyExists(w.q(ctx).Insert(feature))
}

func (w *repoTx) UpdateFeature(ctx context.Context, feature *models.Feature) error {
	w.touched = append(w.touched, feature.Name)
	return notFound(w.q(ctx).Update(feature))
}

// DeleteFeature удаляет фичу вместе с флагами
func (w *repoTx) DeleteFeature(ctx context.Context, feature *models.Feature) error {
	w.touched = append(w.touched, feature.Name)
	if _, err := w.q(ctx).DeleteFrom(models.FlagTable, `WHERE feature_id = $1`, feature.ID); err != nil {
		return err
	}

	return notFound(w.q(ctx).Delete(feature))
}

func (w *repoTx) InsertFlag(ctx context.Context, flag *models.Flag) error {
	return alreadyExists(w.q(ctx).Insert(flag))
}

func (w *repoTx) UpdateFlag(ctx context.Context, flag *models.Flag) error {
	return alreadyExists(notFound(w.q(ctx).Update(flag)))
}

func (w *repoTx) DeleteFlag(ctx context.Context, flag *models.Flag) error {
	return notFound(w.q(ctx).Delete(flag))
}

func (w *repoTx) InsertGroup(ctx context.Context, group *models.Group) error {
	return alreadyExists(w.q(ctx).Insert(group))
}

// DeleteGroup удаляет группу, участников и ссылающиеся флаги
func (w *repoTx) DeleteGroup(ctx context.Context, group *models.Group) error {
	if _, err := w.q(ctx).DeleteFrom(models.MembershipTable, `WHERE group_id = $1`, group.ID); err != nil {
		return err
	}
	if _, err := w.q(ctx).DeleteFrom(models.FlagTable, `WHERE group_id = $1`, group.ID); err != nil {
		return err
	}

	return notFound(w.q(ctx).Delete(group))
}

func (w *repoTx) InsertMembership(ctx context.Context, membership *models.Membership) error {
	return alreadyExists(w.q(ctx).Insert(membership))
}

func (w *repoTx) DeleteMembership(ctx context.Context, membership *models.Membership) error {
	return notFound(w.q(ctx).Delete(membership))
}

type repoReader struct {
	querier func(ctx context.Context) *reform.Querier
}

func (r repoReader) FeatureByName(ctx context.Context, name string) (models.Feature, error) {
	var feature models.Feature
	if err := r.querier(ctx).SelectOneTo(&feature, `WHERE name = $1`, name); err != nil {
		return feature, notFound(err)
	}

	return feature, nil
}

// ListFeatures возвращает все фичи по имени
func (r repoReader) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	features, err := r.querier(ctx).SelectAllFrom(models.FeatureTable, `ORDER BY name`)
	if err != nil {
		return nil, err
	}

	return convertReformStruct[models.Feature](features)
}

func (r repoReader) FlagInFor(
	ctx context.Context,
	featureID uuid.UUID,
	recordType string,
	recordID int64,
) (models.Flag, error) {
	var flag models.Flag
	if err := r.querier(ctx).SelectOneTo(
		&flag,
		`WHERE feature_id = $1 AND kind = $2 AND record_type = $3 AND record_id = $4`,
		featureID,
		string(models.FlagKindFlagIn),
		recordType,
		recordID,
	); err != nil {
		return flag, notFound(err)
	}

	return flag, nil
}

func (r repoReader) OptOutFor(ctx context.Context, featureID uuid.UUID, recordID int64) (models.Flag, error) {
	var flag models.Flag
	if err := r.querier(ctx).SelectOneTo(
		&flag,
		`WHERE feature_id = $1 AND kind = $2 AND record_id = $3`,
		featureID,
		string(models.FlagKindOptOut),
		recordID,
	); err != nil {
		return flag, notFound(err)
	}

	return flag, nil
}

func (r repoReader) PercentageFor(ctx context.Context, featureID uuid.UUID, recordType string) (models.Flag, error) {
	var flag models.Flag
	if err := r.querier(ctx).SelectOneTo(
		&flag,
		`WHERE feature_id = $1 AND kind = $2 AND record_type = $3`,
		featureID,
		string(models.FlagKindPercentage),
		recordType,
	); err != nil {
		return flag, notFound(err)
	}

	return flag, nil
}

func (r repoReader) CodeGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error) {
	return r.FlagsFor(ctx, featureID, models.FlagKindCodeGroup, recordType)
}

func (r repoReader) DatabaseGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error) {
	return r.FlagsFor(ctx, featureID, models.FlagKindDatabaseGroup, recordType)
}

func (r repoReader) FlagsFor(
	ctx context.Context,
	featureID uuid.UUID,
	kind models.FlagKind,
	recordType string,
) ([]models.Flag, error) {
	var (
		flags []reform.Struct
		err   error
	)
	if recordType == "" {
		flags, err = r.querier(ctx).SelectAllFrom(
			models.FlagTable,
			`WHERE feature_id = $1 AND kind = $2 ORDER BY id`,
			featureID,
			string(kind),
		)
	} else {
		flags, err = r.querier(ctx).SelectAllFrom(
			models.FlagTable,
			`WHERE feature_id = $1 AND kind = $2 AND record_type = $3 ORDER BY id`,
			featureID,
			string(kind),
			recordType,
		)
	}
	if err != nil {
		return nil, err
	}

	return convertReformStruct[models.Flag](flags)
}

func (r repoReader) GroupByID(ctx context.Context, id int64) (models.Group, error) {
	var group models.Group
	if err := r.querier(ctx).FindByPrimaryKeyTo(&group, id); err != nil {
		return group, notFound(err)
	}

	return group, nil
}

func (r repoReader) GroupByName(ctx context.Context, recordType, name string) (models.Group, error) {
	var group models.Group
	if err := r.querier(ctx).SelectOneTo(
		&group,
		`WHERE record_type = $1 AND name = $2`,
		recordType,
		name,
	); err != nil {
		return group, notFound(err)
	}

	return group, nil
}

func (r repoReader) ListGroups(ctx context.Context, recordType string) ([]models.Group, error) {
	var (
		groups []reform.Struct
		err    error
	)
	if recordType == "" {
		groups, err = r.querier(ctx).SelectAllFrom(models.GroupTable, `ORDER BY name, id`)
	} else {
		groups, err = r.querier(ctx).SelectAllFrom(
			models.GroupTable,
			`WHERE record_type = $1 ORDER BY name, id`,
			recordType,
		)
	}
	if err != nil {
		return nil, err
	}

	return convertReformStruct[models.Group](groups)
}

func (r repoReader) MembershipsFor(ctx context.Context, groupID int64) ([]models.Membership, error) {
	memberships, err := r.querier(ctx).SelectAllFrom(
		models.MembershipTable,
		`WHERE group_id = $1 ORDER BY member_type ASC, member_id ASC`,
		groupID,
	)
	if err != nil {
		return nil, err
	}

	return convertReformStruct[models.Membership](memberships)
}

func (r repoReader) MembershipFor(
	ctx context.Context,
	groupID int64,
	memberType string,
	memberID int64,
) (models.Membership, error) {
	var membership models.Membership
	if err := r.querier(ctx).SelectOneTo(
		&membership,
		`WHERE group_id = $1 AND member_type = $2 AND member_id = $3`,
		groupID,
		memberType,
		memberID,
	); err != nil {
		return membership, notFound(err)
	}

	return membership, nil
}

// GroupsForMember - memberships joined to groups of the same record type
func (r repoReader) GroupsForMember(ctx context.Context, memberType string, memberID int64) ([]models.Group, error) {
	groups, err := r.querier(ctx).SelectAllFrom(
		models.GroupTable,
		`WHERE record_type = $1 AND id IN (
			SELECT m.group_id FROM public.memberships m WHERE m.member_type = $1 AND m.member_id = $2
		) ORDER BY name, id`,
		memberType,
		memberID,
	)
	if err != nil {
		return nil, err
	}

	return convertReformStruct[models.Group](groups)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func alreadyExists(err error) error {
	if err == nil {
		return nil
	}
	var pgErr pgx.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrAlreadyExists, pgErr.ConstraintName)
	}
	var pgErrPtr *pgx.PgError
	if errors.As(err, &pgErrPtr) && pgErrPtr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrAlreadyExists, pgErrPtr.ConstraintName)
	}
	return err
}

func cloneFeature(feature models.Feature) models.Feature {
	feature.FlagInCounts = feature.FlagInCounts.Clone()
	feature.OptOutCounts = feature.OptOutCounts.Clone()
	return feature
}

// convertReformStruct создаем массив моделей из []reform.Struct
func convertReformStruct[T models.Models](dataFromDB []reform.Struct) ([]T, error) {
	var t T
	if reflect.ValueOf(t).Kind() == reflect.Ptr {
		return nil, models.ErrDBModelShouldNotBePointer
	}
	expectedPtrType := reflect.TypeOf((*T)(nil))
	list := make([]T, 0, len(dataFromDB))
	for _, s := range dataFromDB {
		sVal := reflect.ValueOf(s)
		if sVal.Type() != expectedPtrType {
			return nil, ErrDBRUnexpectrdType
		}
		list = append(list, sVal.Elem().Interface().(T))
	}
	return list, nil
}
