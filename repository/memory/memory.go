// Package memory is an in-memory implementation of repository.Store.
// It's useful for testing and for embedding the engine without a database.
//
// Readers see the last committed state. Writers are serialized and work on a
// private copy that replaces the committed state only when the transaction
// function returns nil.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"feature-rollout/models"
	"feature-rollout/repository"
)

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex // guards st
	writeMu sync.Mutex   // serializes transactions and counter increments
	st      *state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

func (s *Store) IncrementFailureCount(ctx context.Context, feature models.Feature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Committed state is never mutated in place; readers may still hold it.
	next := s.st.clone()
	f, ok := next.features[feature.ID]
	if !ok {
		return repository.ErrNotFound
	}
	f.FailureCount++
	f.UpdatedAt = time.Now().UTC()
	next.features[f.ID] = f
	s.st = next

	return nil
}

func (s *Store) InTransaction(ctx context.Context, fn func(w repository.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.current().clone()
	if err := fn(&tx{state: next}); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = next
	s.mu.Unlock()

	return nil
}

func (s *Store) FeatureByName(ctx context.Context, name string) (models.Feature, error) {
	return s.current().FeatureByName(ctx, name)
}

func (s *Store) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	return s.current().ListFeatures(ctx)
}

func (s *Store) FlagInFor(ctx context.Context, featureID uuid.UUID, recordType string, recordID int64) (models.Flag, error) {
	return s.current().FlagInFor(ctx, featureID, recordType, recordID)
}

func (s *Store) OptOutFor(ctx context.Context, featureID uuid.UUID, recordID int64) (models.Flag, error) {
	return s.current().OptOutFor(ctx, featureID, recordID)
}

func (s *Store) PercentageFor(ctx context.Context, featureID uuid.UUID, recordType string) (models.Flag, error) {
	return s.current().PercentageFor(ctx, featureID, recordType)
}

func (s *Store) CodeGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error) {
	return s.current().CodeGroupFlagsFor(ctx, featureID, recordType)
}

func (s *Store) DatabaseGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error) {
	return s.current().DatabaseGroupFlagsFor(ctx, featureID, recordType)
}

func (s *Store) FlagsFor(ctx context.Context, featureID uuid.UUID, kind models.FlagKind, recordType string) ([]models.Flag, error) {
	return s.current().FlagsFor(ctx, featureID, kind, recordType)
}

func (s *Store) GroupByID(ctx context.Context, id int64) (models.Group, error) {
	return s.current().GroupByID(ctx, id)
}

func (s *Store) GroupByName(ctx context.Context, recordType, name string) (models.Group, error) {
	return s.current().GroupByName(ctx, recordType, name)
}

func (s *Store) ListGroups(ctx context.Context, recordType string) ([]models.Group, error) {
	return s.current().ListGroups(ctx, recordType)
}

func (s *Store) MembershipsFor(ctx context.Context, groupID int64) ([]models.Membership, error) {
	return s.current().MembershipsFor(ctx, groupID)
}

func (s *Store) MembershipFor(ctx context.Context, groupID int64, memberType string, memberID int64) (models.Membership, error) {
	return s.current().MembershipFor(ctx, groupID, memberType, memberID)
}

func (s *Store) GroupsForMember(ctx context.Context, memberType string, memberID int64) ([]models.Group, error) {
	return s.current().GroupsForMember(ctx, memberType, memberID)
}

type state struct {
	features    map[uuid.UUID]models.Feature
	flags       map[int64]models.Flag
	groups      map[int64]models.Group
	memberships map[int64]models.Membership
	lastID      int64
}

func newState() *state {
	return &state{
		features:    make(map[uuid.UUID]models.Feature),
		flags:       make(map[int64]models.Flag),
		groups:      make(map[int64]models.Group),
		memberships: make(map[int64]models.Membership),
	}
}

func (st *state) clone() *state {
	next := &state{
		features:    make(map[uuid.UUID]models.Feature, len(st.features)),
		flags:       maps.Clone(st.flags),
		groups:      maps.Clone(st.groups),
		memberships: maps.Clone(st.memberships),
		lastID:      st.lastID,
	}
	for id, f := range st.features {
		next.features[id] = copyFeature(f)
	}
	for id, f := range next.flags {
		next.flags[id] = copyFlag(f)
	}
	return next
}

func (st *state) nextID() int64 {
	st.lastID++
	return st.lastID
}

func copyFeature(f models.Feature) models.Feature {
	f.FlagInCounts = f.FlagInCounts.Clone()
	f.OptOutCounts = f.OptOutCounts.Clone()
	return f
}

func copyFlag(f models.Flag) models.Flag {
	if f.GroupID != nil {
		groupID := *f.GroupID
		f.GroupID = &groupID
	}
	return f
}

func (st *state) FeatureByName(_ context.Context, name string) (models.Feature, error) {
	for _, f := range st.features {
		if f.Name == name {
			return copyFeature(f), nil
		}
	}
	return models.Feature{}, repository.ErrNotFound
}

func (st *state) ListFeatures(_ context.Context) ([]models.Feature, error) {
	list := make([]models.Feature, 0, len(st.features))
	for _, f := range st.features {
		list = append(list, copyFeature(f))
	}
	slices.SortFunc(list, func(a, b models.Feature) int { return cmp.Compare(a.Name, b.Name) })
	return list, nil
}

func (st *state) findFlag(match func(models.Flag) bool) (models.Flag, error) {
	for _, f := range st.flags {
		if match(f) {
			return copyFlag(f), nil
		}
	}
	return models.Flag{}, repository.ErrNotFound
}

func (st *state) FlagInFor(_ context.Context, featureID uuid.UUID, recordType string, recordID int64) (models.Flag, error) {
	return st.findFlag(func(f models.Flag) bool {
		return f.FeatureID == featureID && f.Kind == models.FlagKindFlagIn &&
			f.RecordType == recordType && f.RecordID == recordID
	})
}

func (st *state) OptOutFor(_ context.Context, featureID uuid.UUID, recordID int64) (models.Flag, error) {
	return st.findFlag(func(f models.Flag) bool {
		return f.FeatureID == featureID && f.Kind == models.FlagKindOptOut && f.RecordID == recordID
	})
}

func (st *state) PercentageFor(_ context.Context, featureID uuid.UUID, recordType string) (models.Flag, error) {
	return st.findFlag(func(f models.Flag) bool {
		return f.FeatureID == featureID && f.Kind == models.FlagKindPercentage && f.RecordType == recordType
	})
}

func (st *state) CodeGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error) {
	return st.FlagsFor(ctx, featureID, models.FlagKindCodeGroup, recordType)
}

func (st *state) DatabaseGroupFlagsFor(ctx context.Context, featureID uuid.UUID, recordType string) ([]models.Flag, error) {
	return st.FlagsFor(ctx, featureID, models.FlagKindDatabaseGroup, recordType)
}

func (st *state) FlagsFor(_ context.Context, featureID uuid.UUID, kind models.FlagKind, recordType string) ([]models.Flag, error) {
	list := make([]models.Flag, 0)
	for _, f := range st.flags {
		if f.FeatureID != featureID || f.Kind != kind {
			continue
		}
		if recordType != "" && f.RecordType != recordType {
			continue
		}
		list = append(list, copyFlag(f))
	}
	slices.SortFunc(list, func(a, b models.Flag) int { return cmp.Compare(a.ID, b.ID) })
	return list, nil
}

func (st *state) GroupByID(_ context.Context, id int64) (models.Group, error) {
	g, ok := st.groups[id]
	if !ok {
		return models.Group{}, repository.ErrNotFound
	}
	return g, nil
}

func (st *state) GroupByName(_ context.Context, recordType, name string) (models.Group, error) {
	for _, g := range st.groups {
		if g.RecordType == recordType && g.Name == name {
			return g, nil
		}
	}
	return models.Group{}, repository.ErrNotFound
}

func (st *state) ListGroups(_ context.Context, recordType string) ([]models.Group, error) {
	list := make([]models.Group, 0, len(st.groups))
	for _, g := range st.groups {
		if recordType == "" || g.RecordType == recordType {
			list = append(list, g)
		}
	}
	sortGroups(list)
	return list, nil
}

func (st *state) MembershipsFor(_ context.Context, groupID int64) ([]models.Membership, error) {
	list := make([]models.Membership, 0)
	for _, m := range st.memberships {
		if m.GroupID == groupID {
			list = append(list, m)
		}
	}
	slices.SortFunc(list, func(a, b models.Membership) int {
		return cmp.Or(cmp.Compare(a.MemberType, b.MemberType), cmp.Compare(a.MemberID, b.MemberID))
	})
	return list, nil
}

func (st *state) MembershipFor(_ context.Context, groupID int64, memberType string, memberID int64) (models.Membership, error) {
	for _, m := range st.memberships {
		if m.GroupID == groupID && m.MemberType == memberType && m.MemberID == memberID {
			return m, nil
		}
	}
	return models.Membership{}, repository.ErrNotFound
}

func (st *state) GroupsForMember(_ context.Context, memberType string, memberID int64) ([]models.Group, error) {
	list := make([]models.Group, 0)
	for _, m := range st.memberships {
		if m.MemberType != memberType || m.MemberID != memberID {
			continue
		}
		if g, ok := st.groups[m.GroupID]; ok && g.RecordType == memberType {
			list = append(list, g)
		}
	}
	sortGroups(list)
	return list, nil
}

func sortGroups(list []models.Group) {
	slices.SortFunc(list, func(a, b models.Group) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}

// tx mutates a private copy of the state.
type tx struct {
	*state
}

func (t *tx) LockFeature(ctx context.Context, name string) (models.Feature, error) {
	return t.FeatureByName(ctx, name)
}

func (t *tx) LockGroup(ctx context.Context, id int64) (models.Group, error) {
	return t.GroupByID(ctx, id)
}

func (t *tx) InsertFeature(_ context.Context, feature *models.Feature) error {
	for _, f := range t.features {
		if f.Name == feature.Name {
			return fmt.Errorf("%w: features name", repository.ErrAlreadyExists)
		}
	}
	if err := feature.BeforeInsert(); err != nil {
		return err
	}
	if _, ok := t.features[feature.ID]; ok {
		return fmt.Errorf("%w: features id", repository.ErrAlreadyExists)
	}
	t.features[feature.ID] = copyFeature(*feature)
	return nil
}

func (t *tx) UpdateFeature(_ context.Context, feature *models.Feature) error {
	if _, ok := t.features[feature.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := feature.BeforeUpdate(); err != nil {
		return err
	}
	t.features[feature.ID] = copyFeature(*feature)
	return nil
}

func (t *tx) DeleteFeature(_ context.Context, feature *models.Feature) error {
	if _, ok := t.features[feature.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, f := range t.flags {
		if f.FeatureID == feature.ID {
			delete(t.flags, id)
		}
	}
	delete(t.features, feature.ID)
	return nil
}

// conflicts mirrors the partial unique indexes of the flags table.
func (t *tx) conflicts(flag *models.Flag) bool {
	for _, f := range t.flags {
		if f.ID == flag.ID || f.FeatureID != flag.FeatureID || f.Kind != flag.Kind {
			continue
		}
		switch flag.Kind {
		case models.FlagKindFlagIn:
			if f.RecordType == flag.RecordType && f.RecordID == flag.RecordID {
				return true
			}
		case models.FlagKindOptOut:
			if f.RecordID == flag.RecordID {
				return true
			}
		case models.FlagKindPercentage:
			if f.RecordType == flag.RecordType {
				return true
			}
		case models.FlagKindCodeGroup:
			if f.RecordType == flag.RecordType && f.GroupName == flag.GroupName {
				return true
			}
		case models.FlagKindDatabaseGroup:
			if f.GroupIDValue() == flag.GroupIDValue() {
				return true
			}
		}
	}
	return false
}

func (t *tx) InsertFlag(_ context.Context, flag *models.Flag) error {
	if _, ok := t.features[flag.FeatureID]; !ok {
		return fmt.Errorf("memory: flag references unknown feature {%s}", flag.FeatureID)
	}
	if flag.Kind == models.FlagKindDatabaseGroup {
		if _, ok := t.groups[flag.GroupIDValue()]; !ok {
			return fmt.Errorf("memory: flag references unknown group {%d}", flag.GroupIDValue())
		}
	}
	if t.conflicts(flag) {
		return fmt.Errorf("%w: flags %s", repository.ErrAlreadyExists, flag.Kind)
	}
	if err := flag.BeforeInsert(); err != nil {
		return err
	}
	flag.ID = t.nextID()
	t.flags[flag.ID] = copyFlag(*flag)
	return nil
}

func (t *tx) UpdateFlag(_ context.Context, flag *models.Flag) error {
	if _, ok := t.flags[flag.ID]; !ok {
		return repository.ErrNotFound
	}
	if t.conflicts(flag) {
		return fmt.Errorf("%w: flags %s", repository.ErrAlreadyExists, flag.Kind)
	}
	t.flags[flag.ID] = copyFlag(*flag)
	return nil
}

func (t *tx) DeleteFlag(_ context.Context, flag *models.Flag) error {
	if _, ok := t.flags[flag.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(t.flags, flag.ID)
	return nil
}

func (t *tx) InsertGroup(_ context.Context, group *models.Group) error {
	for _, g := range t.groups {
		if g.RecordType == group.RecordType && g.Name == group.Name {
			return fmt.Errorf("%w: groups name", repository.ErrAlreadyExists)
		}
	}
	if err := group.BeforeInsert(); err != nil {
		return err
	}
	group.ID = t.nextID()
	t.groups[group.ID] = *group
	return nil
}

func (t *tx) DeleteGroup(_ context.Context, group *models.Group) error {
	if _, ok := t.groups[group.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, m := range t.memberships {
		if m.GroupID == group.ID {
			delete(t.memberships, id)
		}
	}
	for id, f := range t.flags {
		if f.GroupIDValue() == group.ID {
			delete(t.flags, id)
		}
	}
	delete(t.groups, group.ID)
	return nil
}

func (t *tx) InsertMembership(_ context.Context, membership *models.Membership) error {
	if _, ok := t.groups[membership.GroupID]; !ok {
		return fmt.Errorf("memory: membership references unknown group {%d}", membership.GroupID)
	}
	for _, m := range t.memberships {
		if m.GroupID == membership.GroupID && m.MemberType == membership.MemberType && m.MemberID == membership.MemberID {
			return fmt.Errorf("%w: memberships member", repository.ErrAlreadyExists)
		}
	}
	if err := membership.BeforeInsert(); err != nil {
		return err
	}
	membership.ID = t.nextID()
	t.memberships[membership.ID] = *membership
	return nil
}

func (t *tx) DeleteMembership(_ context.Context, membership *models.Membership) error {
	if _, ok := t.memberships[membership.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(t.memberships, membership.ID)
	return nil
}
