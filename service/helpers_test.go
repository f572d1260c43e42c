package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"feature-rollout/models"
	"feature-rollout/repository"
	"feature-rollout/repository/memory"
	"feature-rollout/service"
)

const (
	typeUser    = "User"
	typeAccount = "Account"
)

var errBoom = errors.New("boom")

type engine struct {
	store    *memory.Store
	registry *service.GroupRegistry
	admin    *service.ServiceAdmin
	rollout  *service.ServiceRollout
}

func newEngine(t *testing.T, opts ...service.AdminOption) *engine {
	t.Helper()
	store := memory.NewStore()
	registry := service.NewGroupRegistry()
	opts = append([]service.AdminOption{service.WithFlaggableTypes(typeUser, typeAccount)}, opts...)
	return &engine{
		store:    store,
		registry: registry,
		admin:    service.NewServiceAdmin(store, opts...),
		rollout:  service.NewServiceRollout(store, registry),
	}
}

func (e *engine) feature(t *testing.T, name string) *models.Feature {
	t.Helper()
	feature, err := e.admin.EnsureFeature(context.Background(), name)
	require.NoError(t, err)
	return &feature
}

// reload returns the committed state of the feature
func (e *engine) reload(t *testing.T, name string) *models.Feature {
	t.Helper()
	feature, err := e.admin.Feature(context.Background(), name)
	require.NoError(t, err)
	return &feature
}

// spyStore counts reads reaching the underlying store
type spyStore struct {
	repository.Store
	featureLookups atomic.Int64
	flagInLookups  atomic.Int64
}

func (s *spyStore) FeatureByName(ctx context.Context, name string) (models.Feature, error) {
	s.featureLookups.Add(1)
	return s.Store.FeatureByName(ctx, name)
}

func (s *spyStore) FlagInFor(ctx context.Context, featureID uuid.UUID, recordType string, recordID int64) (models.Flag, error) {
	s.flagInLookups.Add(1)
	return s.Store.FlagInFor(ctx, featureID, recordType, recordID)
}

// brokenStore fails the operations that have an error set
type brokenStore struct {
	repository.Store
	lookupErr    error
	incrementErr error
}

func (s *brokenStore) FeatureByName(ctx context.Context, name string) (models.Feature, error) {
	if s.lookupErr != nil {
		return models.Feature{}, s.lookupErr
	}
	return s.Store.FeatureByName(ctx, name)
}

func (s *brokenStore) IncrementFailureCount(ctx context.Context, feature models.Feature) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	return s.Store.IncrementFailureCount(ctx, feature)
}

// lateStore hides committed features from LockFeature once per name, the way
// a transaction that began before a concurrent create sees them
type lateStore struct {
	repository.Store
	hidden sync.Map
}

func (s *lateStore) hide(name string) {
	s.hidden.Store(name, struct{}{})
}

func (s *lateStore) InTransaction(ctx context.Context, fn func(w repository.Writer) error) error {
	return s.Store.InTransaction(ctx, func(w repository.Writer) error {
		return fn(&lateWriter{Writer: w, store: s})
	})
}

type lateWriter struct {
	repository.Writer
	store *lateStore
}

func (w *lateWriter) LockFeature(ctx context.Context, name string) (models.Feature, error) {
	if _, ok := w.store.hidden.LoadAndDelete(name); ok {
		return models.Feature{}, repository.ErrNotFound
	}
	return w.Writer.LockFeature(ctx, name)
}
