package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feature-rollout/entity"
	"feature-rollout/repository/memory"
	"feature-rollout/service"
)

func TestHasFeatureAbsentFeature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)

	ok, err := e.rollout.For(entity.NewRecord(typeUser, 1)).HasFeature(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	features, err := e.admin.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Empty(t, features, "evaluation never creates features")
}

func TestHasFeatureOptOutOverrides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "override")
	user := entity.NewRecord(typeUser, 3)

	_, err := e.admin.AddRecordToFeature(ctx, user, feature.Name)
	require.NoError(t, err)
	_, err = e.admin.AddPercentageToFeature(ctx, typeUser, 100, feature.Name)
	require.NoError(t, err)

	ok, err := e.rollout.For(user).HasFeature(ctx, feature.Name)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.admin.OptRecordOutOfFeature(ctx, user, feature.Name)
	require.NoError(t, err)

	ok, err = e.rollout.Match(ctx, e.reload(t, feature.Name), user)
	require.NoError(t, err)
	assert.True(t, ok, "match ignores opt-out")

	ok, err = e.rollout.For(user).HasFeature(ctx, feature.Name)
	require.NoError(t, err)
	assert.False(t, ok)

	other := entity.NewRecord(typeUser, 4)
	ok, err = e.rollout.For(other).HasFeature(ctx, feature.Name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasFeatureOptOutIgnoresRecordType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "by-id")

	_, err := e.admin.AddPercentageToFeature(ctx, typeAccount, 100, feature.Name)
	require.NoError(t, err)
	_, err = e.admin.OptRecordOutOfFeature(ctx, entity.NewRecord(typeUser, 9), feature.Name)
	require.NoError(t, err)

	ok, err := e.rollout.For(entity.NewRecord(typeAccount, 9)).HasFeature(ctx, feature.Name)
	require.NoError(t, err)
	assert.False(t, ok, "opt-outs are looked up by record id only")
}

func TestHasFeatureMemoizes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	e.feature(t, "one")
	e.feature(t, "two")
	spy := &spyStore{Store: e.store}
	rollout := service.NewServiceRollout(spy, e.registry)

	user := rollout.For(entity.NewRecord(typeUser, 1))
	for range 2 {
		_, err := user.HasFeature(ctx, "one")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, spy.featureLookups.Load())
	assert.EqualValues(t, 1, spy.flagInLookups.Load())

	_, err := user.HasFeature(ctx, "two")
	require.NoError(t, err)
	assert.EqualValues(t, 2, spy.featureLookups.Load())
	assert.EqualValues(t, 2, spy.flagInLookups.Load())

	_, err = rollout.For(entity.NewRecord(typeUser, 1)).HasFeature(ctx, "one")
	require.NoError(t, err)
	assert.EqualValues(t, 3, spy.featureLookups.Load(), "memo is private to one evaluation context")

	user.Forget("one")
	_, err = user.HasFeature(ctx, "one")
	require.NoError(t, err)
	assert.EqualValues(t, 4, spy.featureLookups.Load())
}

func TestHasFeatureGroupPredicateChecksAnotherFeature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	base := e.feature(t, "base")
	derived := e.feature(t, "derived")
	user := entity.NewRecord(typeUser, 5)

	_, err := e.admin.AddRecordToFeature(ctx, user, base.Name)
	require.NoError(t, err)

	flaggable := e.rollout.For(user)
	e.registry.Define(typeUser, "has-base", func(ctx context.Context, _ entity.Flaggable) (bool, error) {
		return flaggable.HasFeature(ctx, base.Name)
	})
	_, err = e.admin.AddGroupToFeature(ctx, typeUser, "has-base", derived.Name)
	require.NoError(t, err)

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := flaggable.HasFeature(ctx, derived.Name)
		done <- result{ok, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.True(t, r.ok)
	case <-time.After(2 * time.Second):
		t.Fatal("HasFeature did not return while a group predicate evaluated another feature")
	}

	ok, err := flaggable.HasFeature(ctx, base.Name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasFeatureMemoizesAbsence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	spy := &spyStore{Store: e.store}
	rollout := service.NewServiceRollout(spy, e.registry)
	user := rollout.For(entity.NewRecord(typeUser, 1))

	for range 3 {
		ok, err := user.HasFeature(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.EqualValues(t, 1, spy.featureLookups.Load())
}

func TestHasFeatureStorageError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	broken := &brokenStore{Store: e.store, lookupErr: errBoom}
	rollout := service.NewServiceRollout(broken, e.registry)
	user := rollout.For(entity.NewRecord(typeUser, 1))

	ok, err := user.HasFeature(ctx, "any")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, service.ErrStorage)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, service.ErrNotFound)

	broken.lookupErr = nil
	e.feature(t, "any")
	_, err = e.admin.AddRecordToFeature(ctx, entity.NewRecord(typeUser, 1), "any")
	require.NoError(t, err)

	ok, err = user.HasFeature(ctx, "any")
	require.NoError(t, err)
	assert.True(t, ok, "storage failures are not memoized")
}

func TestRunIfFeature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "guarded")
	on := entity.NewRecord(typeUser, 1)
	_, err := e.admin.AddRecordToFeature(ctx, on, feature.Name)
	require.NoError(t, err)

	t.Run("runs when on", func(t *testing.T) {
		calls := 0
		ok, err := e.rollout.For(on).RunIfFeature(ctx, feature.Name, func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("skips when off", func(t *testing.T) {
		calls := 0
		ok, err := e.rollout.For(entity.NewRecord(typeUser, 2)).RunIfFeature(ctx, feature.Name, func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, calls)
	})

	t.Run("nil action", func(t *testing.T) {
		ok, err := e.rollout.For(on).RunIfFeature(ctx, feature.Name, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	count, err := e.rollout.FailureCount(ctx, feature.Name)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunIfFeatureActionFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "failing")
	user := entity.NewRecord(typeUser, 7)
	_, err := e.admin.AddRecordToFeature(ctx, user, feature.Name)
	require.NoError(t, err)

	ok, err := e.rollout.For(user).RunIfFeature(ctx, feature.Name, func(context.Context) error {
		return errBoom
	})
	assert.True(t, ok)
	assert.Same(t, errBoom, err, "action error is returned unchanged")

	count, err := e.rollout.FailureCount(ctx, feature.Name)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRunIfFeatureCountsAfterCancel(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	feature := e.feature(t, "cancelled")
	user := entity.NewRecord(typeUser, 7)
	_, err := e.admin.AddRecordToFeature(context.Background(), user, feature.Name)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = e.rollout.For(user).RunIfFeature(ctx, feature.Name, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	count, err := e.rollout.FailureCount(context.Background(), feature.Name)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRunIfFeatureIncrementFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "unlucky")
	user := entity.NewRecord(typeUser, 7)
	_, err := e.admin.AddRecordToFeature(ctx, user, feature.Name)
	require.NoError(t, err)

	errDown := errors.New("database down")
	rollout := service.NewServiceRollout(&brokenStore{Store: e.store, incrementErr: errDown}, e.registry)
	ok, err := rollout.For(user).RunIfFeature(ctx, feature.Name, func(context.Context) error {
		return errBoom
	})
	assert.True(t, ok)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, errDown)
	assert.ErrorIs(t, err, service.ErrStorage)
}

func TestRunIfFeatureConcurrentFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "contended")
	_, err := e.admin.AddPercentageToFeature(ctx, typeUser, 100, feature.Name)
	require.NoError(t, err)

	const n = 64
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.rollout.For(entity.NewRecord(typeUser, int64(i))).RunIfFeature(ctx, feature.Name, func(context.Context) error {
				return errBoom
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.Same(t, errBoom, err)
	}
	count, err := e.rollout.FailureCount(ctx, feature.Name)
	require.NoError(t, err)
	assert.EqualValues(t, n, count)
}

func TestRunIfFeatureSharedContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "shared")
	user := entity.NewRecord(typeUser, 1)
	_, err := e.admin.AddRecordToFeature(ctx, user, feature.Name)
	require.NoError(t, err)

	flaggable := e.rollout.For(user)
	const n = 16
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = flaggable.RunIfFeature(ctx, feature.Name, func(context.Context) error { return errBoom })
		}()
	}
	wg.Wait()

	count, err := e.rollout.FailureCount(ctx, feature.Name)
	require.NoError(t, err)
	assert.EqualValues(t, n, count)
}

func TestCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEngine(t)
	feature := e.feature(t, "counted")

	for id := range int64(3) {
		_, err := e.admin.AddRecordToFeature(ctx, entity.NewRecord(typeUser, id), feature.Name)
		require.NoError(t, err)
	}
	_, err := e.admin.AddRecordToFeature(ctx, entity.NewRecord(typeAccount, 1), feature.Name)
	require.NoError(t, err)
	_, err = e.admin.OptRecordOutOfFeature(ctx, entity.NewRecord(typeUser, 10), feature.Name)
	require.NoError(t, err)

	flagIns, err := e.rollout.FlagInCount(ctx, feature.Name, typeUser)
	require.NoError(t, err)
	assert.EqualValues(t, 3, flagIns)

	optOuts, err := e.rollout.OptOutCount(ctx, feature.Name, typeUser)
	require.NoError(t, err)
	assert.EqualValues(t, 1, optOuts)

	optOuts, err = e.rollout.OptOutCount(ctx, feature.Name, typeAccount)
	require.NoError(t, err)
	assert.Zero(t, optOuts)

	counters, err := e.rollout.Counters(ctx, feature.Name)
	require.NoError(t, err)
	assert.Equal(t, &entity.Counters{
		FeatureName:  feature.Name,
		FlagInCounts: map[string]int64{typeUser: 3, typeAccount: 1},
		OptOutCounts: map[string]int64{typeUser: 1},
	}, counters)

	_, err = e.rollout.FailureCount(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRolloutOverMemoryStoreDefaults(t *testing.T) {
	t.Parallel()
	rollout := service.NewServiceRollout(memory.NewStore(), nil)
	require.NotNil(t, rollout.Groups())
	assert.Empty(t, rollout.Groups().GroupNames(typeUser))
}
