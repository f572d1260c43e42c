package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feature-rollout/entity"
	"feature-rollout/repository/memory"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	admin := NewServiceAdmin(store)
	rollout := NewServiceRollout(store, nil)

	const name = "metrics-feature"
	_, err := admin.CreateFeature(ctx, name)
	require.NoError(t, err)
	_, err = admin.AddRecordToFeature(ctx, entity.NewRecord("User", 1), name)
	require.NoError(t, err)

	on := testutil.ToFloat64(evaluations.WithLabelValues(name, resultOn))
	off := testutil.ToFloat64(evaluations.WithLabelValues(name, resultOff))
	failures := testutil.ToFloat64(actionFailures.WithLabelValues(name))

	user := rollout.For(entity.NewRecord("User", 1))
	_, err = user.RunIfFeature(ctx, name, func(context.Context) error { return errors.New("boom") })
	require.Error(t, err)
	_, err = user.HasFeature(ctx, name)
	require.NoError(t, err)
	_, err = rollout.For(entity.NewRecord("User", 2)).HasFeature(ctx, name)
	require.NoError(t, err)

	assert.InDelta(t, on+1, testutil.ToFloat64(evaluations.WithLabelValues(name, resultOn)), 0, "memoized decision is counted once")
	assert.InDelta(t, off+1, testutil.ToFloat64(evaluations.WithLabelValues(name, resultOff)), 0)
	assert.InDelta(t, failures+1, testutil.ToFloat64(actionFailures.WithLabelValues(name)), 0)
}
