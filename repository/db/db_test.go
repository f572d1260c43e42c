package db_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/dialects/postgresql"

	_ "feature-rollout/migrations"
	"feature-rollout/entity"
	"feature-rollout/models"
	"feature-rollout/repository"
	"feature-rollout/repository/cache"
	mydb "feature-rollout/repository/db"
	"feature-rollout/service"
)

// testDatabaseURL points at a disposable PostgreSQL database.
const testDatabaseURL = "ROLLOUT_TEST_DATABASE_URL"

var migrateOnce sync.Once

func newRepo(t *testing.T) *mydb.RepoRolloutDB {
	t.Helper()
	dsn := os.Getenv(testDatabaseURL)
	if dsn == "" {
		t.Skipf("%s is not set", testDatabaseURL)
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Ping())

	var migrateErr error
	migrateOnce.Do(func() {
		if migrateErr = goose.SetDialect("postgres"); migrateErr != nil {
			return
		}
		migrateErr = goose.UpContext(context.Background(), db, "../../migrations")
	})
	require.NoError(t, migrateErr)

	reformDB := reform.NewDB(db, postgresql.Dialect, reform.NewPrintfLogger(t.Logf))
	lru := cache.NewRepoCacheFeature(cache.NewLRU(100, time.Minute))
	return mydb.NewRepoRolloutDB(reformDB, lru)
}

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func createFeature(t *testing.T, repo *mydb.RepoRolloutDB, name string) models.Feature {
	t.Helper()
	feature := models.NewFeature(name)
	require.NoError(t, repo.InTransaction(context.Background(), func(w repository.Writer) error {
		return w.InsertFeature(context.Background(), &feature)
	}))
	t.Cleanup(func() {
		_ = repo.InTransaction(context.Background(), func(w repository.Writer) error {
			return w.DeleteFeature(context.Background(), &feature)
		})
	})
	return feature
}

func TestFeatureLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	name := uniqueName("lifecycle")
	feature := createFeature(t, repo, name)

	got, err := repo.FeatureByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, feature.ID, got.ID)
	assert.Empty(t, got.FlagInCounts)

	require.NoError(t, repo.InTransaction(ctx, func(w repository.Writer) error {
		locked, err := w.LockFeature(ctx, name)
		if err != nil {
			return err
		}
		locked.FlagInCounts.Add("User", 3)
		return w.UpdateFeature(ctx, &locked)
	}))

	got, err = repo.FeatureByName(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.FlagInCount("User"), "transaction evicts the cached feature")

	err = repo.InTransaction(ctx, func(w repository.Writer) error {
		dup := models.NewFeature(name)
		return w.InsertFeature(ctx, &dup)
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = repo.FeatureByName(ctx, uniqueName("missing"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFlagsAndGroups(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	feature := createFeature(t, repo, uniqueName("flags"))

	group := models.Group{Name: uniqueName("group"), RecordType: "User"}
	require.NoError(t, repo.InTransaction(ctx, func(w repository.Writer) error {
		if err := w.InsertGroup(ctx, &group); err != nil {
			return err
		}
		m := models.Membership{GroupID: group.ID, MemberType: "User", MemberID: 77}
		if err := w.InsertMembership(ctx, &m); err != nil {
			return err
		}
		for _, f := range []models.Flag{
			models.NewFlagIn(feature.ID, "User", 1),
			models.NewOptOut(feature.ID, "User", 2),
			models.NewPercentage(feature.ID, "User", 30),
			models.NewCodeGroupFlag(feature.ID, "User", "staff"),
			models.NewDatabaseGroupFlag(feature.ID, group),
		} {
			if err := w.InsertFlag(ctx, &f); err != nil {
				return err
			}
		}
		return nil
	}))

	_, err := repo.FlagInFor(ctx, feature.ID, "User", 1)
	require.NoError(t, err)
	_, err = repo.FlagInFor(ctx, feature.ID, "Account", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	optOut, err := repo.OptOutFor(ctx, feature.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FlagKindOptOut, optOut.Kind)

	percentage, err := repo.PercentageFor(ctx, feature.ID, "User")
	require.NoError(t, err)
	assert.Equal(t, 30, percentage.Percentage)

	codeGroups, err := repo.CodeGroupFlagsFor(ctx, feature.ID, "User")
	require.NoError(t, err)
	require.Len(t, codeGroups, 1)
	assert.Equal(t, "staff", codeGroups[0].GroupName)

	dbGroups, err := repo.DatabaseGroupFlagsFor(ctx, feature.ID, "User")
	require.NoError(t, err)
	require.Len(t, dbGroups, 1)
	assert.Equal(t, group.ID, dbGroups[0].GroupIDValue())

	groups, err := repo.GroupsForMember(ctx, "User", 77)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.Name, groups[0].Name)

	err = repo.InTransaction(ctx, func(w repository.Writer) error {
		dup := models.NewOptOut(feature.ID, "Account", 2)
		return w.InsertFlag(ctx, &dup)
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists, "opt-outs are unique per record id")

	require.NoError(t, repo.InTransaction(ctx, func(w repository.Writer) error {
		return w.DeleteGroup(ctx, &group)
	}))
	dbGroups, err = repo.DatabaseGroupFlagsFor(ctx, feature.ID, "User")
	require.NoError(t, err)
	assert.Empty(t, dbGroups)
	memberships, err := repo.MembershipsFor(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestIncrementFailureCountConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	name := uniqueName("failures")
	feature := createFeature(t, repo, name)

	_, err := repo.FeatureByName(ctx, name)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementFailureCount(ctx, feature))
		}()
	}
	wg.Wait()

	got, err := repo.FeatureByName(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, n, got.FailureCount)

	err = repo.IncrementFailureCount(ctx, models.NewFeature(uniqueName("ghost")))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDestroyedFeatureIsNotServedFromCache(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	name := uniqueName("destroyed")
	createFeature(t, repo, name)

	_, err := repo.FeatureByName(ctx, name)
	require.NoError(t, err)

	admin := service.NewServiceAdmin(repo)
	require.NoError(t, admin.DestroyFeature(ctx, name))

	_, err = repo.FeatureByName(ctx, name)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdminConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	admin := service.NewServiceAdmin(repo)
	name := uniqueName("contended")
	t.Cleanup(func() { _ = admin.DestroyFeature(context.Background(), name) })

	const n = 16
	ids := make(chan uuid.UUID, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feature, err := admin.EnsureFeature(ctx, name)
			if assert.NoError(t, err) {
				ids <- feature.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[uuid.UUID]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1)

	user := entity.NewRecord("User", 7)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, err := admin.AddRecordToFeature(ctx, user, name)
				assert.NoError(t, err)
			} else {
				assert.NoError(t, admin.RemoveRecordFromFeature(ctx, user, name))
			}
			_, err := admin.AddPercentageToFeature(ctx, "User", i, name)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	flagIns, err := admin.FlagInsFor(ctx, name, "User")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(flagIns), 1)
	feature, err := admin.Feature(ctx, name)
	require.NoError(t, err)
	assert.EqualValues(t, len(flagIns), feature.FlagInCount("User"))

	percentages, err := admin.FlagsFor(ctx, name, models.FlagKindPercentage, "")
	require.NoError(t, err)
	assert.Len(t, percentages, 1)
}
