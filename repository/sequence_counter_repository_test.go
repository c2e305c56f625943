package repository_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
	pgtesting "github.com/amirphl/civic-portal/testing"
	"github.com/amirphl/civic-portal/utils"
)

func newJurisdiction(t *testing.T, tdb *pgtesting.TestDB, identifier string) *models.Jurisdiction {
	t.Helper()
	j, err := pgtesting.NewTestFixtures(tdb).CreateTestJurisdiction(identifier)
	require.NoError(t, err)
	return j
}

func TestSequenceCounterIncrement(t *testing.T) {
	pgtesting.WithDB(t, func(tdb *pgtesting.TestDB) {
		ctx := context.Background()
		repo := repository.NewSequenceCounterRepository(tdb.DB)
		rdc4 := newJurisdiction(t, tdb, "RDC4")
		nw2 := newJurisdiction(t, tdb, "NW2")

		for want := int64(1); want <= 3; want++ {
			got, err := repo.IncrementAndGet(ctx, rdc4.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		got, err := repo.IncrementAndGet(ctx, rdc4.ID, utils.RecordTypePermit, utils.MaxSequenceValue)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = repo.IncrementAndGet(ctx, nw2.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		current, err := repo.Current(ctx, rdc4.ID, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, int64(3), current)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestSequenceCounterOverflow(t *testing.T) {
	pgtesting.WithDB(t, func(tdb *pgtesting.TestDB) {
		ctx := context.Background()
		repo := repository.NewSequenceCounterRepository(tdb.DB)
		j := newJurisdiction(t, tdb, "RDC4")
		require.NoError(t, pgtesting.NewTestFixtures(tdb).SetCounter(j.ID, utils.RecordTypeProject, utils.MaxSequenceValue-1))

		got, err := repo.IncrementAndGet(ctx, j.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
		require.NoError(t, err)
		assert.Equal(t, utils.MaxSequenceValue, got)

		_, err = repo.IncrementAndGet(ctx, j.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
		assert.ErrorIs(t, err, repository.ErrSequenceExhausted)

		current, err := repo.Current(ctx, j.ID, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, utils.MaxSequenceValue, current)
	})
}

func TestSequenceCounterConcurrentIncrements(t *testing.T) {
	pgtesting.WithDB(t, func(tdb *pgtesting.TestDB) {
		ctx := context.Background()
		repo := repository.NewSequenceCounterRepository(tdb.DB)
		j := newJurisdiction(t, tdb, "RDC4")

		const workers = 25
		results := make([]int64, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next, err := repo.IncrementAndGet(ctx, j.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
				assert.NoError(t, err)
				results[i] = next
			}()
		}
		wg.Wait()

		sort.Slice(results, func(a, b int) bool { return results[a] < results[b] })
		for i, v := range results {
			assert.Equal(t, int64(i+1), v)
		}
	})
}

func TestSequenceCounterRollbackConsumesNothing(t *testing.T) {
	pgtesting.WithDB(t, func(tdb *pgtesting.TestDB) {
		ctx := context.Background()
		repo := repository.NewSequenceCounterRepository(tdb.DB)
		transactor := repository.NewTransactor(tdb.DB)
		j := newJurisdiction(t, tdb, "RDC4")

		errAbort := errors.New("abort")
		err := transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			next, err := repo.IncrementAndGet(txCtx, j.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
			require.NoError(t, err)
			assert.Equal(t, int64(1), next)
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		next, err := repo.IncrementAndGet(ctx, j.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
		require.NoError(t, err)
		assert.Equal(t, int64(1), next)
	})
}

func TestSequenceCounterRaiseTo(t *testing.T) {
	pgtesting.WithDB(t, func(tdb *pgtesting.TestDB) {
		ctx := context.Background()
		repo := repository.NewSequenceCounterRepository(tdb.DB)
		j := newJurisdiction(t, tdb, "RDC4")

		raised, err := repo.RaiseTo(ctx, j.ID, utils.RecordTypeProject, 40)
		require.NoError(t, err)
		assert.True(t, raised)

		raised, err = repo.RaiseTo(ctx, j.ID, utils.RecordTypeProject, 12)
		require.NoError(t, err)
		assert.False(t, raised)

		next, err := repo.IncrementAndGet(ctx, j.ID, utils.RecordTypeProject, utils.MaxSequenceValue)
		require.NoError(t, err)
		assert.Equal(t, int64(41), next)

		_, err = repo.RaiseTo(ctx, j.ID, utils.RecordTypeProject, -1)
		assert.Error(t, err)

		raised, err = repo.RaiseTo(ctx, j.ID, utils.RecordTypePermit, 0)
		require.NoError(t, err)
		assert.False(t, raised)
		count, err := repo.Count(ctx, models.SequenceCounterFilter{JurisdictionID: &j.ID, RecordType: utils.ToPtr(utils.RecordTypePermit)})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
