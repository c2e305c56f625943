package businessflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/civic-portal/utils"
)

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "RDC4-000001", FormatCode("RDC4", 1))
	assert.Equal(t, "RDC4-000042", FormatCode("RDC4", 42))
	assert.Equal(t, "NDC-999999", FormatCode("NDC", utils.MaxSequenceValue))
}

func TestCodeAllocator_AllocateCode(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstCodesAreSequential", func(t *testing.T) {
		allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, newMemoryCounterStore())

		code, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-000001", code)

		code, err = allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-000002", code)
	})

	t.Run("CountersAreIndependent", func(t *testing.T) {
		store := newMemoryCounterStore()
		allocator := NewCodeAllocator(staticLookup{1: "RDC4", 2: "RDC7"}, store)

		for i := 0; i < 3; i++ {
			_, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
			require.NoError(t, err)
		}

		code, err := allocator.AllocateCode(ctx, 2, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC7-000001", code)

		code, err = allocator.AllocateCode(ctx, 1, utils.RecordTypePermit)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-000001", code)

		code, err = allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-000004", code)
	})

	t.Run("UnknownJurisdiction", func(t *testing.T) {
		store := newMemoryCounterStore()
		allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store)

		_, err := allocator.AllocateCode(ctx, 99, utils.RecordTypeProject)
		require.Error(t, err)

		var notFound *NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, uint(99), notFound.JurisdictionID)
		assert.True(t, IsJurisdictionNotFound(err))
		assert.Equal(t, 0, store.len())
	})

	t.Run("InvalidRecordType", func(t *testing.T) {
		store := newMemoryCounterStore()
		allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store)

		for _, rt := range []string{"", "Project", "has space"} {
			_, err := allocator.AllocateCode(ctx, 1, rt)
			assert.True(t, IsValidation(err), rt)
			assert.True(t, IsInvalidRecordType(err), rt)
		}
		assert.Equal(t, 0, store.len())
	})

	t.Run("OverflowLeavesCounterUnchanged", func(t *testing.T) {
		store := newMemoryCounterStore()
		store.set(1, utils.RecordTypeProject, utils.MaxSequenceValue-1)
		allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store)

		code, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-999999", code)

		_, err = allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		var overflow *OverflowError
		require.True(t, errors.As(err, &overflow))
		assert.Equal(t, utils.MaxSequenceValue, overflow.Max)
		assert.True(t, IsSequenceExhausted(err))

		current, err := store.Current(ctx, 1, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, utils.MaxSequenceValue, current)
	})

	t.Run("StoreFailureDoesNotSkipNumbers", func(t *testing.T) {
		store := newMemoryCounterStore()
		allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store)

		store.failNext = 1
		_, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		var unavailable *StoreUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.True(t, IsCounterStoreUnavailable(err))
		assert.ErrorIs(t, err, errInjected)

		code, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-000001", code)
	})

	t.Run("LookupFailureIsUnavailable", func(t *testing.T) {
		repo := newFakeJurisdictionRepo("RDC4")
		repo.failGet = errInjected
		allocator := NewCodeAllocator(NewJurisdictionLookup(repo, nil, nil), newMemoryCounterStore())

		_, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
		assert.True(t, IsCounterStoreUnavailable(err))
		assert.False(t, IsJurisdictionNotFound(err))
	})
}

func TestCodeAllocator_HistoryIsTransactional(t *testing.T) {
	ctx := context.WithValue(context.Background(), utils.RequestIDKey, "req-1")
	store := newMemoryCounterStore()
	history := &fakeAllocationHistory{}
	tx := &fakeTransactor{store: store, history: history}
	allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store,
		WithAllocationHistory(history),
		WithTransactor(tx),
	)

	history.failSave = 1
	_, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
	require.Error(t, err)
	assert.True(t, IsCounterStoreUnavailable(err))

	current, err := store.Current(ctx, 1, utils.RecordTypeProject)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	code, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
	require.NoError(t, err)
	assert.Equal(t, "RDC4-000001", code)

	require.Len(t, history.items, 1)
	entry := history.items[0]
	assert.Equal(t, "RDC4-000001", entry.Code)
	assert.Equal(t, int64(1), entry.Sequence)
	assert.Equal(t, utils.RecordTypeProject, entry.RecordType)
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-1", *entry.RequestID)
}

func TestCodeAllocator_CommitFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCounterStore()
	tx := &fakeTransactor{store: store, commitErr: errInjected}
	allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store, WithTransactor(tx))

	_, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
	var unavailable *StoreUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "commit", unavailable.Op)

	tx.commitErr = nil
	code, err := allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
	require.NoError(t, err)
	assert.Equal(t, "RDC4-000001", code)
}

func TestCodeAllocator_ConcurrentCallsAreUnique(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCounterStore()
	allocator := NewCodeAllocator(staticLookup{1: "RDC4", 2: "RDC7"}, store)

	const workers = 100
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]struct{}, workers*2)
	)
	for i := 0; i < workers; i++ {
		for _, jurisdictionID := range []uint{1, 2} {
			wg.Add(1)
			go func(jurisdictionID uint) {
				defer wg.Done()
				code, err := allocator.AllocateCode(ctx, jurisdictionID, utils.RecordTypeProject)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				codes[code] = struct{}{}
				mu.Unlock()
			}(jurisdictionID)
		}
	}
	wg.Wait()

	assert.Len(t, codes, workers*2)
	for i := int64(1); i <= workers; i++ {
		assert.Contains(t, codes, FormatCode("RDC4", i))
		assert.Contains(t, codes, FormatCode("RDC7", i))
	}
}

func TestCodeAllocator_ObserverOutcomes(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCounterStore()
	store.set(1, utils.RecordTypePermit, utils.MaxSequenceValue)
	observer := &recordingObserver{}
	allocator := NewCodeAllocator(staticLookup{1: "RDC4"}, store, WithAllocationObserver(observer))

	_, _ = allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)
	_, _ = allocator.AllocateCode(ctx, 1, "BAD")
	_, _ = allocator.AllocateCode(ctx, 2, utils.RecordTypeProject)
	_, _ = allocator.AllocateCode(ctx, 1, utils.RecordTypePermit)
	store.failNext = 1
	_, _ = allocator.AllocateCode(ctx, 1, utils.RecordTypeProject)

	outcomes := make([]string, 0, len(observer.calls))
	for _, c := range observer.calls {
		outcomes = append(outcomes, c.outcome)
	}
	assert.Equal(t, []string{AllocationIssued, AllocationInvalid, AllocationNotFound, AllocationExhausted, AllocationUnavailable}, outcomes)
}
