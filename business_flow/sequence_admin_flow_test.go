package businessflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/utils"
)

func TestSequenceAdminFlow_ListCounters(t *testing.T) {
	ctx := context.Background()
	repo := newFakeJurisdictionRepo("RDC4", "RDC7")
	store := newMemoryCounterStore()
	rdc4 := repo.byIdentifier("RDC4")
	store.set(rdc4.ID, utils.RecordTypeProject, 899999)
	store.set(rdc4.ID, utils.RecordTypePermit, 0)

	flow := NewSequenceAdminFlow(store, repo, nil, nil)
	list, err := flow.ListCounters(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	permit := list.Items[0]
	assert.Equal(t, utils.RecordTypePermit, permit.RecordType)
	assert.Empty(t, permit.LastCode)
	assert.Equal(t, utils.MaxSequenceValue, permit.Remaining)

	project := list.Items[1]
	assert.Equal(t, "RDC4", project.JurisdictionIdentifier)
	assert.Equal(t, rdc4.UUID.String(), project.JurisdictionUUID)
	assert.Equal(t, "RDC4-899999", project.LastCode)
	assert.Equal(t, int64(100000), project.Remaining)
	assert.InDelta(t, 0.9, project.UsageRatio, 0.0001)
}

func TestSequenceAdminFlow_ImportCounters(t *testing.T) {
	ctx := context.Background()

	t.Run("RaisesButNeverLowers", func(t *testing.T) {
		repo := newFakeJurisdictionRepo("RDC4")
		store := newMemoryCounterStore()
		rdc4 := repo.byIdentifier("RDC4")
		store.set(rdc4.ID, utils.RecordTypePermit, 500)
		flow := NewSequenceAdminFlow(store, repo, &fakeTransactor{store: store}, nil)

		resp, err := flow.ImportCounters(ctx, &dto.ImportSequenceCountersRequest{Items: []dto.SequenceCounterImportItem{
			{JurisdictionIdentifier: "RDC4", RecordType: utils.RecordTypeProject, LastIssued: 1200},
			{JurisdictionIdentifier: "RDC4", RecordType: utils.RecordTypePermit, LastIssued: 20},
		}}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Raised)
		assert.Equal(t, 1, resp.Unchanged)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, int64(1200), resp.Results[0].LastIssued)
		assert.Equal(t, int64(500), resp.Results[1].LastIssued)
		assert.False(t, resp.Results[1].Raised)

		allocator := NewCodeAllocator(NewJurisdictionLookup(repo, nil, nil), store)
		code, err := allocator.AllocateCode(ctx, rdc4.ID, utils.RecordTypeProject)
		require.NoError(t, err)
		assert.Equal(t, "RDC4-001201", code)
	})

	t.Run("UnknownJurisdictionRollsBack", func(t *testing.T) {
		repo := newFakeJurisdictionRepo("RDC4")
		store := newMemoryCounterStore()
		flow := NewSequenceAdminFlow(store, repo, &fakeTransactor{store: store}, nil)

		_, err := flow.ImportCounters(ctx, &dto.ImportSequenceCountersRequest{Items: []dto.SequenceCounterImportItem{
			{JurisdictionIdentifier: "RDC4", RecordType: utils.RecordTypeProject, LastIssued: 10},
			{JurisdictionIdentifier: "RDC9", RecordType: utils.RecordTypeProject, LastIssued: 10},
		}}, nil)
		assert.True(t, IsJurisdictionNotFound(err))
		assert.Equal(t, 0, store.len())
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		repo := newFakeJurisdictionRepo("RDC4")
		store := newMemoryCounterStore()
		flow := NewSequenceAdminFlow(store, repo, nil, nil)

		_, err := flow.ImportCounters(ctx, &dto.ImportSequenceCountersRequest{Items: []dto.SequenceCounterImportItem{
			{JurisdictionIdentifier: "RDC4", RecordType: utils.RecordTypeProject, LastIssued: utils.MaxSequenceValue + 1},
		}}, nil)
		assert.True(t, IsInvalidSequenceValue(err))

		_, err = flow.ImportCounters(ctx, &dto.ImportSequenceCountersRequest{}, nil)
		assert.True(t, IsValidation(err))
	})
}

func TestSequenceAdminFlow_ExportCounters(t *testing.T) {
	ctx := context.Background()
	repo := newFakeJurisdictionRepo("RDC4")
	store := newMemoryCounterStore()
	store.set(repo.byIdentifier("RDC4").ID, utils.RecordTypeProject, 7)
	flow := NewSequenceAdminFlow(store, repo, nil, nil)

	filename, content, err := flow.ExportCounters(ctx)
	require.NoError(t, err)
	assert.Contains(t, filename, "sequence_counters_")

	xl, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	rows, err := xl.GetRows("counters")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "jurisdiction", rows[0][0])
	assert.Equal(t, "RDC4", rows[1][0])
	assert.Equal(t, utils.RecordTypeProject, rows[1][2])
	assert.Equal(t, "7", rows[1][3])
	assert.Equal(t, "RDC4-000007", rows[1][4])
}
