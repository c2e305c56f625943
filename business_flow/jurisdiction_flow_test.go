package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/utils"
)

func newTestJurisdictionFlow(repo *fakeJurisdictionRepo, store *memoryCounterStore) JurisdictionFlow {
	allocator := NewCodeAllocator(NewJurisdictionLookup(repo, nil, nil), store)
	return NewJurisdictionFlow(repo, allocator, nil)
}

func TestJurisdictionFlow_CreateJurisdiction(t *testing.T) {
	ctx := context.Background()
	repo := newFakeJurisdictionRepo("RDC4")
	flow := newTestJurisdictionFlow(repo, newMemoryCounterStore())

	t.Run("Success", func(t *testing.T) {
		result, err := flow.CreateJurisdiction(ctx, &dto.CreateJurisdictionRequest{Identifier: "RDC7", Name: "Regional Council 7"}, NewClientMetadata("127.0.0.1", "test"))
		require.NoError(t, err)
		assert.Equal(t, "RDC7", result.Identifier)
		assert.True(t, result.IsActive)
		_, err = uuid.Parse(result.UUID)
		assert.NoError(t, err)
	})

	t.Run("DuplicateIdentifier", func(t *testing.T) {
		_, err := flow.CreateJurisdiction(ctx, &dto.CreateJurisdictionRequest{Identifier: "RDC4", Name: "Duplicate"}, nil)
		assert.True(t, IsJurisdictionIdentifierExists(err))
	})

	t.Run("InvalidIdentifier", func(t *testing.T) {
		_, err := flow.CreateJurisdiction(ctx, &dto.CreateJurisdictionRequest{Identifier: "rdc-4", Name: "Lower"}, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("BlankName", func(t *testing.T) {
		_, err := flow.CreateJurisdiction(ctx, &dto.CreateJurisdictionRequest{Identifier: "RDC9", Name: "   "}, nil)
		assert.True(t, IsValidation(err))
	})
}

func TestJurisdictionFlow_UpdateKeepsIdentifier(t *testing.T) {
	ctx := context.Background()
	repo := newFakeJurisdictionRepo("RDC4")
	flow := newTestJurisdictionFlow(repo, newMemoryCounterStore())
	j := repo.byIdentifier("RDC4")

	_, err := flow.UpdateJurisdiction(ctx, &dto.UpdateJurisdictionRequest{UUID: j.UUID.String()}, nil)
	assert.True(t, IsJurisdictionUpdateRequired(err))

	result, err := flow.UpdateJurisdiction(ctx, &dto.UpdateJurisdictionRequest{
		UUID:     j.UUID.String(),
		Name:     utils.ToPtr("Renamed Council"),
		IsActive: utils.ToPtr(false),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Council", result.Name)
	assert.Equal(t, "RDC4", result.Identifier)
	assert.False(t, result.IsActive)

	_, err = flow.UpdateJurisdiction(ctx, &dto.UpdateJurisdictionRequest{UUID: uuid.NewString(), Name: utils.ToPtr("Nobody")}, nil)
	assert.True(t, IsJurisdictionNotFound(err))
}

func TestJurisdictionFlow_GetAndList(t *testing.T) {
	ctx := context.Background()
	repo := newFakeJurisdictionRepo("RDC1", "RDC2", "RDC3")
	flow := newTestJurisdictionFlow(repo, newMemoryCounterStore())

	got, err := flow.GetJurisdiction(ctx, repo.byIdentifier("RDC2").UUID.String())
	require.NoError(t, err)
	assert.Equal(t, "RDC2", got.Identifier)

	_, err = flow.GetJurisdiction(ctx, "not-a-uuid")
	assert.True(t, IsInvalidUUID(err))

	list, err := flow.ListJurisdictions(ctx, &dto.ListJurisdictionsRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, int64(3), list.Pagination.Total)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	_, err = flow.ListJurisdictions(ctx, &dto.ListJurisdictionsRequest{Page: 1, Limit: 500})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestJurisdictionFlow_AllocateCode(t *testing.T) {
	ctx := context.Background()
	repo := newFakeJurisdictionRepo("RDC4")
	store := newMemoryCounterStore()
	flow := newTestJurisdictionFlow(repo, store)
	j := repo.byIdentifier("RDC4")

	result, err := flow.AllocateCode(ctx, &dto.AllocateCodeRequest{JurisdictionUUID: j.UUID.String(), RecordType: utils.RecordTypePermit}, nil)
	require.NoError(t, err)
	assert.Equal(t, "RDC4-000001", result.Code)
	assert.Equal(t, utils.RecordTypePermit, result.RecordType)
	assert.Equal(t, j.UUID.String(), result.JurisdictionUUID)

	_, err = flow.AllocateCode(ctx, &dto.AllocateCodeRequest{JurisdictionUUID: uuid.NewString(), RecordType: utils.RecordTypePermit}, nil)
	assert.True(t, IsJurisdictionNotFound(err))

	current, err := store.Current(ctx, j.ID, utils.RecordTypePermit)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}
