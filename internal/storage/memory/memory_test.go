package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/exchange-booth/internal/storage"
)

func TestApplyWritesAccountsAndReceipt(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.Accounts().Save(ctx, &storage.AccountModel{Pubkey: "gone", Owner: "sys"}))

	cs := &storage.ChangeSet{
		Slot: 3,
		Upserts: []*storage.AccountModel{
			{Pubkey: "a", Lamports: 10, Data: []byte{1, 2}, Owner: "prog", Slot: 3},
			{Pubkey: "b", Lamports: 20, Owner: "prog", Slot: 3},
		},
		Deletes:   []string{"gone"},
		Execution: &storage.ExecutionModel{ID: "e1", Signature: "sig1", Success: true, StartedAt: time.Now()},
	}
	require.NoError(t, repo.Apply(ctx, cs))

	a, err := repo.Accounts().FindByPubkey(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, uint64(10), a.Lamports)
	assert.Equal(t, []byte{1, 2}, a.Data)

	gone, err := repo.Accounts().FindByPubkey(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, gone)

	owned, err := repo.Accounts().FindByOwner(ctx, "prog", 10, 0)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "a", owned[0].Pubkey)

	exec, err := repo.Executions().FindBySignature(ctx, "sig1")
	require.NoError(t, err)
	require.NotNil(t, exec)
	assert.True(t, exec.Success)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Executions().Save(ctx, &storage.ExecutionModel{ID: "dup"}))

	err := repo.Apply(ctx, &storage.ChangeSet{
		Upserts:   []*storage.AccountModel{{Pubkey: "a", Lamports: 1}},
		Execution: &storage.ExecutionModel{ID: "dup"},
	})
	require.Error(t, err)

	all, err := repo.Accounts().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReturnedModelsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Accounts().Save(ctx, &storage.AccountModel{Pubkey: "a", Data: []byte{7}}))

	got, err := repo.Accounts().FindByPubkey(ctx, "a")
	require.NoError(t, err)
	got.Data[0] = 9

	again, err := repo.Accounts().FindByPubkey(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, byte(7), again.Data[0])
}

func TestFindRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, repo.Executions().Save(ctx, &storage.ExecutionModel{ID: id}))
	}

	recent, err := repo.Executions().FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)
}

func TestClosedRepository(t *testing.T) {
	repo := NewRepository()
	require.NoError(t, repo.Close())
	assert.Error(t, repo.Ping(context.Background()))
	assert.Error(t, repo.Apply(context.Background(), &storage.ChangeSet{}))
}
