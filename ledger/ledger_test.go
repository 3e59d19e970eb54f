// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ledger

import (
	"context"
	"testing"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/miner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, difficulty int, store SnapshotStore) *Ledger {
	hasher := chain.NewHasher(chain.HashAlgorithmSha256, 64)
	l := &Ledger{
		Hasher:     hasher,
		Difficulty: chain.Difficulty(difficulty),
		Store:      store,
	}
	l.InitDefault()
	require.NoError(t, l.Load())
	return l
}

func TestHashIsSetOnAdd(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)
	b, err := l.Add()
	require.NoError(t, err)

	assert.Equal(t, 1, b.Index)
	assert.Equal(t, chain.GenesisPreviousHash, b.PreviousHash)
	assert.Equal(t, chain.ComputeHash(chain.Header{Index: 1, PreviousHash: chain.GenesisPreviousHash}), b.Hash)

	view := l.View()
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, chain.LabelNotValid, view.Blocks[0].Label)
	assert.Equal(t, "unmined", view.Blocks[0].State)
	assert.True(t, view.Blocks[0].Deletable)
}

func TestTwoBlocksAreLinked(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)
	first, err := l.Add()
	require.NoError(t, err)
	second, err := l.Add()
	require.NoError(t, err)

	view := l.View()
	assert.Equal(t, "Total Blocks: 2", view.Title)
	assert.Equal(t, first.Hash, second.PreviousHash)
	assert.False(t, view.Blocks[0].Deletable)
	assert.True(t, view.Blocks[1].Deletable)
	assert.Empty(t, l.Verify())
}

func TestMineMakesBlockValid(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)
	b, err := l.Add()
	require.NoError(t, err)

	mined, result, err := l.Mine(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(48859), mined.Nonce)
	assert.Equal(t, result.Hash, mined.Hash)
	assert.True(t, chain.IsValid(mined.Hash))
	assert.Equal(t, chain.StateMined, mined.State)

	view := l.View()
	assert.Equal(t, chain.LabelValid, view.Blocks[0].Label)
	assert.Equal(t, "mined", view.Blocks[0].State)
}

func TestEditDataInvalidatesMinedBlock(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)
	b, err := l.Add()
	require.NoError(t, err)
	mined, _, err := l.Mine(context.Background(), b.ID)
	require.NoError(t, err)

	edited, err := l.SetData(b.ID, "Hello World")
	require.NoError(t, err)
	assert.NotEqual(t, mined.Hash, edited.Hash)
	assert.Equal(t, mined.Nonce, edited.Nonce)
	assert.Equal(t, chain.StateUnmined, edited.State)
	assert.Equal(t, chain.LabelNotValid, l.View().Blocks[0].Label)
}

func TestEditPropagatesDownstream(t *testing.T) {
	l := newLedger(t, 2, nil)
	var ids []chain.BlockID
	for i := 0; i < 3; i++ {
		b, err := l.Add()
		require.NoError(t, err)
		_, _, err = l.Mine(context.Background(), b.ID)
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	for _, b := range l.View().Blocks {
		assert.Equal(t, chain.LabelValid, b.Label)
	}

	events, unsubscribe := l.Subscribe(4)
	defer unsubscribe()

	_, err := l.SetData(ids[0], "changed")
	require.NoError(t, err)

	event := <-events
	assert.Equal(t, EventDataChanged, event.Type)
	assert.Equal(t, ids, event.Rehashed)

	c := l.Snapshot()
	for i := 1; i < 3; i++ {
		prev, err := c.PreviousHash(ids[i])
		require.NoError(t, err)
		assert.Equal(t, c.Hash(ids[i-1]), prev)
		b, _ := c.Block(ids[i])
		assert.Equal(t, chain.StateUnmined, b.State)
	}
	assert.Empty(t, l.Verify())
}

func TestMineOnlyRehashesDownstream(t *testing.T) {
	l := newLedger(t, 2, nil)
	first, err := l.Add()
	require.NoError(t, err)
	second, err := l.Add()
	require.NoError(t, err)

	_, _, err = l.Mine(context.Background(), first.ID)
	require.NoError(t, err)
	c := l.Snapshot()
	prev, _ := c.PreviousHash(second.ID)
	assert.Equal(t, c.Hash(first.ID), prev)
	assert.Empty(t, l.Verify())
}

func TestDelete(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)

	c, err := l.Delete()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(0), l.Revision())

	first, _ := l.Add()
	second, _ := l.Add()

	_, err = l.DeleteBlock(first.ID)
	assert.Equal(t, chain.ErrNotLastBlock, err)
	assert.Equal(t, 2, l.Snapshot().Len())

	c, err = l.DeleteBlock(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c, err = l.Delete()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "Total Blocks: 0", l.View().Title)
}

func TestMiningIncompleteResumes(t *testing.T) {
	hasher := chain.NewHasher(chain.HashAlgorithmSha256, 0)
	m := &miner.PoWMiner{Hasher: hasher, Difficulty: 64, MaxAttempts: 10}
	m.InitDefault()
	l := &Ledger{Hasher: hasher, Difficulty: 64, Miner: m}
	l.InitDefault()

	b, err := l.Add()
	require.NoError(t, err)

	got, _, err := l.Mine(context.Background(), b.ID)
	assert.Equal(t, miner.ErrAttemptsExhausted, err)
	assert.Equal(t, chain.StateIncomplete, got.State)
	assert.Equal(t, uint64(9), got.Nonce)
	assert.Equal(t, chain.LabelNotValid, l.View().Blocks[0].Label)
	assert.Equal(t, "incomplete", l.View().Blocks[0].State)

	got, _, err = l.Mine(context.Background(), b.ID)
	assert.Equal(t, miner.ErrAttemptsExhausted, err)
	assert.Equal(t, uint64(19), got.Nonce)
	assert.Empty(t, l.Verify())

	// editing data starts over
	got, err = l.SetData(b.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, chain.StateUnmined, got.State)
}

func TestMineCancelled(t *testing.T) {
	l := newLedger(t, 64, nil)
	b, err := l.Add()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, _, err := l.Mine(ctx, b.ID)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, b.Hash, got.Hash)
	after, _ := l.Snapshot().Block(b.ID)
	assert.Equal(t, chain.StateUnmined, after.State)
}

func TestUnknownBlock(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)
	_, err := l.SetData(chain.NewBlockID(), "x")
	assert.Equal(t, chain.ErrBlockNotFound, err)
	_, _, err = l.Mine(context.Background(), chain.NewBlockID())
	assert.Equal(t, chain.ErrBlockNotFound, err)
}

func TestPersistedChainIsRestored(t *testing.T) {
	store, err := NewMemLevelDBStore()
	require.NoError(t, err)
	defer store.Close()

	l := newLedger(t, 2, store)
	b, err := l.Add()
	require.NoError(t, err)
	_, err = l.SetData(b.ID, "persist me")
	require.NoError(t, err)
	_, _, err = l.Mine(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = l.Add()
	require.NoError(t, err)

	restored := newLedger(t, 2, store)
	assert.Equal(t, l.Snapshot().Blocks(), restored.Snapshot().Blocks())
	assert.Equal(t, l.View(), restored.View())
}

func TestMinedStateDroppedWhenDifficultyRises(t *testing.T) {
	store, err := NewMemLevelDBStore()
	require.NoError(t, err)
	defer store.Close()

	l := newLedger(t, 2, store)
	b, err := l.Add()
	require.NoError(t, err)
	_, _, err = l.Mine(context.Background(), b.ID)
	require.NoError(t, err)
	mined, err := l.Snapshot().Block(b.ID)
	require.NoError(t, err)
	require.Equal(t, chain.StateMined, mined.State)

	restored := newLedger(t, 64, store)
	got, err := restored.Snapshot().Block(b.ID)
	require.NoError(t, err)
	assert.Equal(t, chain.StateUnmined, got.State)
	assert.Equal(t, mined.Hash, got.Hash)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	l := newLedger(t, chain.DefaultDifficulty, nil)
	events, unsubscribe := l.Subscribe(0)

	b, err := l.Add()
	require.NoError(t, err)
	event := <-events
	assert.Equal(t, EventBlockAdded, event.Type)
	assert.Equal(t, b.ID, event.BlockID)
	assert.Equal(t, uint64(1), event.Revision)
	assert.Equal(t, 1, event.Chain.Len())

	unsubscribe()
	_, ok := <-events
	assert.False(t, ok)
	// a second call and Stop are both safe
	unsubscribe()
	l.Stop()
}
