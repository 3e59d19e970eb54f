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
package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashAll records the digest of every block in order, the way a holder would after each add.
func hashAll(t *testing.T, c *Chain) *Chain {
	var err error
	for _, b := range c.Blocks() {
		cur, err2 := c.Block(b.ID)
		require.NoError(t, err2)
		c, err = c.SetHash(b.ID, ComputeHash(cur.Header()))
		require.NoError(t, err)
	}
	return c
}

func TestComputeHashIsPure(t *testing.T) {
	h := Header{Index: 1, Data: "hello", PreviousHash: GenesisPreviousHash, Nonce: 42}
	first := ComputeHash(h)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeHash(h))
	}
	assert.Len(t, first, 64)

	hasher := NewHasher(HashAlgorithmSha256, 16)
	assert.Equal(t, first, hasher.ComputeHash(h))
	assert.Equal(t, first, hasher.ComputeHash(h))
	assert.Equal(t, 1, hasher.CacheLen())
}

func TestComputeHashDependsOnEveryField(t *testing.T) {
	base := Header{Index: 1, Data: "", PreviousHash: GenesisPreviousHash, Nonce: 0}
	h := ComputeHash(base)

	variants := []Header{
		{Index: 2, Data: "", PreviousHash: GenesisPreviousHash, Nonce: 0},
		{Index: 1, Data: "x", PreviousHash: GenesisPreviousHash, Nonce: 0},
		{Index: 1, Data: "", PreviousHash: "1" + GenesisPreviousHash[1:], Nonce: 0},
		{Index: 1, Data: "", PreviousHash: GenesisPreviousHash, Nonce: 1},
	}
	for _, v := range variants {
		assert.NotEqual(t, h, ComputeHash(v), "%+v", v)
	}
}

func TestSha3DiffersFromSha256(t *testing.T) {
	h := Header{Index: 1, PreviousHash: GenesisPreviousHash}
	s3 := ComputeHashWith(HashAlgorithmSha3, h)
	assert.Len(t, s3, 64)
	assert.NotEqual(t, ComputeHash(h), s3)

	_, err := ParseHashAlgorithm("md5")
	assert.Error(t, err)
	algo, err := ParseHashAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, HashAlgorithmSha256, algo)
}

func TestDifficulty(t *testing.T) {
	d := Difficulty(4)
	assert.False(t, d.IsValid(""))
	assert.True(t, d.IsValid("0000abcd"))
	assert.False(t, d.IsValid("000abcde"))
	assert.Equal(t, LabelValid, d.Label("00001"))
	assert.Equal(t, LabelNotValid, d.Label(""))
	assert.True(t, Difficulty(0).IsValid("abc"))
}

func TestFirstBlockIsNotValid(t *testing.T) {
	c, b := New().Add()
	assert.Equal(t, 1, b.Index)
	assert.Equal(t, "", b.Data)
	assert.Equal(t, GenesisPreviousHash, b.PreviousHash)
	assert.Equal(t, uint64(0), b.Nonce)
	assert.Equal(t, "", b.Hash)
	assert.Equal(t, LabelNotValid, Difficulty(DefaultDifficulty).Label(b.Hash))

	c = hashAll(t, c)
	b, err := c.At(1)
	require.NoError(t, err)
	assert.Equal(t, ComputeHash(Header{Index: 1, PreviousHash: GenesisPreviousHash}), b.Hash)
	// nonce 0 happens not to satisfy four leading zeros
	assert.Equal(t, LabelNotValid, Difficulty(DefaultDifficulty).Label(b.Hash))
}

func TestAddTwoBlocksLinks(t *testing.T) {
	c, first := New().Add()
	c = hashAll(t, c)
	c, second := c.Add()
	c = hashAll(t, c)

	assert.Equal(t, "Total Blocks: 2", c.Title())
	assert.Equal(t, 2, second.Index)
	prev, err := c.PreviousHash(second.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Hash(first.ID), prev)
	assert.Empty(t, c.Verify(NewHasher(HashAlgorithmSha256, 0)))
}

func TestSnapshotsAreImmutable(t *testing.T) {
	empty := New()
	one, b := empty.Add()
	two, _ := one.Add()
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 2, two.Len())

	edited, err := one.SetData(b.ID, "hello")
	require.NoError(t, err)
	orig, _ := one.Block(b.ID)
	now, _ := edited.Block(b.ID)
	assert.Equal(t, "", orig.Data)
	assert.Equal(t, "hello", now.Data)

	hashed, err := one.SetHash(b.ID, "abc")
	require.NoError(t, err)
	assert.Equal(t, "", one.Hash(b.ID))
	assert.Equal(t, "abc", hashed.Hash(b.ID))
}

func TestDeleteOnlyLast(t *testing.T) {
	c, first := New().Add()
	c, second := c.Add()
	c = hashAll(t, c)

	_, err := c.DeleteBlock(first.ID)
	assert.Equal(t, ErrNotLastBlock, err)
	assert.False(t, c.IsLast(first.ID))
	assert.True(t, c.IsLast(second.ID))

	after, err := c.DeleteBlock(second.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Len()-1, after.Len())
	assert.Equal(t, "", after.Hash(second.ID))
	last, ok := after.Last()
	require.True(t, ok)
	assert.Equal(t, first.ID, last.ID)

	_, err = c.DeleteBlock(NewBlockID())
	assert.Equal(t, ErrBlockNotFound, err)
}

func TestDeleteEmptyIsNoop(t *testing.T) {
	empty := New()
	assert.Equal(t, empty, empty.Delete())
	assert.Equal(t, 0, empty.Delete().Len())
}

func TestIndexReusedAfterDelete(t *testing.T) {
	c, _ := New().Add()
	c, removed := c.Add()
	c = c.Delete()
	c, added := c.Add()
	assert.Equal(t, 2, added.Index)
	assert.NotEqual(t, removed.ID, added.ID)
}

func TestSetDataResetsMinedState(t *testing.T) {
	c, b := New().Add()
	c, err := c.SetState(b.ID, StateMined)
	require.NoError(t, err)
	c, err = c.SetData(b.ID, "Hello World")
	require.NoError(t, err)
	got, _ := c.Block(b.ID)
	assert.Equal(t, StateUnmined, got.State)
}

func TestUnknownBlock(t *testing.T) {
	c, _ := New().Add()
	missing := NewBlockID()
	_, err := c.SetHash(missing, "x")
	assert.Equal(t, ErrBlockNotFound, err)
	_, err = c.SetData(missing, "x")
	assert.Equal(t, ErrBlockNotFound, err)
	_, err = c.At(0)
	assert.Equal(t, ErrBlockNotFound, err)
	_, err = c.At(2)
	assert.Equal(t, ErrBlockNotFound, err)
}

func TestNext(t *testing.T) {
	c, first := New().Add()
	c, second := c.Add()

	next, ok := c.Next(first.ID)
	require.True(t, ok)
	assert.Equal(t, second.ID, next.ID)
	_, ok = c.Next(second.ID)
	assert.False(t, ok)
	_, ok = c.Next(NewBlockID())
	assert.False(t, ok)
}

func TestVerifyReportsStaleDownstream(t *testing.T) {
	c, first := New().Add()
	c = hashAll(t, c)
	c, second := c.Add()
	c = hashAll(t, c)

	// changing the first hash without propagating leaves the second one stale
	c, err := c.SetData(first.ID, "edited")
	require.NoError(t, err)
	h, _ := c.Header(first.ID)
	c, err = c.SetHash(first.ID, ComputeHash(h))
	require.NoError(t, err)

	faults := c.Verify(NewHasher(HashAlgorithmSha256, 0))
	require.Len(t, faults, 1)
	assert.Equal(t, second.ID, faults[0].ID)
	assert.Equal(t, FaultStaleHash, faults[0].Kind)
}

func TestMiningStateNames(t *testing.T) {
	for _, s := range []MiningState{StateUnmined, StateMining, StateMined, StateIncomplete} {
		parsed, err := ParseMiningState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseMiningState("done")
	assert.Error(t, err)
}
