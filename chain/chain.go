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

import "fmt"

// Chain is an immutable snapshot of the ordered blocks of one session.
// Every update returns a new snapshot and leaves the receiver untouched,
// so a snapshot may be shared with readers freely.
type Chain struct {
	records []record
	hashes  map[BlockID]string
}

func New() *Chain {
	return &Chain{
		hashes: make(map[BlockID]string),
	}
}

func (c *Chain) clone() *Chain {
	n := &Chain{
		records: make([]record, len(c.records), len(c.records)+1),
		hashes:  make(map[BlockID]string, len(c.hashes)),
	}
	copy(n.records, c.records)
	for k, v := range c.hashes {
		n.hashes[k] = v
	}
	return n
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Title is the chain caption, e.g. "Total Blocks: 2".
func (c *Chain) Title() string {
	return fmt.Sprintf("Total Blocks: %d", c.Len())
}

func (c *Chain) position(id BlockID) int {
	for i := range c.records {
		if c.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Chain) previousHashAt(pos int) string {
	if pos == 0 {
		return GenesisPreviousHash
	}
	return c.hashes[c.records[pos-1].ID]
}

func (c *Chain) blockAt(pos int) Block {
	r := c.records[pos]
	return Block{
		ID:           r.ID,
		Index:        r.Index,
		Data:         r.Data,
		PreviousHash: c.previousHashAt(pos),
		Nonce:        r.Nonce,
		Hash:         c.hashes[r.ID],
		State:        r.State,
	}
}

func (c *Chain) Blocks() []Block {
	blocks := make([]Block, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		blocks = append(blocks, c.blockAt(i))
	}
	return blocks
}

func (c *Chain) Block(id BlockID) (Block, error) {
	pos := c.position(id)
	if pos < 0 {
		return Block{}, ErrBlockNotFound
	}
	return c.blockAt(pos), nil
}

// At returns the block with the 1-based index.
func (c *Chain) At(index int) (Block, error) {
	if index < 1 || index > c.Len() {
		return Block{}, ErrBlockNotFound
	}
	return c.blockAt(index - 1), nil
}

func (c *Chain) Last() (Block, bool) {
	if c.Len() == 0 {
		return Block{}, false
	}
	return c.blockAt(c.Len() - 1), true
}

func (c *Chain) IsLast(id BlockID) bool {
	return c.Len() > 0 && c.records[c.Len()-1].ID == id
}

// Next returns the block following id, if any.
func (c *Chain) Next(id BlockID) (Block, bool) {
	pos := c.position(id)
	if pos < 0 || pos+1 >= c.Len() {
		return Block{}, false
	}
	return c.blockAt(pos + 1), true
}

func (c *Chain) Hash(id BlockID) string {
	return c.hashes[id]
}

func (c *Chain) PreviousHash(id BlockID) (string, error) {
	pos := c.position(id)
	if pos < 0 {
		return "", ErrBlockNotFound
	}
	return c.previousHashAt(pos), nil
}

func (c *Chain) Header(id BlockID) (Header, error) {
	b, err := c.Block(id)
	if err != nil {
		return Header{}, err
	}
	return b.Header(), nil
}

// Add appends a fresh block with the next sequential index. Its hash is unset
// until the owner records one with SetHash.
func (c *Chain) Add() (*Chain, Block) {
	n := c.clone()
	n.records = append(n.records, record{
		ID:    NewBlockID(),
		Index: c.Len() + 1,
		State: StateUnmined,
	})
	return n, n.blockAt(n.Len() - 1)
}

// Delete drops the last block. On an empty chain it returns the receiver.
func (c *Chain) Delete() *Chain {
	if c.Len() == 0 {
		return c
	}
	n := c.clone()
	last := n.records[n.Len()-1]
	n.records = n.records[:n.Len()-1]
	delete(n.hashes, last.ID)
	return n
}

// DeleteBlock deletes id, which must be the last block.
func (c *Chain) DeleteBlock(id BlockID) (*Chain, error) {
	if c.position(id) < 0 {
		return c, ErrBlockNotFound
	}
	if !c.IsLast(id) {
		return c, ErrNotLastBlock
	}
	return c.Delete(), nil
}

func (c *Chain) update(id BlockID, f func(r *record)) (*Chain, error) {
	pos := c.position(id)
	if pos < 0 {
		return c, ErrBlockNotFound
	}
	n := c.clone()
	f(&n.records[pos])
	return n, nil
}

// SetHash records hash for id. Neighbours are not touched.
func (c *Chain) SetHash(id BlockID, hash string) (*Chain, error) {
	if c.position(id) < 0 {
		return c, ErrBlockNotFound
	}
	n := c.clone()
	n.hashes[id] = hash
	return n, nil
}

// SetData replaces the payload and drops any mined status.
func (c *Chain) SetData(id BlockID, data string) (*Chain, error) {
	return c.update(id, func(r *record) {
		r.Data = data
		r.State = StateUnmined
	})
}

func (c *Chain) SetNonce(id BlockID, nonce uint64) (*Chain, error) {
	return c.update(id, func(r *record) {
		r.Nonce = nonce
	})
}

func (c *Chain) SetState(id BlockID, state MiningState) (*Chain, error) {
	return c.update(id, func(r *record) {
		r.State = state
	})
}
