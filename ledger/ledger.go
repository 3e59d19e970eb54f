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
// Package ledger owns the chain of one session: it serialises user operations,
// keeps hashes consistent, persists snapshots and tells views to re-render.
package ledger

import (
	"context"
	"sync"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/miner"
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const defaultSubscriberBuffer = 16

type Ledger struct {
	Hasher     *chain.Hasher
	Difficulty chain.Difficulty
	Miner      *miner.PoWMiner
	// Store is optional. Without it the chain lives in memory only.
	Store SnapshotStore

	mu       sync.Mutex
	current  *chain.Chain
	revision *atomic.Uint64

	subMu       sync.RWMutex
	subscribers map[int]chan Event
	nextSubID   int
}

// InitDefault only sets up data structures; call Load to restore a stored chain.
func (l *Ledger) InitDefault() {
	if l.Hasher == nil {
		l.Hasher = chain.NewHasher(chain.HashAlgorithmSha256, 0)
	}
	if l.Miner == nil {
		l.Miner = &miner.PoWMiner{
			Hasher:     l.Hasher,
			Difficulty: l.Difficulty,
		}
		l.Miner.InitDefault()
	}
	l.current = chain.New()
	l.revision = atomic.NewUint64(0)
	l.subscribers = make(map[int]chan Event)
}

// Load replaces the current chain with the stored one, if any.
func (l *Ledger) Load() error {
	if l.Store == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.Store.Load()
	if err != nil {
		return err
	}
	if c == nil {
		logrus.Info("no stored chain, starting empty")
		return nil
	}
	// a crash while mining leaves blocks marked as mining
	for _, b := range c.Blocks() {
		if b.State == chain.StateMining {
			c, _ = c.SetState(b.ID, chain.StateUnmined)
		}
	}
	if faults := c.Verify(l.Hasher); len(faults) != 0 {
		logrus.WithField("faults", len(faults)).Warn("stored chain is inconsistent, rehashing")
		c, _ = l.rehashFrom(c, 0)
	}
	// the difficulty may have been raised since the chain was stored
	for _, b := range c.Blocks() {
		if b.State == chain.StateMined && !l.Miner.IsHashValid(b.Header(), b.Hash) {
			c, _ = c.SetState(b.ID, chain.StateUnmined)
		}
	}
	l.current = c
	l.publish(Event{Type: EventChainLoaded, Revision: l.revision.Inc(), Chain: c})
	logrus.WithField("blocks", c.Len()).Info("chain loaded")
	return nil
}

func (l *Ledger) Snapshot() *chain.Chain {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Ledger) Revision() uint64 {
	return l.revision.Load()
}

func (l *Ledger) View() ChainView {
	return NewChainView(l.Snapshot(), l.Difficulty)
}

func (l *Ledger) Verify() []chain.Fault {
	return l.Snapshot().Verify(l.Hasher)
}

// commit persists c and makes it current. Must be called with mu held.
func (l *Ledger) commit(c *chain.Chain, event Event) error {
	if l.Store != nil {
		if err := l.Store.Save(c); err != nil {
			return errors.Wrapf(err, "persist chain after %s", event.Type)
		}
	}
	l.current = c
	event.Chain = c
	event.Revision = l.revision.Inc()
	l.publish(event)
	return nil
}

// rehashFrom recomputes hashes from position pos downstream. A block whose
// hash changes loses its mined status and dirties the block after it.
func (l *Ledger) rehashFrom(c *chain.Chain, pos int) (*chain.Chain, []chain.BlockID) {
	blocks := c.Blocks()
	if pos >= len(blocks) {
		return c, nil
	}
	dirty := mapset.NewThreadUnsafeSet()
	changed := mapset.NewThreadUnsafeSet()
	dirty.Add(blocks[pos].ID)

	for i := pos; i < len(blocks); i++ {
		id := blocks[i].ID
		if !dirty.Contains(id) {
			break
		}
		b, _ := c.Block(id)
		hash := l.Hasher.ComputeHash(b.Header())
		if hash == b.Hash {
			continue
		}
		c, _ = c.SetHash(id, hash)
		if b.Hash != "" && b.State != chain.StateMining {
			c, _ = c.SetState(id, chain.StateUnmined)
		}
		changed.Add(id)
		if next, ok := c.Next(id); ok {
			dirty.Add(next.ID)
		}
	}

	var rehashed []chain.BlockID
	for _, b := range blocks {
		if changed.Contains(b.ID) {
			rehashed = append(rehashed, b.ID)
		}
	}
	return c, rehashed
}

func (l *Ledger) positionOf(c *chain.Chain, id chain.BlockID) int {
	b, err := c.Block(id)
	if err != nil {
		return -1
	}
	return b.Index - 1
}

// Add appends a block and records its initial hash.
func (l *Ledger) Add() (chain.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, b := l.current.Add()
	c, rehashed := l.rehashFrom(c, c.Len()-1)
	if err := l.commit(c, Event{Type: EventBlockAdded, BlockID: b.ID, Rehashed: rehashed}); err != nil {
		return chain.Block{}, err
	}
	b, _ = c.Block(b.ID)
	logrus.WithField("block", b.String()).Info("block added")
	return b, nil
}

// Delete removes the last block. Deleting from an empty chain does nothing.
func (l *Ledger) Delete() (*chain.Chain, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.current.Last()
	if !ok {
		return l.current, nil
	}
	c := l.current.Delete()
	if err := l.commit(c, Event{Type: EventBlockDeleted, BlockID: last.ID}); err != nil {
		return l.current, err
	}
	logrus.WithField("index", last.Index).Info("block deleted")
	return c, nil
}

// DeleteBlock deletes id if and only if it is the last block.
func (l *Ledger) DeleteBlock(id chain.BlockID) (*chain.Chain, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.current.DeleteBlock(id)
	if err != nil {
		return l.current, err
	}
	if err := l.commit(c, Event{Type: EventBlockDeleted, BlockID: id}); err != nil {
		return l.current, err
	}
	return c, nil
}

// SetData edits a block's payload, recomputes its hash and propagates it downstream.
func (l *Ledger) SetData(id chain.BlockID, data string) (chain.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.current.SetData(id, data)
	if err != nil {
		return chain.Block{}, err
	}
	c, rehashed := l.rehashFrom(c, l.positionOf(c, id))
	if err := l.commit(c, Event{Type: EventDataChanged, BlockID: id, Rehashed: rehashed}); err != nil {
		return chain.Block{}, err
	}
	b, _ := c.Block(id)
	logrus.WithFields(logrus.Fields{
		"index":    b.Index,
		"rehashed": len(rehashed),
	}).Debug("block data changed")
	return b, nil
}

// Mine runs the bounded nonce search for id and records the outcome.
// When the attempt cap is hit the block is marked incomplete and the next
// Mine resumes after the last nonce tried; the returned error is
// miner.ErrAttemptsExhausted.
func (l *Ledger) Mine(ctx context.Context, id chain.BlockID) (chain.Block, miner.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.current.Block(id)
	if err != nil {
		return chain.Block{}, miner.Result{}, err
	}
	var start uint64
	if b.State == chain.StateIncomplete {
		start = b.Nonce + 1
	}

	mining, _ := l.current.SetState(id, chain.StateMining)
	l.current = mining
	l.publish(Event{Type: EventMiningStarted, Revision: l.revision.Inc(), BlockID: id, Chain: mining})

	result, mineErr := l.Miner.MineFrom(ctx, b.Header(), start)

	var c *chain.Chain
	event := Event{BlockID: id}
	switch mineErr {
	case nil:
		c, _ = mining.SetNonce(id, result.Nonce)
		c, _ = c.SetHash(id, result.Hash)
		c, _ = c.SetState(id, chain.StateMined)
		event.Type = EventBlockMined
	case miner.ErrAttemptsExhausted:
		c, _ = mining.SetNonce(id, result.Nonce)
		c, _ = c.SetHash(id, result.Hash)
		c, _ = c.SetState(id, chain.StateIncomplete)
		event.Type = EventMiningIncomplete
	default:
		// cancelled: leave the block as it was
		c, _ = mining.SetState(id, b.State)
		l.current = c
		l.publish(Event{Type: EventMiningCancelled, Revision: l.revision.Inc(), BlockID: id, Chain: c})
		return b, result, mineErr
	}

	pos := l.positionOf(c, id)
	var rehashed []chain.BlockID
	if b.Hash != result.Hash {
		rehashed = append(rehashed, id)
	}
	c, downstream := l.rehashFrom(c, pos+1)
	event.Rehashed = append(rehashed, downstream...)

	if err := l.commit(c, event); err != nil {
		// roll back the transient mining state
		l.current, _ = l.current.SetState(id, b.State)
		return chain.Block{}, result, err
	}
	b, _ = c.Block(id)
	logrus.WithFields(logrus.Fields{
		"index":    b.Index,
		"nonce":    b.Nonce,
		"attempts": result.Attempts,
		"state":    b.State,
	}).Info("mining finished")
	return b, result, mineErr
}

// Subscribe registers for change events. Slow subscribers lose events rather
// than block the ledger. Call the returned func to unsubscribe.
func (l *Ledger) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)
	l.subMu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = ch
	l.subMu.Unlock()

	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if _, ok := l.subscribers[id]; ok {
			delete(l.subscribers, id)
			close(ch)
		}
	}
}

func (l *Ledger) publish(event Event) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for id, ch := range l.subscribers {
		select {
		case ch <- event:
		default:
			logrus.WithField("subscriber", id).WithField("type", event.Type).Warn("subscriber lagging, event dropped")
		}
	}
}

func (l *Ledger) Start() {
	logrus.WithField("blocks", l.Snapshot().Len()).Info("ledger started")
}

func (l *Ledger) Stop() {
	l.subMu.Lock()
	for id, ch := range l.subscribers {
		delete(l.subscribers, id)
		close(ch)
	}
	l.subMu.Unlock()
	if l.Store != nil {
		if err := l.Store.Close(); err != nil {
			logrus.WithError(err).Error("failed to close chain store")
		}
	}
}

func (l *Ledger) Name() string {
	return "ledger"
}

func (l *Ledger) GetBenchmarks() map[string]interface{} {
	l.subMu.RLock()
	subscribers := len(l.subscribers)
	l.subMu.RUnlock()
	return map[string]interface{}{
		"blocks":      l.Snapshot().Len(),
		"revision":    l.Revision(),
		"subscribers": subscribers,
		"hash_cache":  l.Hasher.CacheLen(),
	}
}
