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

// Package chain holds the block model and the immutable chain store of a demo
// block chain.
package chain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenesisPreviousHash is what the first block links to.
var GenesisPreviousHash = strings.Repeat("0", 64)

type BlockID string

func NewBlockID() BlockID {
	return BlockID(uuid.New().String())
}

func (id BlockID) String() string {
	return string(id)
}

type MiningState int

const (
	StateUnmined MiningState = iota
	StateMining
	StateMined
	// StateIncomplete means mining gave up after the attempt cap. The block is still unmined.
	StateIncomplete
)

var miningStateNames = map[MiningState]string{
	StateUnmined:    "unmined",
	StateMining:     "mining",
	StateMined:      "mined",
	StateIncomplete: "incomplete",
}

func (s MiningState) String() string {
	if name, ok := miningStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MiningState(%d)", int(s))
}

func ParseMiningState(s string) (MiningState, error) {
	for k, v := range miningStateNames {
		if v == s {
			return k, nil
		}
	}
	return StateUnmined, fmt.Errorf("unknown mining state: %s", s)
}

// Header is everything a block hash is computed from.
type Header struct {
	Index        int
	Data         string
	PreviousHash string
	Nonce        uint64
}

// record is the stored part of a block. PreviousHash and Hash are derived from the chain.
type record struct {
	ID    BlockID
	Index int
	Data  string
	Nonce uint64
	State MiningState
}

// Block is a read-only view of one block inside a snapshot.
type Block struct {
	ID           BlockID
	Index        int
	Data         string
	PreviousHash string
	Nonce        uint64
	Hash         string
	State        MiningState
}

func (b Block) Header() Header {
	return Header{
		Index:        b.Index,
		Data:         b.Data,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
	}
}

func (b Block) String() string {
	return fmt.Sprintf("#%d %s nonce=%d hash=%s state=%s", b.Index, b.ID, b.Nonce, b.Hash, b.State)
}
