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

import "github.com/annchain/blockdemo/chain"

type EventType string

const (
	EventChainLoaded      EventType = "chain_loaded"
	EventBlockAdded       EventType = "block_added"
	EventBlockDeleted     EventType = "block_deleted"
	EventDataChanged      EventType = "data_changed"
	EventMiningStarted    EventType = "mining_started"
	EventBlockMined       EventType = "block_mined"
	EventMiningIncomplete EventType = "mining_incomplete"
	EventMiningCancelled  EventType = "mining_cancelled"
)

// Event tells views that the chain changed and must be re-rendered.
type Event struct {
	Type     EventType
	Revision uint64
	BlockID  chain.BlockID
	// Rehashed lists blocks whose hash changed, in chain order.
	Rehashed []chain.BlockID
	Chain    *chain.Chain
}
