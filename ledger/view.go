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

// BlockView is what a client renders for one block.
type BlockView struct {
	ID           string `json:"id" yaml:"id"`
	Index        int    `json:"index" yaml:"index"`
	Data         string `json:"data" yaml:"data"`
	PreviousHash string `json:"previousHash" yaml:"previous_hash"`
	Nonce        uint64 `json:"nonce" yaml:"nonce"`
	Hash         string `json:"hash" yaml:"hash"`
	State        string `json:"state" yaml:"state"`
	Valid        bool   `json:"valid" yaml:"valid"`
	Label        string `json:"label" yaml:"label"`
	// Deletable is only set on the last block.
	Deletable bool `json:"deletable" yaml:"deletable"`
}

type ChainView struct {
	Title  string      `json:"title" yaml:"title"`
	Total  int         `json:"total" yaml:"total"`
	Blocks []BlockView `json:"blocks" yaml:"blocks"`
}

func NewBlockView(c *chain.Chain, b chain.Block, difficulty chain.Difficulty) BlockView {
	return BlockView{
		ID:           b.ID.String(),
		Index:        b.Index,
		Data:         b.Data,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
		Hash:         b.Hash,
		State:        b.State.String(),
		Valid:        difficulty.IsValid(b.Hash),
		Label:        difficulty.Label(b.Hash),
		Deletable:    c.IsLast(b.ID),
	}
}

func NewChainView(c *chain.Chain, difficulty chain.Difficulty) ChainView {
	view := ChainView{
		Title:  c.Title(),
		Total:  c.Len(),
		Blocks: []BlockView{},
	}
	for _, b := range c.Blocks() {
		view.Blocks = append(view.Blocks, NewBlockView(c, b, difficulty))
	}
	return view
}
