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
package rpc

import (
	"net/http"
	"strconv"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/common/utilfuncs"
	"github.com/annchain/blockdemo/ledger"
	"github.com/annchain/blockdemo/miner"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RpcController struct {
	Ledger *ledger.Ledger
	// HashAlgorithm is only reported by status.
	HashAlgorithm chain.HashAlgorithm
}

func Response(c *gin.Context, status int, err error, data interface{}) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"err":  msg,
		"data": data,
	})
}

func statusOf(err error) int {
	switch err {
	case nil, miner.ErrAttemptsExhausted:
		return http.StatusOK
	case chain.ErrBlockNotFound:
		return http.StatusNotFound
	case chain.ErrNotLastBlock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// lookup resolves the :id path parameter. A number is taken as a 1-based index.
func (rpc *RpcController) lookup(c *gin.Context) (chain.Block, error) {
	param := c.Param("id")
	snapshot := rpc.Ledger.Snapshot()
	if index, err := strconv.Atoi(param); err == nil {
		return snapshot.At(index)
	}
	return snapshot.Block(chain.BlockID(param))
}

func (rpc *RpcController) blockView(b chain.Block) ledger.BlockView {
	return ledger.NewBlockView(rpc.Ledger.Snapshot(), b, rpc.Ledger.Difficulty)
}

type StatusResponse struct {
	Host          string      `json:"host"`
	Revision      uint64      `json:"revision"`
	Blocks        int         `json:"blocks"`
	Difficulty    int         `json:"difficulty"`
	HashAlgorithm string      `json:"hash_algorithm"`
	Miner         miner.Stats `json:"miner"`
}

func (rpc *RpcController) Status(c *gin.Context) {
	Response(c, http.StatusOK, nil, StatusResponse{
		Host:          utilfuncs.GetHostName(),
		Revision:      rpc.Ledger.Revision(),
		Blocks:        rpc.Ledger.Snapshot().Len(),
		Difficulty:    int(rpc.Ledger.Difficulty),
		HashAlgorithm: string(rpc.HashAlgorithm),
		Miner:         rpc.Ledger.Miner.Stats(),
	})
}

func (rpc *RpcController) Chain(c *gin.Context) {
	Response(c, http.StatusOK, nil, rpc.Ledger.View())
}

func (rpc *RpcController) Block(c *gin.Context) {
	b, err := rpc.lookup(c)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, rpc.blockView(b))
}

func (rpc *RpcController) AddBlock(c *gin.Context) {
	b, err := rpc.Ledger.Add()
	if err != nil {
		logrus.WithError(err).Error("add block")
		Response(c, statusOf(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, rpc.blockView(b))
}

// DeleteLast removes the last block; on an empty chain it succeeds without change.
func (rpc *RpcController) DeleteLast(c *gin.Context) {
	snapshot, err := rpc.Ledger.Delete()
	if err != nil {
		logrus.WithError(err).Error("delete block")
		Response(c, statusOf(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, ledger.NewChainView(snapshot, rpc.Ledger.Difficulty))
}

func (rpc *RpcController) DeleteBlock(c *gin.Context) {
	b, err := rpc.lookup(c)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	snapshot, err := rpc.Ledger.DeleteBlock(b.ID)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, ledger.NewChainView(snapshot, rpc.Ledger.Difficulty))
}

type SetDataRequest struct {
	Data *string `json:"data"`
}

func (rpc *RpcController) SetData(c *gin.Context) {
	var req SetDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, err, nil)
		return
	}
	if req.Data == nil {
		Response(c, http.StatusBadRequest, errMissingData, nil)
		return
	}
	b, err := rpc.lookup(c)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	b, err = rpc.Ledger.SetData(b.ID, *req.Data)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, rpc.blockView(b))
}

type MineResponse struct {
	Block    ledger.BlockView `json:"block"`
	Attempts uint64           `json:"attempts"`
}

// Mine answers 200 even when the attempt cap was hit; err then reads "mining incomplete".
func (rpc *RpcController) Mine(c *gin.Context) {
	b, err := rpc.lookup(c)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	b, result, err := rpc.Ledger.Mine(c.Request.Context(), b.ID)
	if err != nil && err != miner.ErrAttemptsExhausted {
		Response(c, statusOf(err), err, nil)
		return
	}
	Response(c, http.StatusOK, err, MineResponse{
		Block:    rpc.blockView(b),
		Attempts: result.Attempts,
	})
}

type FaultView struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func (rpc *RpcController) Verify(c *gin.Context) {
	faults := []FaultView{}
	for _, f := range rpc.Ledger.Verify() {
		faults = append(faults, FaultView{
			ID:       f.ID.String(),
			Index:    f.Index,
			Kind:     f.Kind.String(),
			Expected: f.Expected,
			Actual:   f.Actual,
		})
	}
	Response(c, http.StatusOK, nil, faults)
}
