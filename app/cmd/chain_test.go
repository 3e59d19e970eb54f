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
package cmd

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func runChain(t *testing.T, root string, args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOutput(&buf)
	rootCmd.SetArgs(append([]string{"chain", "--root", root, "--log-stdout=false"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestChainCommands(t *testing.T) {
	root, err := ioutil.TempDir("", "blockdemo-cli")
	require.NoError(t, err)
	defer os.RemoveAll(root)

	out, err := runChain(t, root, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Blocks: 0")

	_, err = runChain(t, root, "add")
	require.NoError(t, err)
	out, err = runChain(t, root, "add")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Blocks: 2")
	assert.Contains(t, out, "#1 [Not Valid]")
	assert.Contains(t, out, "prev: "+chain.GenesisPreviousHash)

	out, err = runChain(t, root, "mine", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "mined block #1")
	assert.Contains(t, out, "#1 [Valid] state=mined nonce=48859")

	out, err = runChain(t, root, "export", "--format", "json")
	require.NoError(t, err)
	var view ledger.ChainView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Blocks, 2)
	assert.Equal(t, "Total Blocks: 2", view.Title)
	assert.True(t, view.Blocks[0].Valid)
	assert.Equal(t, view.Blocks[0].Hash, view.Blocks[1].PreviousHash)
	assert.False(t, view.Blocks[0].Deletable)
	assert.True(t, view.Blocks[1].Deletable)

	out, err = runChain(t, root, "export", "--format", "yaml")
	require.NoError(t, err)
	var fromYaml ledger.ChainView
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYaml))
	assert.Equal(t, view, fromYaml)

	out, err = runChain(t, root, "data", "1", "Hello World")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 [Not Valid] state=unmined")

	out, err = runChain(t, root, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "chain is consistent")

	_, err = runChain(t, root, "mine", "3")
	assert.Equal(t, chain.ErrBlockNotFound, err)

	_, err = runChain(t, root, "delete")
	require.NoError(t, err)
	_, err = runChain(t, root, "delete")
	require.NoError(t, err)
	out, err = runChain(t, root, "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Blocks: 0")
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := exportChain(ledger.ChainView{}, "xml")
	assert.Error(t, err)
}
