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
	"io/ioutil"
	"os"
	"testing"

	"github.com/annchain/blockdemo/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDBStoreEmpty(t *testing.T) {
	store, err := NewMemLevelDBStore()
	require.NoError(t, err)
	defer store.Close()

	c, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestLevelDBStoreOnDisk(t *testing.T) {
	dir, err := ioutil.TempDir("", "chainstore")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := OpenLevelDBStore(dir)
	require.NoError(t, err)

	c, b := chain.New().Add()
	c, err = c.SetData(b.ID, "on disk")
	require.NoError(t, err)
	h, _ := c.Header(b.ID)
	c, err = c.SetHash(b.ID, chain.ComputeHash(h))
	require.NoError(t, err)
	require.NoError(t, store.Save(c))
	require.NoError(t, store.Close())

	reopened, err := OpenLevelDBStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	loaded, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, c.Blocks(), loaded.Blocks())
}
