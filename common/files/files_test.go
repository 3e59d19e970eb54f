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
package files

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixPrefixPath(t *testing.T) {
	assert.Equal(t, "nodedata/log", FixPrefixPath("nodedata", "log"))
	assert.Equal(t, "log", FixPrefixPath("", "log"))
	assert.Equal(t, "/var/log", FixPrefixPath("nodedata", "/var/log"))
}

func TestMkDirIfNotExists(t *testing.T) {
	root, err := ioutil.TempDir("", "files")
	require.NoError(t, err)
	defer os.RemoveAll(root)

	target := path.Join(root, "a", "b")
	assert.False(t, DirExists(target))
	require.NoError(t, MkDirIfNotExists(target))
	assert.True(t, DirExists(target))
	// second call is a no-op
	require.NoError(t, MkDirIfNotExists(target))

	f := path.Join(target, "config.toml")
	assert.False(t, FileExists(f))
	require.NoError(t, ioutil.WriteFile(f, []byte("x = 1"), 0644))
	assert.True(t, FileExists(f))
	assert.False(t, FileExists(target))
}
