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
package mylog

import (
	"bytes"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
}

func TestInitLoggerWithoutDirKeepsOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := logrus.New()
	parent.Out = buf
	parent.Level = logrus.DebugLevel

	logger := InitLogger(parent, "", "ledger")
	logger.Debug("hello ledger")
	assert.Contains(t, buf.String(), "hello ledger")
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "mylog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	parent := logrus.New()
	parent.Out = ioutil.Discard
	logger := InitLogger(parent, dir, "ledger")
	logger.Info("to file")

	_, err = os.Stat(dir + "/ledger.log")
	assert.NoError(t, err)
}

func TestLogPathCreatesDir(t *testing.T) {
	dir, err := ioutil.TempDir("", "mylog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	p := LogPath(dir+"/nested", "run")
	assert.True(t, strings.HasSuffix(p, "/nested/run"))
	info, err := os.Stat(dir + "/nested")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
