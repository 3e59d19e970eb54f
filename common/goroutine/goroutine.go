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
package goroutine

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var running = atomic.NewInt32(0)

// GetGoRoutineNum counts goroutines started by New that have not returned yet.
func GetGoRoutineNum() int32 {
	return running.Load()
}

// New runs function in a tracked goroutine. A panic is dumped to disk and re-raised.
func New(function func()) {
	running.Inc()
	go func() {
		defer running.Dec()
		defer DumpStack(true)
		function()
	}()
}

// WithRecover runs handler untracked and swallows its panic after dumping it.
func WithRecover(handler func()) {
	go func() {
		defer DumpStack(false)
		handler()
	}()
}

// DumpStack must be deferred directly. It recovers a panic, writes the stack to
// dump_<time> in the working directory and logs it.
func DumpStack(exitIfPanic bool) {
	r := recover()
	if r == nil {
		return
	}
	report := stackReport(r)
	dumpName := "dump_" + time.Now().Format("20060102-150405")
	if err := ioutil.WriteFile(dumpName, report, 0644); err != nil {
		logrus.WithError(err).Warn("failed to write dump file")
	}
	logrus.WithField("obj", r).WithField("stack", string(report)).Error("goroutine panicked")
	if exitIfPanic {
		panic(r)
	}
}

func stackReport(r interface{}) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Panic: %v\n", r)
	buf.Write(debug.Stack())
	return buf.Bytes()
}
