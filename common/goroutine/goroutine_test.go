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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTracksRunningGoroutines(t *testing.T) {
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	New(func() {
		defer wg.Done()
		<-release
	})
	assert.Eventually(t, func() bool { return GetGoRoutineNum() >= 1 }, time.Second, time.Millisecond*10)
	close(release)
	wg.Wait()
	assert.Eventually(t, func() bool { return GetGoRoutineNum() == 0 }, time.Second, time.Millisecond*10)
}

func TestStackReport(t *testing.T) {
	report := string(stackReport("boom"))
	assert.Contains(t, report, "Panic: boom")
	assert.Contains(t, report, "goroutine")
}
