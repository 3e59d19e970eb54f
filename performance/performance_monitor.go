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
package performance

import (
	"runtime"
	"sync"
	"time"

	"github.com/annchain/blockdemo/common/goroutine"
	"github.com/sirupsen/logrus"
)

const DefaultInterval = time.Second * 30

type PerformanceReporter interface {
	Name() string
	GetBenchmarks() map[string]interface{}
}

// PerformanceMonitor logs the benchmarks of every registered reporter periodically.
type PerformanceMonitor struct {
	Interval time.Duration
	// Logger defaults to the standard logger.
	Logger *logrus.Logger

	mu        sync.Mutex
	reporters []PerformanceReporter
	quit      chan struct{}
	stopOnce  *sync.Once
}

func (p *PerformanceMonitor) Register(holder PerformanceReporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporters = append(p.reporters, holder)
}

// Start launches one reporting loop. Each Start must be paired with a Stop.
func (p *PerformanceMonitor) Start() {
	p.mu.Lock()
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.Logger == nil {
		p.Logger = logrus.StandardLogger()
	}
	interval, logger := p.Interval, p.Logger
	quit := make(chan struct{})
	p.quit = quit
	p.stopOnce = &sync.Once{}
	p.mu.Unlock()

	goroutine.New(func() {
		p.loop(interval, logger, quit)
	})
}

// loop only sees its own quit channel so a later Start cannot strand it.
func (p *PerformanceMonitor) loop(interval time.Duration, logger *logrus.Logger, quit <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			logger.WithFields(logrus.Fields(p.CollectData())).Info("Performance")
		}
	}
}

// Stop ends the loop of the latest Start. Extra calls do nothing.
func (p *PerformanceMonitor) Stop() {
	p.mu.Lock()
	quit, once := p.quit, p.stopOnce
	p.mu.Unlock()
	if once == nil {
		return
	}
	once.Do(func() {
		close(quit)
	})
}

func (*PerformanceMonitor) Name() string {
	return "PerformanceMonitor"
}

func (p *PerformanceMonitor) CollectData() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	data := make(map[string]interface{})
	for _, ch := range p.reporters {
		data[ch.Name()] = ch.GetBenchmarks()
	}
	// add additional fields
	data["goroutines"] = runtime.NumGoroutine()
	data["tracked_goroutines"] = goroutine.GetGoRoutineNum()

	return data
}
