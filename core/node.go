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
package core

import (
	"fmt"
	"path"
	"time"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/common/mylog"
	"github.com/annchain/blockdemo/ledger"
	"github.com/annchain/blockdemo/miner"
	"github.com/annchain/blockdemo/performance"
	"github.com/annchain/blockdemo/rpc"
	"github.com/annchain/blockdemo/wserver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type NodeConfig struct {
	DataDir       string
	Persist       bool
	Difficulty    chain.Difficulty
	MaxAttempts   uint64
	HashAlgorithm chain.HashAlgorithm
	HashCacheSize int
	RpcEnabled    bool
	RpcPort       int
	WsEnabled     bool
	WsPort        int

	PerformanceEnabled  bool
	PerformanceInterval time.Duration
	// ModuleLogDir, when set, gives the performance monitor its own log file there.
	ModuleLogDir string
}

// NodeConfigFromViper reads the node settings from the merged viper config.
func NodeConfigFromViper(dataDir string) (NodeConfig, error) {
	algorithm, err := chain.ParseHashAlgorithm(viper.GetString("chain.hash_algorithm"))
	if err != nil {
		return NodeConfig{}, err
	}
	difficulty := viper.GetInt("chain.difficulty")
	if difficulty < 0 || difficulty > 64 {
		return NodeConfig{}, fmt.Errorf("chain.difficulty must be within [0, 64], got %d", difficulty)
	}
	maxAttempts := viper.GetInt64("chain.max_attempts")
	if maxAttempts < 0 {
		return NodeConfig{}, fmt.Errorf("chain.max_attempts must not be negative, got %d", maxAttempts)
	}
	return NodeConfig{
		DataDir:       dataDir,
		Persist:       viper.GetBool("chain.persist"),
		Difficulty:    chain.Difficulty(difficulty),
		MaxAttempts:   uint64(maxAttempts),
		HashAlgorithm: algorithm,
		HashCacheSize: viper.GetInt("chain.hash_cache_size"),
		RpcEnabled:    viper.GetBool("rpc.enabled"),
		RpcPort:       viper.GetInt("rpc.port"),
		WsEnabled:     viper.GetBool("websocket.enabled"),
		WsPort:        viper.GetInt("websocket.port"),

		PerformanceEnabled:  viper.GetBool("performance.enabled"),
		PerformanceInterval: time.Second * time.Duration(viper.GetInt("performance.interval_seconds")),
	}, nil
}

// NewLedger builds a loaded ledger. With Persist set the chain lives in {DataDir}/chain.
func NewLedger(config NodeConfig) (*ledger.Ledger, error) {
	hasher := chain.NewHasher(config.HashAlgorithm, config.HashCacheSize)
	m := &miner.PoWMiner{
		Hasher:      hasher,
		Difficulty:  config.Difficulty,
		MaxAttempts: config.MaxAttempts,
	}
	m.InitDefault()

	l := &ledger.Ledger{
		Hasher:     hasher,
		Difficulty: config.Difficulty,
		Miner:      m,
	}
	if config.Persist {
		store, err := ledger.OpenLevelDBStore(path.Join(config.DataDir, "chain"))
		if err != nil {
			return nil, err
		}
		l.Store = store
	}
	l.InitDefault()
	if err := l.Load(); err != nil {
		if l.Store != nil {
			_ = l.Store.Close()
		}
		return nil, err
	}
	return l, nil
}

// Node is the basic entrypoint for all modules to start.
type Node struct {
	Config NodeConfig
	Ledger *ledger.Ledger

	components []Component
}

// InitDefault only set necessary data structures.
// to Init a node with components, use Setup
func (n *Node) InitDefault() {
	n.components = []Component{}
}

func (n *Node) Setup() error {
	l, err := NewLedger(n.Config)
	if err != nil {
		return err
	}
	n.Ledger = l
	n.components = append(n.components, l)

	if n.Config.RpcEnabled {
		srv := &rpc.RpcServer{
			Controller: &rpc.RpcController{
				Ledger:        l,
				HashAlgorithm: n.Config.HashAlgorithm,
			},
			Port: n.Config.RpcPort,
		}
		srv.InitDefault()
		n.components = append(n.components, srv)
	}
	if n.Config.WsEnabled {
		n.components = append(n.components, wserver.NewServer(fmt.Sprintf(":%d", n.Config.WsPort), l))
	}
	if n.Config.PerformanceEnabled {
		monitor := &performance.PerformanceMonitor{
			Interval: n.Config.PerformanceInterval,
			Logger:   mylog.InitLogger(logrus.StandardLogger(), n.Config.ModuleLogDir, "performance"),
		}
		monitor.Register(l)
		monitor.Register(l.Miner)
		n.components = append(n.components, monitor)
	}
	return nil
}

func (n *Node) Components() []Component {
	return n.components
}

func (n *Node) Start() {
	for _, component := range n.components {
		logrus.Infof("Starting %s", component.Name())
		component.Start()
		logrus.Infof("Started: %s", component.Name())
	}
	logrus.Info("Node Started")
}

// Stop tears components down in reverse start order.
func (n *Node) Stop() {
	for i := len(n.components) - 1; i >= 0; i-- {
		comp := n.components[i]
		logrus.Infof("Stopping %s", comp.Name())
		comp.Stop()
		logrus.Infof("Stopped: %s", comp.Name())
	}
	logrus.Info("Node Stopped")
}
