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
// Package wserver pushes chain changes to websocket clients so they can re-render.
package wserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/annchain/blockdemo/common/goroutine"
	"github.com/annchain/blockdemo/ledger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	serverDefaultWSPath = "/ws"

	EventChain = "chain"
)

var defaultUpgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// ChainMessage is pushed to "chain" subscribers after every ledger change.
type ChainMessage struct {
	Type     string           `json:"type"`
	Revision uint64           `json:"revision"`
	BlockID  string           `json:"block,omitempty"`
	Rehashed []string         `json:"rehashed,omitempty"`
	Chain    ledger.ChainView `json:"chain"`
}

type Server struct {
	Addr   string
	WSPath string
	Ledger *ledger.Ledger

	subscriptions *subscriptions
	engine        *gin.Engine
	server        *http.Server
	events        <-chan ledger.Event
	unsubscribe   func()
	quit          chan struct{}
	stopOnce      sync.Once
}

func NewServer(addr string, l *ledger.Ledger) *Server {
	s := &Server{
		Addr:          addr,
		WSPath:        serverDefaultWSPath,
		Ledger:        l,
		subscriptions: newSubscriptions(),
		quit:          make(chan struct{}),
	}

	wh := &websocketHandler{
		upgrader:      defaultUpgrader,
		subscriptions: s.subscriptions,
		onSubscribe:   s.initialMessage,
	}

	engine := gin.New()
	engine.Use(gin.RecoveryWithWriter(logrus.StandardLogger().Out))
	engine.GET(s.WSPath, wh.Handle)
	s.engine = engine

	s.server = &http.Server{
		Addr:    s.Addr,
		Handler: engine,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) initialMessage(event string) []byte {
	if event != EventChain {
		return nil
	}
	bs, err := json.Marshal(ChainMessage{
		Type:     string(ledger.EventChainLoaded),
		Revision: s.Ledger.Revision(),
		Chain:    s.Ledger.View(),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal ws message")
		return nil
	}
	return bs
}

func (s *Server) Push(event string, message []byte) int {
	return push(s.subscriptions, event, message)
}

func (s *Server) Subscribers(event string) int {
	return s.subscriptions.Count(event)
}

func (s *Server) Serve() {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Error("websocket server")
	}
}

func (s *Server) Start() {
	s.events, s.unsubscribe = s.Ledger.Subscribe(64)
	goroutine.New(s.Serve)
	goroutine.New(s.WatchChain)
}

// Stop is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			logrus.WithError(err).Info("server Shutdown")
		}
		logrus.Info("websocket server exiting")
	})
}

func (s *Server) Name() string {
	return fmt.Sprintf("websocket Server at %s", s.Addr)
}

func (s *Server) WatchChain() {
	for {
		select {
		case event, ok := <-s.events:
			if !ok {
				return
			}
			s.publish(event)
		case <-s.quit:
			return
		}
	}
}

func (s *Server) publish(event ledger.Event) {
	msg := NewChainMessage(event, s.Ledger)
	bs, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal ws message")
		return
	}
	cnt := s.Push(EventChain, bs)
	logrus.WithField("type", event.Type).WithField("clients", cnt).Trace("push to ws")
}

func NewChainMessage(event ledger.Event, l *ledger.Ledger) ChainMessage {
	msg := ChainMessage{
		Type:     string(event.Type),
		Revision: event.Revision,
		BlockID:  event.BlockID.String(),
		Chain:    ledger.NewChainView(event.Chain, l.Difficulty),
	}
	for _, id := range event.Rehashed {
		msg.Rehashed = append(msg.Rehashed, id.String())
	}
	return msg
}
