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
package wserver

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var errConnClosed = errors.New("conn is closed, can't be written")

const writeWait = 5 * time.Second

// Conn wraps websocket.Conn. Writes are serialised; reads are handed to AfterReadFunc.
type Conn struct {
	Conn *websocket.Conn

	AfterReadFunc   func(messageType int, r io.Reader)
	BeforeCloseFunc func()

	id      string
	writeMu sync.Mutex
	once    sync.Once
	stopCh  chan struct{}
}

func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{
		Conn:   conn,
		id:     uuid.New().String(),
		stopCh: make(chan struct{}),
	}
}

func (c *Conn) GetID() string {
	return c.id
}

// Write sends p as one text message.
func (c *Conn) Write(p []byte) (n int, err error) {
	select {
	case <-c.stopCh:
		return 0, errConnClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err = c.Conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Listen blocks reading from the connection until it is closed.
func (c *Conn) Listen() {
	c.Conn.SetCloseHandler(func(code int, text string) error {
		message := websocket.FormatCloseMessage(code, "")
		_ = c.Conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		return nil
	})
	defer c.Close()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		messageType, r, err := c.Conn.NextReader()
		if err != nil {
			logrus.WithError(err).WithField("conn", c.id).Debug("websocket read ended")
			return
		}
		if c.AfterReadFunc != nil {
			c.AfterReadFunc(messageType, r)
		}
	}
}

func (c *Conn) Close() error {
	closed := false
	c.once.Do(func() {
		if c.BeforeCloseFunc != nil {
			c.BeforeCloseFunc()
		}
		close(c.stopCh)
		closed = true
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
	if !closed {
		return errors.New("conn already been closed")
	}
	return nil
}

// subscriptions maps event type -> conn id -> conn.
type subscriptions struct {
	conns map[string]map[string]*Conn
	mu    sync.RWMutex
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		conns: make(map[string]map[string]*Conn),
	}
}

func (s *subscriptions) Add(eventType string, conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns, ok := s.conns[eventType]
	if !ok {
		conns = make(map[string]*Conn)
		s.conns[eventType] = conns
	}
	conns[conn.GetID()] = conn
}

func (s *subscriptions) Remove(eventType string, conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conns, ok := s.conns[eventType]; ok {
		delete(conns, conn.GetID())
	}
}

// RemoveAll drops conn from every event type.
func (s *subscriptions) RemoveAll(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conns := range s.conns {
		delete(conns, conn.GetID())
	}
}

func (s *subscriptions) Get(eventType string) []*Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ret []*Conn
	for _, c := range s.conns[eventType] {
		ret = append(ret, c)
	}
	return ret
}

func (s *subscriptions) Count(eventType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns[eventType])
}
