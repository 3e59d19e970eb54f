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
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// RegisterMessage is what a client sends after connecting to pick an event stream.
type RegisterMessage struct {
	Event string `json:"event"`
}

type websocketHandler struct {
	upgrader      *websocket.Upgrader
	subscriptions *subscriptions
	// onSubscribe builds the first message a new subscriber receives, if any.
	onSubscribe func(event string) []byte
}

func (wh *websocketHandler) Handle(ctx *gin.Context) {
	wh.ServeHTTP(ctx.Writer, ctx.Request)
}

// ServeHTTP upgrades the request and keeps the connection until either side closes it.
func (wh *websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := wh.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}

	conn := NewConn(wsConn)
	conn.AfterReadFunc = func(messageType int, r io.Reader) {
		var rm RegisterMessage
		if err := json.NewDecoder(r).Decode(&rm); err != nil {
			logrus.WithError(err).Debug("Failed to serve request")
			return
		}
		if rm.Event == "" {
			return
		}
		wh.subscriptions.Add(rm.Event, conn)
		logrus.WithField("conn", conn.GetID()).WithField("event", rm.Event).Debug("websocket subscribed")
		if wh.onSubscribe != nil {
			if first := wh.onSubscribe(rm.Event); first != nil {
				if _, err := conn.Write(first); err != nil {
					logrus.WithError(err).Debug("write initial message")
				}
			}
		}
	}
	conn.BeforeCloseFunc = func() {
		wh.subscriptions.RemoveAll(conn)
	}
	conn.Listen()
}

// push writes message to every conn subscribed to event and drops conns that fail.
func push(subs *subscriptions, event string, message []byte) int {
	cnt := 0
	for _, conn := range subs.Get(event) {
		if _, err := conn.Write(message); err != nil {
			logrus.WithError(err).WithField("conn", conn.GetID()).Debug("dropping websocket conn")
			_ = conn.Close()
			continue
		}
		cnt++
	}
	return cnt
}
