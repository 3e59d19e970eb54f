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
package rpc

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var errMissingData = errors.New("field data is required")

func (rpc *RpcController) NewRouter() *gin.Engine {
	router := gin.New()
	if logrus.GetLevel() >= logrus.TraceLevel {
		logger := gin.LoggerWithConfig(gin.LoggerConfig{
			Formatter: ginLogFormatter,
			Output:    logrus.StandardLogger().Out,
			SkipPaths: []string{"/"},
		})
		router.Use(logger)
	}
	router.Use(gin.RecoveryWithWriter(logrus.StandardLogger().Out))
	return rpc.addRouter(router)
}

func (rpc *RpcController) addRouter(router *gin.Engine) *gin.Engine {
	router.GET("/", rpc.writeListOfEndpoints)
	router.GET("/status", rpc.Status)
	router.GET("/chain", rpc.Chain)
	router.GET("/verify", rpc.Verify)

	router.POST("/blocks", rpc.AddBlock)
	router.DELETE("/blocks", rpc.DeleteLast)
	router.GET("/blocks/:id", rpc.Block)
	router.DELETE("/blocks/:id", rpc.DeleteBlock)
	router.PUT("/blocks/:id/data", rpc.SetData)
	router.POST("/blocks/:id/mine", rpc.Mine)
	return router
}

// writes a list of available rpc endpoints as an html page
func (rpc *RpcController) writeListOfEndpoints(c *gin.Context) {
	routerMap := map[string]string{
		"GET /status":           "",
		"GET /chain":            "",
		"GET /verify":           "",
		"POST /blocks":          "add a block",
		"DELETE /blocks":        "delete the last block",
		"GET /blocks/:id":       "id or index",
		"DELETE /blocks/:id":    "id or index of the last block",
		"PUT /blocks/:id/data":  `{"data": "..."}`,
		"POST /blocks/:id/mine": "id or index",
	}
	names := []string{}
	for name := range routerMap {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	buf.WriteString("<html><body>")
	buf.WriteString("<br>Available endpoints:<br>")
	for _, name := range names {
		buf.WriteString(fmt.Sprintf("%s %s</br>", name, routerMap[name]))
	}
	buf.WriteString("</body></html>")
	c.Data(http.StatusOK, "text/html", buf.Bytes())
}
