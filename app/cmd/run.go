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
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/annchain/blockdemo/common/utilfuncs"
	"github.com/annchain/blockdemo/core"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a node",
	Long:  `Start a node serving the chain over http and websocket`,
	Run: func(cmd *cobra.Command, args []string) {
		ensureFolder()
		// init logs and other facilities before the node starts
		readConfig()
		initLogger(os.Stdout)
		printConfig()
		writeConfig()

		config, err := core.NodeConfigFromViper(folderOf(DataDir))
		utilfuncs.PanicIfError(err, "node config")
		if viper.GetBool("log.file") && viper.GetBool("log.multifile_by_module") {
			config.ModuleLogDir = folderOf(LogDir)
		}

		log.WithField("pid", os.Getpid()).Info("Node Starting")
		node := &core.Node{Config: config}
		node.InitDefault()
		utilfuncs.PanicIfError(node.Setup(), "node setup")
		node.Start()

		// prevent sudden stop. Do your clean up here
		var gracefulStop = make(chan os.Signal, 1)

		signal.Notify(gracefulStop, syscall.SIGTERM)
		signal.Notify(gracefulStop, syscall.SIGINT)

		sig := <-gracefulStop
		log.Warnf("caught sig: %+v", sig)
		log.Warn("Exiting... Please do no kill me")
		node.Stop()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
