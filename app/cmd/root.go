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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blockdemo",
	Short: "blockdemo: a hash-chained block demo node",
	Long:  `blockdemo keeps an ordered chain of blocks, each linked to its predecessor by hash, and mines them by proof of work`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer DumpStack()
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("Fatal error occurred. Program will exit")
		os.Exit(1)
	}
}

func init() {
	// folders
	rootCmd.PersistentFlags().StringP("root", "r", "nodedata", "Folder for all data of one node")

	// log
	rootCmd.PersistentFlags().BoolP("log-stdout", "s", true, "Whether the log will be printed to stdout")
	rootCmd.PersistentFlags().BoolP("log-file", "f", false, "Whether the log will be printed to file")
	rootCmd.PersistentFlags().StringP("log-level", "v", "info", "Logging verbosity, possible values:[panic, fatal, error, warn, info, debug, trace]")
	rootCmd.PersistentFlags().BoolP("log-line-number", "n", false, "Whether the log will contain line number")
	rootCmd.PersistentFlags().BoolP("multifile-by-level", "m", false, "Split log into multiple files by level")
	rootCmd.PersistentFlags().BoolP("multifile-by-module", "M", false, "Give modules their own log file")

	_ = viper.BindPFlag("dir.root", rootCmd.PersistentFlags().Lookup("root"))

	_ = viper.BindPFlag("log.stdout", rootCmd.PersistentFlags().Lookup("log-stdout"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.line_number", rootCmd.PersistentFlags().Lookup("log-line-number"))
	_ = viper.BindPFlag("log.multifile_by_level", rootCmd.PersistentFlags().Lookup("multifile-by-level"))
	_ = viper.BindPFlag("log.multifile_by_module", rootCmd.PersistentFlags().Lookup("multifile-by-module"))

	setDefaults()
}
