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
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"runtime/debug"
	"time"

	"github.com/annchain/blockdemo/common/files"
	"github.com/annchain/blockdemo/common/mylog"
	"github.com/annchain/blockdemo/common/utilfuncs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	LogDir    = "log"
	DataDir   = "data"
	ConfigDir = "config"
)

func DumpStack() {
	if err := recover(); err != nil {
		logrus.WithField("obj", err).Error("Fatal error occurred. Program will exit")
		var buf bytes.Buffer
		stack := debug.Stack()
		buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
		buf.Write(stack)
		dumpName := "dump_" + time.Now().Format("20060102-150405")
		nerr := ioutil.WriteFile(dumpName, buf.Bytes(), 0644)
		if nerr != nil {
			fmt.Println("write dump file error", nerr)
		}
		logrus.WithField("stack ", buf.String()).Error("panic")
		fmt.Println(buf.String())
		os.Exit(1)
	}
}

func folderOf(name string) string {
	return files.FixPrefixPath(viper.GetString("dir.root"), name)
}

// initLogger uses viper to get the log path and level. It should be called by all other commands.
// Console output goes to console when log.stdout is set.
func initLogger(console io.Writer) {
	doStdout := viper.GetBool("log.stdout")
	doFile := viper.GetBool("log.file")
	logdir := folderOf(LogDir)

	var writers []io.Writer

	if doFile {
		abspath := mylog.LogPath(logdir, "run")
		writers = append(writers, mylog.RotateLog(abspath))
		fmt.Println("Will be logged to " + abspath + ".log")
	}
	if doStdout {
		writers = append(writers, console)
	}

	switch len(writers) {
	case 0:
		logrus.SetOutput(ioutil.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}

	logrus.SetLevel(mylog.ParseLevel(viper.GetString("log.level")))

	formatter := new(logrus.TextFormatter)
	formatter.ForceColors = doStdout && !doFile
	formatter.TimestampFormat = "2006-01-02 15:04:05.000000"
	formatter.FullTimestamp = true
	logrus.StandardLogger().SetFormatter(formatter)

	logrus.SetReportCaller(viper.GetBool("log.line_number"))

	if viper.GetBool("log.multifile_by_level") && doFile {
		logrus.AddHook(mylog.LevelHook(logdir, formatter))
	}
	logrus.Debug("Logger initialized.")
}

func ensureFolder() {
	root := viper.GetString("dir.root")
	err := files.MkDirIfNotExists(root)
	utilfuncs.PanicIfError(err, "creating root folder")

	for _, folder := range []string{LogDir, DataDir, ConfigDir} {
		err = files.MkDirIfNotExists(folderOf(folder))
		utilfuncs.PanicIfError(err, "creating folder: "+folder)
	}
}
