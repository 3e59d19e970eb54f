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
package mylog

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/annchain/blockdemo/common/utilfuncs"
	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const (
	rotationTime = time.Hour * 24
	maxAge       = rotationTime * 7
)

// RotateLog writes to abspath<yyyymmddHHMM>.log, rotated daily and kept a week.
// abspath.log always links to the current file.
func RotateLog(abspath string) *rotatelogs.RotateLogs {
	logFile, err := rotatelogs.New(
		abspath+"%Y%m%d%H%M.log",
		rotatelogs.WithLinkName(abspath+".log"),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	utilfuncs.PanicIfError(err, "err init log")
	return logFile
}

// LogPath resolves {logdir}/{name} to an absolute path, creating logdir on the way.
func LogPath(logdir string, name string) string {
	folder, err := filepath.Abs(logdir)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log path: %s", logdir))
	utilfuncs.PanicIfError(os.MkdirAll(folder, os.ModePerm), fmt.Sprintf("Error on creating log dir: %s", folder))
	return path.Join(folder, name)
}

// InitLogger derives a module logger that also writes to {logdir}/{outputFile}.log.
// With an empty logdir the module shares the parent's output.
func InitLogger(logger *logrus.Logger, logdir string, outputFile string) *logrus.Logger {
	out := logger.Out
	if logdir != "" {
		abspath := LogPath(logdir, outputFile)
		logrus.WithField("path", abspath).Info("Additional logger")
		out = io.MultiWriter(logger.Out, RotateLog(abspath))
	}
	return &logrus.Logger{
		Level:        logger.Level,
		Formatter:    logger.Formatter,
		Out:          out,
		Hooks:        logger.Hooks,
		ExitFunc:     logger.ExitFunc,
		ReportCaller: logger.ReportCaller,
	}
}

// LevelHook sends every level to its own rotated file under logdir.
func LevelHook(logdir string, formatter logrus.Formatter) *lfshook.LfsHook {
	writers := lfshook.WriterMap{}
	for _, level := range logrus.AllLevels {
		writers[level] = RotateLog(LogPath(logdir, level.String()))
	}
	return lfshook.NewHook(writers, formatter)
}

func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Println("Unknown level: ", level, "Set to INFO")
		return logrus.InfoLevel
	}
	return lvl
}

// LogInit is a console-only setup for tests and tools.
func LogInit(level logrus.Level) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "15:04:05.000000",
		FullTimestamp:   true,
		ForceColors:     true,
	})
	logrus.SetLevel(level)
}
