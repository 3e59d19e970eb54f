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
// Package files holds the path helpers used to lay out a node's root folder.
package files

import (
	"os"
	"path"
)

// kindOf stats p. ok is false when p does not exist or cannot be read.
func kindOf(p string) (isDir bool, ok bool) {
	info, err := os.Stat(p)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}

func FileExists(filename string) bool {
	isDir, ok := kindOf(filename)
	return ok && !isDir
}

func DirExists(dirname string) bool {
	isDir, ok := kindOf(dirname)
	return ok && isDir
}

// MkDirIfNotExists creates dir with its parents. An existing dir is left alone.
func MkDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, os.ModePerm)
}

// FixPrefixPath places relative under root. Absolute paths and an empty root pass through.
func FixPrefixPath(root string, relative string) string {
	if root == "" || path.IsAbs(relative) {
		return relative
	}
	return path.Join(root, relative)
}
