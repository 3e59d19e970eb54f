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
package chain

import "strings"

const DefaultDifficulty = 4

// Difficulty is the number of leading '0' characters a valid hash needs.
type Difficulty int

func (d Difficulty) Prefix() string {
	if d <= 0 {
		return ""
	}
	return strings.Repeat("0", int(d))
}

// IsValid reports whether hash satisfies d. An unset hash is never valid.
func (d Difficulty) IsValid(hash string) bool {
	if hash == "" {
		return false
	}
	return strings.HasPrefix(hash, d.Prefix())
}

func IsValid(hash string) bool {
	return Difficulty(DefaultDifficulty).IsValid(hash)
}

const (
	LabelValid    = "Valid"
	LabelNotValid = "Not Valid"
)

// Label is the text shown next to a block for its hash.
func (d Difficulty) Label(hash string) string {
	if d.IsValid(hash) {
		return LabelValid
	}
	return LabelNotValid
}
