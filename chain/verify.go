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

import "fmt"

type FaultKind int

const (
	FaultHashUnset FaultKind = iota
	// FaultStaleHash: the recorded hash is not the digest of the block's current header,
	// usually because an upstream hash changed and was not propagated.
	FaultStaleHash
	FaultIndexMismatch
)

func (k FaultKind) String() string {
	switch k {
	case FaultHashUnset:
		return "hash_unset"
	case FaultStaleHash:
		return "stale_hash"
	case FaultIndexMismatch:
		return "index_mismatch"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

type Fault struct {
	ID       BlockID
	Index    int
	Kind     FaultKind
	Expected string
	Actual   string
}

func (f Fault) String() string {
	return fmt.Sprintf("block #%d (%s): %s expected=%s actual=%s", f.Index, f.ID, f.Kind, f.Expected, f.Actual)
}

// Verify checks every block's recorded hash against its header. Validity under a
// difficulty is not a fault: unmined blocks are normal.
func (c *Chain) Verify(hasher *Hasher) []Fault {
	var faults []Fault
	for pos, b := range c.Blocks() {
		if b.Index != pos+1 {
			faults = append(faults, Fault{
				ID:       b.ID,
				Index:    b.Index,
				Kind:     FaultIndexMismatch,
				Expected: fmt.Sprint(pos + 1),
				Actual:   fmt.Sprint(b.Index),
			})
		}
		if b.Hash == "" {
			faults = append(faults, Fault{ID: b.ID, Index: b.Index, Kind: FaultHashUnset})
			continue
		}
		expected := hasher.ComputeHash(b.Header())
		if expected != b.Hash {
			faults = append(faults, Fault{
				ID:       b.ID,
				Index:    b.Index,
				Kind:     FaultStaleHash,
				Expected: expected,
				Actual:   b.Hash,
			})
		}
	}
	return faults
}
