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

//do not use go gen msgp for this file, this is written by hand
import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

const recordFieldCount = 5

// MarshalMsg encodes the snapshot as [records, hashes].
func (c *Chain) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendArrayHeader(b, 2)
	o = msgp.AppendArrayHeader(o, uint32(len(c.records)))
	for _, r := range c.records {
		o = msgp.AppendArrayHeader(o, recordFieldCount)
		o = msgp.AppendString(o, string(r.ID))
		o = msgp.AppendInt(o, r.Index)
		o = msgp.AppendString(o, r.Data)
		o = msgp.AppendUint64(o, r.Nonce)
		o = msgp.AppendInt(o, int(r.State))
	}
	o = msgp.AppendMapHeader(o, uint32(len(c.hashes)))
	for id, hash := range c.hashes {
		o = msgp.AppendString(o, string(id))
		o = msgp.AppendString(o, hash)
	}
	return
}

func (c *Chain) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != 2 {
		err = msgp.ArrayError{Wanted: 2, Got: sz}
		return
	}
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	records := make([]record, sz)
	for i := range records {
		records[i], bts, err = unmarshalRecord(bts)
		if err != nil {
			return
		}
	}
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	hashes := make(map[BlockID]string, sz)
	for i := uint32(0); i < sz; i++ {
		var id, hash string
		id, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return
		}
		hash, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return
		}
		hashes[BlockID(id)] = hash
	}
	for id := range hashes {
		if c.positionIn(records, id) < 0 {
			err = fmt.Errorf("hash recorded for unknown block %s", id)
			return
		}
	}
	c.records = records
	c.hashes = hashes
	o = bts
	return
}

func (c *Chain) positionIn(records []record, id BlockID) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func unmarshalRecord(bts []byte) (r record, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != recordFieldCount {
		err = msgp.ArrayError{Wanted: recordFieldCount, Got: sz}
		return
	}
	var id string
	id, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	r.ID = BlockID(id)
	r.Index, bts, err = msgp.ReadIntBytes(bts)
	if err != nil {
		return
	}
	r.Data, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	r.Nonce, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	var state int
	state, bts, err = msgp.ReadIntBytes(bts)
	if err != nil {
		return
	}
	r.State = MiningState(state)
	o = bts
	return
}

func (c *Chain) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + msgp.ArrayHeaderSize
	for _, r := range c.records {
		s += msgp.ArrayHeaderSize + msgp.StringPrefixSize + len(r.ID) + msgp.IntSize +
			msgp.StringPrefixSize + len(r.Data) + msgp.Uint64Size + msgp.IntSize
	}
	s += msgp.MapHeaderSize
	for id, hash := range c.hashes {
		s += msgp.StringPrefixSize + len(id) + msgp.StringPrefixSize + len(hash)
	}
	return
}
