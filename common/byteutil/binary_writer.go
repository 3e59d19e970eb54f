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
package byteutil

import (
	"bytes"
	"encoding/binary"
)

// BinaryWriter accumulates big-endian fields into one buffer for digesting.
type BinaryWriter struct {
	buf *bytes.Buffer
}

func NewBinaryWriter() *BinaryWriter {
	return &BinaryWriter{
		buf: &bytes.Buffer{},
	}
}

// Write appends fixed-size values. Variable-size values must go through WriteString.
func (s *BinaryWriter) Write(datas ...interface{}) {
	if s.buf == nil {
		s.buf = &bytes.Buffer{}
	}
	for _, data := range datas {
		if err := binary.Write(s.buf, binary.BigEndian, data); err != nil {
			panic(err)
		}
	}
}

// WriteString appends a uint32 length prefix followed by the raw bytes of v,
// so adjacent strings never run into each other.
func (s *BinaryWriter) WriteString(vs ...string) {
	for _, v := range vs {
		s.Write(uint32(len(v)))
		s.buf.WriteString(v)
	}
}

//get bytes
func (s *BinaryWriter) Bytes() []byte {
	return s.buf.Bytes()
}
