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

import (
	"encoding/hex"
	"fmt"

	"github.com/annchain/blockdemo/common/byteutil"
	lru "github.com/hashicorp/golang-lru"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/sha3"
)

type HashAlgorithm string

const (
	HashAlgorithmSha256 HashAlgorithm = "sha256"
	HashAlgorithmSha3   HashAlgorithm = "sha3"
)

func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch HashAlgorithm(s) {
	case "", HashAlgorithmSha256:
		return HashAlgorithmSha256, nil
	case HashAlgorithmSha3:
		return HashAlgorithmSha3, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", s)
	}
}

func headerBytes(h Header) []byte {
	w := byteutil.NewBinaryWriter()
	w.Write(uint64(h.Index))
	w.WriteString(h.Data, h.PreviousHash)
	w.Write(h.Nonce)
	return w.Bytes()
}

// ComputeHash is the sha256 digest of h as 64 lowercase hex characters.
func ComputeHash(h Header) string {
	return ComputeHashWith(HashAlgorithmSha256, h)
}

func ComputeHashWith(algorithm HashAlgorithm, h Header) string {
	var sum [32]byte
	switch algorithm {
	case HashAlgorithmSha3:
		sum = sha3.Sum256(headerBytes(h))
	default:
		sum = sha256.Sum256(headerBytes(h))
	}
	return hex.EncodeToString(sum[:])
}

// Hasher computes block hashes with one algorithm and memoises recent results.
type Hasher struct {
	Algorithm HashAlgorithm
	CacheSize int

	cache *lru.Cache
}

func (h *Hasher) InitDefault() {
	if h.Algorithm == "" {
		h.Algorithm = HashAlgorithmSha256
	}
	if h.CacheSize <= 0 {
		h.CacheSize = 1024
	}
	cache, err := lru.New(h.CacheSize)
	if err != nil {
		panic(err)
	}
	h.cache = cache
}

func NewHasher(algorithm HashAlgorithm, cacheSize int) *Hasher {
	h := &Hasher{
		Algorithm: algorithm,
		CacheSize: cacheSize,
	}
	h.InitDefault()
	return h
}

func (h *Hasher) ComputeHash(header Header) string {
	if h.cache == nil {
		return ComputeHashWith(h.Algorithm, header)
	}
	if v, ok := h.cache.Get(header); ok {
		return v.(string)
	}
	hash := ComputeHashWith(h.Algorithm, header)
	h.cache.Add(header, hash)
	return hash
}

// Uncached skips the memo. Mining visits each nonce once, so caching would only evict useful entries.
func (h *Hasher) Uncached(header Header) string {
	return ComputeHashWith(h.Algorithm, header)
}

func (h *Hasher) CacheLen() int {
	if h.cache == nil {
		return 0
	}
	return h.cache.Len()
}
