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
package miner

import (
	"context"
	"errors"

	"github.com/annchain/blockdemo/chain"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const (
	DefaultMaxAttempts = 1000000
	// ctx is polled once per this many nonces
	contextCheckInterval = 1024
)

var ErrAttemptsExhausted = errors.New("mining incomplete: attempt cap exhausted")

type Result struct {
	Nonce    uint64
	Hash     string
	Attempts uint64
}

// Mine searches nonces from start upwards until hash(header) satisfies difficulty.
// It gives up after maxAttempts with ErrAttemptsExhausted and the last nonce tried.
func Mine(ctx context.Context, hash func(chain.Header) string, difficulty chain.Difficulty,
	header chain.Header, start uint64, maxAttempts uint64) (Result, error) {
	var result Result
	header.Nonce = start
	for result.Attempts < maxAttempts {
		if result.Attempts%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return result, err
			}
		}
		result.Nonce = header.Nonce
		result.Hash = hash(header)
		result.Attempts++
		if difficulty.IsValid(result.Hash) {
			return result, nil
		}
		header.Nonce++
	}
	return result, ErrAttemptsExhausted
}

type Stats struct {
	Attempts  uint64 `json:"attempts"`
	Mined     uint64 `json:"mined"`
	Exhausted uint64 `json:"exhausted"`
}

type PoWMiner struct {
	Hasher      *chain.Hasher
	Difficulty  chain.Difficulty
	MaxAttempts uint64

	attempts  *atomic.Uint64
	mined     *atomic.Uint64
	exhausted *atomic.Uint64
}

func (m *PoWMiner) InitDefault() {
	if m.Hasher == nil {
		m.Hasher = chain.NewHasher(chain.HashAlgorithmSha256, 0)
	}
	if m.MaxAttempts == 0 {
		m.MaxAttempts = DefaultMaxAttempts
	}
	m.attempts = atomic.NewUint64(0)
	m.mined = atomic.NewUint64(0)
	m.exhausted = atomic.NewUint64(0)
}

// Mine always starts from nonce 0 so the same header mines to the same nonce.
func (m *PoWMiner) Mine(ctx context.Context, header chain.Header) (Result, error) {
	return m.MineFrom(ctx, header, 0)
}

func (m *PoWMiner) MineFrom(ctx context.Context, header chain.Header, start uint64) (Result, error) {
	result, err := Mine(ctx, m.Hasher.Uncached, m.Difficulty, header, start, m.MaxAttempts)
	m.attempts.Add(result.Attempts)
	switch err {
	case nil:
		m.mined.Inc()
		logrus.WithFields(logrus.Fields{
			"index":    header.Index,
			"nonce":    result.Nonce,
			"attempts": result.Attempts,
		}).Debug("block mined")
	case ErrAttemptsExhausted:
		m.exhausted.Inc()
		logrus.WithFields(logrus.Fields{
			"index":    header.Index,
			"attempts": result.Attempts,
		}).Warn("mining gave up")
	}
	return result, err
}

func (m *PoWMiner) CalcHash(header chain.Header) string {
	return m.Hasher.ComputeHash(header)
}

// IsHashValid checks that hash is the digest of header and satisfies the difficulty.
func (m *PoWMiner) IsHashValid(header chain.Header, hash string) bool {
	calcHash := m.CalcHash(header)
	if calcHash != hash {
		logrus.WithField("should", calcHash).WithField("actual", hash).Warn("hash is fake")
		return false
	}
	if !m.Difficulty.IsValid(calcHash) {
		logrus.WithField("difficulty", int(m.Difficulty)).WithField("actual", hash).Debug("hash is too large")
		return false
	}
	return true
}

func (m *PoWMiner) Stats() Stats {
	return Stats{
		Attempts:  m.attempts.Load(),
		Mined:     m.mined.Load(),
		Exhausted: m.exhausted.Load(),
	}
}

func (m *PoWMiner) Name() string {
	return "miner"
}

func (m *PoWMiner) GetBenchmarks() map[string]interface{} {
	stats := m.Stats()
	return map[string]interface{}{
		"attempts":  stats.Attempts,
		"mined":     stats.Mined,
		"exhausted": stats.Exhausted,
	}
}
