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
package ledger

import (
	"github.com/annchain/blockdemo/chain"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var (
	keySnapshot = []byte("chain/snapshot")
)

// SnapshotStore persists the latest chain snapshot of a session.
type SnapshotStore interface {
	// Load returns nil without error when nothing has been saved yet.
	Load() (*chain.Chain, error)
	Save(c *chain.Chain) error
	Close() error
}

// LevelDBStore keeps the snapshot msgp-encoded and snappy-compressed under one key.
type LevelDBStore struct {
	Path string
	db   *leveldb.DB
}

func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open leveldb at %s", path)
	}
	logrus.WithField("path", path).Info("chain store opened")
	return &LevelDBStore{Path: path, db: db}, nil
}

// NewMemLevelDBStore is backed by memory only.
func NewMemLevelDBStore() (*LevelDBStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open memory leveldb")
	}
	return &LevelDBStore{Path: ":memory:", db: db}, nil
}

func (s *LevelDBStore) Load() (*chain.Chain, error) {
	value, err := s.db.Get(keySnapshot, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	raw, err := snappy.Decode(nil, value)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	c := chain.New()
	if _, err = c.UnmarshalMsg(raw); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return c, nil
}

func (s *LevelDBStore) Save(c *chain.Chain) error {
	raw, err := c.MarshalMsg(make([]byte, 0, c.Msgsize()))
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if err = s.db.Put(keySnapshot, snappy.Encode(nil, raw), nil); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	return nil
}

func (s *LevelDBStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
