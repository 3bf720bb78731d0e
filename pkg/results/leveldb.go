// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package results

import (
	"encoding/json"
	"path/filepath"

	cfg "github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDriverName is the name of the goleveldb driver.
const LevelDriverName = cfg.DriverLevelDB

type levelDriver struct{}

func (levelDriver) Name() string {
	return LevelDriverName
}

// Open opens or creates the dir/results.ldb directory.
func (levelDriver) Open(dir string) (Store, error) {
	db, err := leveldb.OpenFile(filepath.Join(dir, "results.ldb"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not open leveldb store")
	}
	return &levelStore{db: db}, nil
}

type levelStore struct {
	db *leveldb.DB
}

func (s *levelStore) Put(res Result) error {
	value, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(key(res.RunID)), value, &opt.WriteOptions{Sync: true})
}

func (s *levelStore) Get(runID string) (Result, error) {
	var res Result
	value, err := s.db.Get([]byte(key(runID)), nil)
	if err == leveldb.ErrNotFound {
		return res, errors.Wrap(ErrNotFound, runID)
	}
	if err != nil {
		return res, err
	}
	err = json.Unmarshal(value, &res)
	return res, err
}

func (s *levelStore) List() ([]Result, error) {
	out := make([]Result, 0)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(runPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		var res Result
		if err := json.Unmarshal(iter.Value(), &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, iter.Error()
}

func (s *levelStore) Close() error {
	return s.db.Close()
}

func init() {
	if err := Register(levelDriver{}); err != nil {
		log.Panic(err)
	}
}
