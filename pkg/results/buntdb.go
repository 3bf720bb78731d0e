// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package results

import (
	"encoding/json"
	"os"
	"path/filepath"

	cfg "github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

// BuntDriverName is the name of the buntdb driver.
const BuntDriverName = cfg.DriverBuntDB

type buntDriver struct{}

func (buntDriver) Name() string {
	return BuntDriverName
}

// Open opens or creates dir/results.db.
func (buntDriver) Open(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	db, err := buntdb.Open(filepath.Join(dir, "results.db"))
	if err != nil {
		return nil, err
	}

	var config buntdb.Config
	if err := db.ReadConfig(&config); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Results are written once per run, syncing each of them is affordable.
	config.SyncPolicy = buntdb.Always
	config.AutoShrinkDisabled = false

	if err := db.SetConfig(config); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &buntStore{db: db}, nil
}

// buntStore keeps results as JSON values under run:<id> keys.
type buntStore struct {
	db *buntdb.DB
}

func (s *buntStore) Put(res Result) error {
	value, err := json.Marshal(res)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(res.RunID), string(value), nil)
		return err
	})
}

func (s *buntStore) Get(runID string) (Result, error) {
	var res Result
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key(runID))
		if err == buntdb.ErrNotFound {
			return errors.Wrap(ErrNotFound, runID)
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &res)
	})
	return res, err
}

func (s *buntStore) List() ([]Result, error) {
	out := make([]Result, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(runPrefix+"*", func(_, value string) bool {
			var res Result
			if decodeErr = json.Unmarshal([]byte(value), &res); decodeErr != nil {
				return false
			}
			out = append(out, res)
			return true // continue iteration
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	return out, err
}

func (s *buntStore) Close() error {
	return s.db.Close()
}

func init() {
	if err := Register(buntDriver{}); err != nil {
		log.Panic(err)
	}
}
