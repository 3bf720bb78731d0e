// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package features

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// override mirrors Feature with optional fields so that a file can change a
// single field of a record.
type override struct {
	Type          *string `mapstructure:"type"`
	Default       *int    `mapstructure:"default"`
	DefaultAttack *int    `mapstructure:"defaultAttack"`
	Vals          []int   `mapstructure:"vals"`
}

// LoadFile merges the records found in a TOML, JSON or YAML file over the
// built-in table. The result is validated.
//
// Each top-level key of the file names a parameter, e.g.
//
//	[nodes]
//	default = 50
//	defaultAttack = 100
//	vals = [50, 100, 200]
func LoadFile(path string) (Table, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read features file %s", path)
	}

	t := Defaults()
	for key := range v.AllSettings() {
		name, ok := canonicalName(t, key)
		if !ok {
			return nil, errors.Wrap(ErrUnknownFeature, key)
		}

		var o override
		if err := v.UnmarshalKey(key, &o); err != nil {
			return nil, errors.Wrapf(err, "decode feature %s", name)
		}

		t[name] = o.apply(t[name])
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (o override) apply(f Feature) Feature {
	if o.Type != nil {
		f.Type = *o.Type
	}
	if o.Default != nil {
		f.Default = *o.Default
	}
	if o.DefaultAttack != nil {
		f.DefaultAttack = *o.DefaultAttack
	}
	if o.Vals != nil {
		f.Vals = append([]int(nil), o.Vals...)
	}
	return f
}

// viper lower-cases keys, names are recovered by a case-insensitive match.
func canonicalName(t Table, key string) (string, bool) {
	for name := range t {
		if strings.EqualFold(name, key) {
			return name, true
		}
	}
	return "", false
}
