// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package features

import (
	"sort"

	"github.com/pkg/errors"
)

// ResultDir is where the harness writes logs and results of every run.
const ResultDir = "./discv5_test_logs"

// Names of the parameters the harness understands.
const (
	Nodes             = "nodes"
	Topic             = "topic"
	RegBucketSize     = "regBucketSize"
	SearchBucketSize  = "searchBucketSize"
	AdLifetimeSeconds = "adLifetimeSeconds"
	AdCacheSize       = "adCacheSize"
	RPCBasePort       = "rpcBasePort"
	UDPBasePort       = "udpBasePort"
	ReturnedNodes     = "returnedNodes"
)

// TypeBenign classifies a parameter of normal network operation.
const TypeBenign = "benign"

var (
	// ErrUnknownFeature is returned on lookups of a parameter which is not
	// part of the table.
	ErrUnknownFeature = errors.New("unknown feature")

	// ErrInvalidFeature is returned by Validate.
	ErrInvalidFeature = errors.New("invalid feature")
)

// Mode selects which default of a Feature applies.
type Mode uint8

const (
	// Benign selects Feature.Default.
	Benign Mode = iota
	// Attack selects Feature.DefaultAttack.
	Attack
)

func (m Mode) String() string {
	switch m {
	case Benign:
		return "benign"
	case Attack:
		return "attack"
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "benign":
		return Benign, nil
	case "attack":
		return Attack, nil
	}
	return Benign, errors.Errorf("unknown mode %q", s)
}

// Feature is a single test parameter.
type Feature struct {
	Type          string `json:"type" mapstructure:"type"`
	Default       int    `json:"default" mapstructure:"default"`
	DefaultAttack int    `json:"defaultAttack" mapstructure:"defaultAttack"`
	Vals          []int  `json:"vals" mapstructure:"vals"`
}

// ValueFor returns the default that applies under mode m.
func (f Feature) ValueFor(m Mode) int {
	if m == Attack {
		return f.DefaultAttack
	}
	return f.Default
}

func (f Feature) clone() Feature {
	c := f
	c.Vals = append([]int(nil), f.Vals...)
	return c
}

// Table maps parameter names to their Feature record.
type Table map[string]Feature

// Defaults returns a fresh copy of the built-in table.
func Defaults() Table {
	t := make(Table, len(builtin))
	for name, f := range builtin {
		t[name] = f.clone()
	}
	return t
}

var builtin = Table{
	Nodes:             {Type: TypeBenign, Default: 50, DefaultAttack: 100, Vals: []int{50}},
	Topic:             {Type: TypeBenign, Default: 1, DefaultAttack: 1, Vals: []int{1}},
	RegBucketSize:     {Type: TypeBenign, Default: 10, DefaultAttack: 10, Vals: []int{10}},
	SearchBucketSize:  {Type: TypeBenign, Default: 3, DefaultAttack: 3, Vals: []int{3}},
	AdLifetimeSeconds: {Type: TypeBenign, Default: 60, DefaultAttack: 60, Vals: []int{60}},
	AdCacheSize:       {Type: TypeBenign, Default: 500, DefaultAttack: 500, Vals: []int{500}},
	RPCBasePort:       {Type: TypeBenign, Default: 20200, DefaultAttack: 20200, Vals: []int{20200}},
	UDPBasePort:       {Type: TypeBenign, Default: 30200, DefaultAttack: 30200, Vals: []int{30200}},
	ReturnedNodes:     {Type: TypeBenign, Default: 30, DefaultAttack: 1, Vals: []int{30}},
}

// Names returns the parameter names in lexical order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of the named Feature.
func (t Table) Get(name string) (Feature, error) {
	f, ok := t[name]
	if !ok {
		return Feature{}, errors.Wrap(ErrUnknownFeature, name)
	}
	return f.clone(), nil
}

// Value returns the default of the named parameter under mode m.
func (t Table) Value(name string, m Mode) (int, error) {
	f, err := t.Get(name)
	if err != nil {
		return 0, err
	}
	return f.ValueFor(m), nil
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	c := make(Table, len(t))
	for name, f := range t {
		c[name] = f.clone()
	}
	return c
}

// Validate checks that every required parameter is present and every
// record is complete.
func (t Table) Validate() error {
	for name := range builtin {
		if _, ok := t[name]; !ok {
			return errors.Wrapf(ErrInvalidFeature, "%s: missing", name)
		}
	}

	for _, name := range t.Names() {
		f := t[name]
		if f.Type != TypeBenign {
			return errors.Wrapf(ErrInvalidFeature, "%s: unknown type %q", name, f.Type)
		}

		if len(f.Vals) == 0 {
			return errors.Wrapf(ErrInvalidFeature, "%s: empty vals", name)
		}

		if f.Default < 0 || f.DefaultAttack < 0 {
			return errors.Wrapf(ErrInvalidFeature, "%s: negative default", name)
		}

		for _, v := range f.Vals {
			if v < 0 {
				return errors.Wrapf(ErrInvalidFeature, "%s: negative value %d", name, v)
			}
		}
	}
	return nil
}
