// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package features

import (
	"fmt"
	"sort"
	"strings"
)

// Scenario is one point of a parameter sweep.
type Scenario struct {
	Mode Mode
	// Varied is the parameter which differs from the baseline. It is empty
	// for the baseline itself.
	Varied string
	Params map[string]int
}

// Int returns the value of the named parameter. Unknown names yield zero.
func (s Scenario) Int(name string) int {
	return s.Params[name]
}

// Key is a stable textual form of the parameter values.
func (s Scenario) Key() string {
	var sb strings.Builder
	for i, name := range sortedKeys(s.Params) {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%d", name, s.Params[name])
	}
	return sb.String()
}

func sortedKeys(params map[string]int) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Baseline returns the scenario where every parameter takes the default of
// mode m.
func (t Table) Baseline(m Mode) Scenario {
	params := make(map[string]int, len(t))
	for name, f := range t {
		params[name] = f.ValueFor(m)
	}
	return Scenario{Mode: m, Params: params}
}

// Sweep varies one parameter at a time over its vals while the others keep
// the default of mode m. The baseline comes first and duplicate scenarios
// are dropped.
func (t Table) Sweep(m Mode) []Scenario {
	base := t.Baseline(m)
	seen := map[string]struct{}{base.Key(): {}}
	out := []Scenario{base}

	for _, name := range t.Names() {
		for _, v := range t[name].Vals {
			params := make(map[string]int, len(base.Params))
			for k, bv := range base.Params {
				params[k] = bv
			}
			params[name] = v

			s := Scenario{Mode: m, Varied: name, Params: params}
			if _, dup := seen[s.Key()]; dup {
				continue
			}
			seen[s.Key()] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
