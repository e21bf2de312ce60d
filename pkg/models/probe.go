/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ProbeID identifies a probe type, e.g. "process" or "connections".
type ProbeID string

// MergeRule decides how several Data Requests combine into one effective value.
type MergeRule int

const (
	// MergeLast keeps the value of the last request in canonical order.
	MergeLast MergeRule = iota
	// MergeMin keeps the smallest numeric value (periods: the most demanding requester wins).
	MergeMin
)

// Parameter is one declared, recognised probe parameter.
type Parameter struct {
	Name    string
	Default interface{}
	Merge   MergeRule
}

// Well-known parameter names shared by the built-in probes.
const (
	ParamPeriod = "period" // seconds between scheduled runs
)

// Params is a parameter payload as carried by configuration documents and get-data requests.
type Params map[string]interface{}

// Canonical returns a stable encoding of p (keys sorted), used as an identity key.
func (p Params) Canonical() string {
	if len(p) == 0 {
		return "{}"
	}

	b, err := json.Marshal(map[string]interface{}(p))
	if err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(p))
	}

	return string(b)
}

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}

	return out
}

// Float returns the named parameter as a float64 when it holds a number or numeric string.
func (p Params) Float(name string) (float64, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}

	return ToFloat(v)
}

// Bool returns the named parameter as a bool.
func (p Params) Bool(name string) (bool, bool) {
	switch v := p[name].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	default:
		return false, false
	}
}

// ToFloat converts JSON-ish numbers to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// MergeParams computes the effective parameter set: declared defaults overlaid by
// every request in canonical order. Names not declared in schema are ignored.
func MergeParams(schema []Parameter, requests ...Params) Params {
	ordered := make([]Params, 0, len(requests))
	for _, r := range requests {
		if r != nil {
			ordered = append(ordered, r)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Canonical() < ordered[j].Canonical()
	})

	out := make(Params, len(schema))

	for _, param := range schema {
		value := param.Default
		seen := false

		for _, r := range ordered {
			v, ok := r[param.Name]
			if !ok {
				continue
			}

			if param.Merge == MergeMin && seen {
				cur, okCur := ToFloat(value)
				next, okNext := ToFloat(v)

				if okCur && okNext && next >= cur {
					continue
				}
			}

			value = v
			seen = true
		}

		if value != nil {
			out[param.Name] = value
		}
	}

	return out
}

// DataRequest is a registration expressing desired ongoing collection.
type DataRequest struct {
	Probe     ProbeID `json:"probe"`
	Params    Params  `json:"params,omitempty"`
	Requester string  `json:"requester"`
}

// Key identifies a request for idempotent registration.
func (r DataRequest) Key() string {
	return string(r.Probe) + "|" + r.Requester + "|" + r.Params.Canonical()
}
