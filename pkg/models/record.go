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
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Field is one named value of a Record.
type Field struct {
	Name  string      `json:"name" msgpack:"name"`
	Value interface{} `json:"value" msgpack:"value"`
}

// Record is an ordered set of named values produced by a scan. Field order follows the
// scan's cell list. A Record is not modified once emitted.
type Record struct {
	fields    []Field
	Timestamp time.Time
}

// NewRecord builds a record from fields in order. The slice is copied.
func NewRecord(fields []Field, ts time.Time) Record {
	cp := make([]Field, len(fields))
	copy(cp, fields)

	return Record{fields: cp, Timestamp: ts}
}

// Fields returns a copy of the record's fields in order.
func (r Record) Fields() []Field {
	cp := make([]Field, len(r.fields))
	copy(cp, r.fields)

	return cp
}

func (r Record) Len() int { return len(r.fields) }

// Get returns the named value.
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return nil, false
}

// MarshalJSON writes the fields as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// wireRecord is the msgpack form of a Record.
type wireRecord struct {
	Fields    []Field   `msgpack:"fields"`
	Timestamp time.Time `msgpack:"timestamp"`
}

func (r Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(wireRecord{Fields: r.fields, Timestamp: r.Timestamp})
}

func (r *Record) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireRecord
	if err := dec.Decode(&w); err != nil {
		return err
	}

	r.fields = w.Fields
	r.Timestamp = w.Timestamp

	return nil
}

// DataMessage carries records from one probe run to the requesters of that probe.
type DataMessage struct {
	ID         uuid.UUID `json:"id" msgpack:"id"`
	Probe      ProbeID   `json:"probe" msgpack:"probe"`
	DataName   string    `json:"data_name" msgpack:"data_name"`
	Requesters []string  `json:"requesters,omitempty" msgpack:"requesters,omitempty"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	Records    []Record  `json:"records" msgpack:"records"`
}

// NewDataMessage stamps a message with a fresh id.
func NewDataMessage(probe ProbeID, dataName string, ts time.Time, records []Record) *DataMessage {
	return &DataMessage{
		ID:        uuid.New(),
		Probe:     probe,
		DataName:  dataName,
		Timestamp: ts,
		Records:   records,
	}
}
