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

package natsutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding names accepted in models.NATSConfig.Encoding.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

var errUnknownEncoding = errors.New("unknown encoding")

// Codec serializes data messages for the wire.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// CodecFor returns the codec called name. An empty name selects JSON.
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", EncodingJSON:
		return jsonCodec{}, nil
	case EncodingMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEncoding, name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return EncodingJSON }
func (jsonCodec) ContentType() string                { return "application/json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return EncodingMsgpack }
func (msgpackCodec) ContentType() string                { return "application/msgpack" }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
