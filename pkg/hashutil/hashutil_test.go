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

package hashutil

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSHA256String(t *testing.T) {
	sum := sha256.Sum256([]byte("fieldprobe"))
	want := hex.EncodeToString(sum[:])

	cases := []struct {
		name       string
		input      string
		shouldFail bool
	}{
		{name: "hex lowercase", input: want},
		{name: "hex uppercase", input: strings.ToUpper(want)},
		{name: "prefixed", input: "sha256:" + want},
		{name: "base64 standard", input: base64.StdEncoding.EncodeToString(sum[:])},
		{name: "base64 raw url", input: base64.RawURLEncoding.EncodeToString(sum[:])},
		{name: "empty", input: "  ", shouldFail: true},
		{name: "garbage", input: "not*valid*digest", shouldFail: true},
		{name: "short hex", input: "abcd", shouldFail: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeSHA256String(tc.input)
			if tc.shouldFail {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, want, hex.EncodeToString(decoded))
		})
	}
}

func TestVerifyPayload(t *testing.T) {
	payload := []byte(`{"data_requests":{}}`)
	sum := sha256.Sum256(payload)

	require.NoError(t, VerifyPayload(hex.EncodeToString(sum[:]), payload))
	require.ErrorIs(t, VerifyPayload(hex.EncodeToString(sum[:]), []byte("tampered")), ErrChecksumMismatch)
	require.ErrorIs(t, VerifyPayload("zz", payload), ErrChecksumMismatch)
}

func TestDeviceHasher(t *testing.T) {
	a, err := NewDeviceHasher([]byte("secret"), "device-a")
	require.NoError(t, err)

	b, err := NewDeviceHasher([]byte("secret"), "device-b")
	require.NoError(t, err)

	again, err := NewDeviceHasher([]byte("secret"), "device-a")
	require.NoError(t, err)

	h := a.Hash("10.0.0.1")
	assert.Len(t, h, 64)
	assert.Equal(t, h, again.Hash("10.0.0.1"))
	assert.NotEqual(t, h, b.Hash("10.0.0.1"))
	assert.NotEqual(t, h, a.Hash("10.0.0.2"))
	assert.NotContains(t, h, "10.0.0.1")

	_, err = NewDeviceHasher(nil, "device-a")
	require.Error(t, err)
}
