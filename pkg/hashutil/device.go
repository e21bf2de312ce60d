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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var errEmptySecret = errors.New("device secret is required")

const deviceHashInfo = "fieldprobe hashed-string v1"

// DeviceHasher produces a one-way hash that is stable on one device and differs across devices.
type DeviceHasher struct {
	key []byte
}

// NewDeviceHasher derives the hashing key from the device secret and id.
func NewDeviceHasher(secret []byte, deviceID string) (*DeviceHasher, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}

	key := make([]byte, sha256.Size)

	r := hkdf.New(sha256.New, secret, []byte(deviceID), []byte(deviceHashInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive device key: %w", err)
	}

	return &DeviceHasher{key: key}, nil
}

// Hash returns the lowercase hex HMAC-SHA256 of value.
func (h *DeviceHasher) Hash(value string) string {
	mac := hmac.New(sha256.New, h.key)
	_, _ = mac.Write([]byte(value))

	return hex.EncodeToString(mac.Sum(nil))
}
