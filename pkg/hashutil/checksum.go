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

// Package hashutil holds digest helpers: checksum verification for fetched documents and
// the per-device keyed hash used by hashed-string cells.
package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrChecksumMismatch is returned when a payload does not match its advertised digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	errEmptyChecksum       = errors.New("empty checksum string")
	errUnsupportedEncoding = errors.New("unsupported checksum encoding")
)

// DecodeSHA256String decodes a hex or base64 (std/url, padded or raw) SHA-256 digest.
func DecodeSHA256String(s string) ([]byte, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return nil, errEmptyChecksum
	}

	clean = strings.TrimPrefix(clean, "sha256:")

	if decoded, err := hex.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
		return decoded, nil
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
			return decoded, nil
		}
	}

	return nil, errUnsupportedEncoding
}

// EqualSHA256 reports whether expected (hex or base64) matches actual.
func EqualSHA256(expected string, actual [32]byte) bool {
	decoded, err := DecodeSHA256String(expected)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(decoded, actual[:]) == 1
}

// VerifyPayload checks payload against an advertised digest.
func VerifyPayload(expected string, payload []byte) error {
	if _, err := DecodeSHA256String(expected); err != nil {
		return fmt.Errorf("%w: %w", ErrChecksumMismatch, err)
	}

	if !EqualSHA256(expected, sha256.Sum256(payload)) {
		return ErrChecksumMismatch
	}

	return nil
}
