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

//go:generate mockgen -destination=mock_kv.go -package=kv github.com/carverauto/fieldprobe/pkg/kv Store

// Package kv provides the small key-value stores the agent persists state in.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for keys a JetStream bucket cannot hold. Both
// backends enforce it so a baseline key works wherever it is moved.
var ErrInvalidKey = errors.New("invalid key")

// Store is a byte-valued key-value store.
type Store interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete succeeds when key is absent.
	Delete(ctx context.Context, key string) error
	Close() error
}

// ValidateKey accepts dot-separated tokens of letters, digits, '-', '_', '=' and '/'.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_=/.", r):
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	return nil
}
