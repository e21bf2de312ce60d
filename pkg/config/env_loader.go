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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/fieldprobe/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

var jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// EnvConfigLoader loads configuration from environment variables named after the json tags
// of the destination struct. Nested structs join with an underscore, so NATS.URL with tags
// nats/url reads FIELDPROBE_NATS_URL.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a loader reading variables that start with prefix.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &EnvConfigLoader{logger: log, prefix: prefix}
}

// Load reads <prefix>CONFIG_JSON as a whole document when set, and individual variables
// otherwise.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if doc := os.Getenv(e.prefix + "CONFIG_JSON"); doc != "" {
		if err := json.Unmarshal([]byte(doc), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	if v.Elem().Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	n := e.loadStruct(v.Elem(), e.prefix)

	e.logger.Info().Int("fields", n).Msg("Loaded configuration from environment variables")

	return nil
}

// loadStruct returns how many fields were set. Fields with malformed values are logged and
// skipped so one bad variable does not discard the rest.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) int {
	t := v.Type()
	set := 0

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		n, err := e.setField(field, envName)
		if err != nil {
			e.logger.Warn().Err(err).Str("env", envName).Msg("Ignoring environment variable")

			continue
		}

		set += n
	}

	return set
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) (int, error) {
	if isNested(field.Type()) {
		return e.setNested(field, envName), nil
	}

	raw, ok := os.LookupEnv(envName)
	if !ok || raw == "" {
		return 0, nil
	}

	if field.Kind() == reflect.Ptr {
		target := reflect.New(field.Type().Elem())
		if err := setScalar(target.Elem(), envName, raw); err != nil {
			return 0, err
		}

		field.Set(target)

		return 1, nil
	}

	if err := setScalar(field, envName, raw); err != nil {
		return 0, err
	}

	return 1, nil
}

// setNested only allocates a nil struct pointer when at least one of its variables is set,
// which keeps optional sections such as security nil when unconfigured.
func (e *EnvConfigLoader) setNested(field reflect.Value, envName string) int {
	if field.Kind() == reflect.Struct {
		return e.loadStruct(field, envName+"_")
	}

	target := reflect.New(field.Type().Elem())
	if !field.IsNil() {
		target = field
	}

	n := e.loadStruct(target.Elem(), envName+"_")
	if n > 0 && field.IsNil() {
		field.Set(target)
	}

	return n
}

func isNested(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(jsonUnmarshalerType) {
		return false
	}

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{})
}

func setScalar(field reflect.Value, envName, raw string) error {
	if field.Addr().Type().Implements(jsonUnmarshalerType) {
		return setJSON(field, envName, raw)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", envName, err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration value for %s: %w", envName, err)
			}

			field.SetInt(int64(d))

			return nil
		}

		i, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", envName, err)
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value for %s: %w", envName, err)
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %w", envName, err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return setJSON(field, envName, raw)
		}

		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(field.Type(), 0, len(parts))

		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p).Convert(field.Type().Elem()))
			}
		}

		field.Set(out)
	default:
		return setJSON(field, envName, raw)
	}

	return nil
}

// setJSON decodes raw as JSON, retrying it as a JSON string so values like 30s work for
// types with their own UnmarshalJSON.
func setJSON(field reflect.Value, envName, raw string) error {
	dst := field.Addr().Interface()

	err := json.Unmarshal([]byte(raw), dst)
	if err == nil {
		return nil
	}

	quoted, _ := json.Marshal(raw)
	if json.Unmarshal(quoted, dst) == nil {
		return nil
	}

	return fmt.Errorf("unsupported value for %s (%s): %w", envName, field.Kind(), err)
}
