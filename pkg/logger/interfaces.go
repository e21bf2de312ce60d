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

package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the logging surface injected into every component.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	// Scoped returns a Logger whose events all carry key=value.
	Scoped(key, value string) Logger
	SetLevel(level zerolog.Level)
}

// Wrap adapts a zerolog.Logger to Logger.
func Wrap(l zerolog.Logger) Logger {
	return &zeroLogger{l: l}
}

// NewTestLogger returns a Logger that discards everything.
func NewTestLogger() Logger {
	return Wrap(zerolog.New(io.Discard).Level(zerolog.Disabled))
}

type zeroLogger struct {
	l zerolog.Logger
}

func (z *zeroLogger) Debug() *zerolog.Event { return z.l.Debug() }
func (z *zeroLogger) Info() *zerolog.Event  { return z.l.Info() }
func (z *zeroLogger) Warn() *zerolog.Event  { return z.l.Warn() }
func (z *zeroLogger) Error() *zerolog.Event { return z.l.Error() }
func (z *zeroLogger) With() zerolog.Context { return z.l.With() }

func (z *zeroLogger) WithComponent(component string) zerolog.Logger {
	return z.l.With().Str("component", component).Logger()
}

func (z *zeroLogger) Scoped(key, value string) Logger {
	return Wrap(z.l.With().Str(key, value).Logger())
}

func (z *zeroLogger) SetLevel(level zerolog.Level) { z.l = z.l.Level(level) }
