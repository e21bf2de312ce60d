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

package dispatch

import (
	"strings"

	"github.com/carverauto/fieldprobe/pkg/models"
)

// SubjectRoot prefixes every control, reply and data subject.
const SubjectRoot = "fieldprobe"

// Kind is the request kind a control address accepts.
type Kind int

const (
	KindGlobalPoll Kind = iota
	KindPoll
	KindGet
)

func (k Kind) String() string {
	switch k {
	case KindGlobalPoll:
		return "global-poll"
	case KindPoll:
		return "poll"
	case KindGet:
		return "get"
	default:
		return "unknown"
	}
}

// Action is the control action a request on an address of this kind performs.
func (k Kind) Action() models.Action {
	switch k {
	case KindGlobalPoll:
		return models.ActionGlobalPoll
	case KindPoll:
		return models.ActionProbePoll
	case KindGet:
		return models.ActionGetData
	default:
		return ""
	}
}

// Address returns the control subject for probe and kind. The global-poll address does
// not depend on probe.
func Address(probe models.ProbeID, kind Kind) string {
	switch kind {
	case KindGlobalPoll:
		return SubjectRoot + ".poll"
	case KindPoll:
		return SubjectRoot + ".probe." + Token(string(probe)) + ".poll"
	case KindGet:
		return SubjectRoot + ".probe." + Token(string(probe)) + ".get"
	default:
		return ""
	}
}

// DataAddress is the subject a probe's data messages are published on.
func DataAddress(probe models.ProbeID) string {
	return SubjectRoot + ".probe." + Token(string(probe)) + ".data"
}

// ReplyAddress is the subject status replies for requester are delivered on.
func ReplyAddress(requester string) string {
	return SubjectRoot + ".reply." + Token(requester) + ".status"
}

// Token turns an identifier into a single subject token. Letters, digits and '-'
// pass through; every other byte, '_' included, becomes '_' followed by two hex
// digits, so distinct identifiers never share a token.
func Token(id string) string {
	if id == "" {
		return "_"
	}

	const hexDigits = "0123456789abcdef"

	var b strings.Builder

	b.Grow(len(id))

	for i := 0; i < len(id); i++ {
		c := id[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}

	return b.String()
}
