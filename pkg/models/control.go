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
	"time"
)

// Action is the kind of control request a probe address accepts.
type Action string

const (
	// ActionGlobalPoll asks every enabled probe to report its status.
	ActionGlobalPoll Action = "global-poll"
	// ActionProbePoll asks one probe for its status.
	ActionProbePoll Action = "probe-poll"
	// ActionGetData asks one probe for a transient run with the supplied parameters.
	ActionGetData Action = "get-data"
)

// ControlMessage is an inbound request on the control plane.
type ControlMessage struct {
	Action    Action  `json:"action"`
	Probe     ProbeID `json:"probe,omitempty"`
	Params    Params  `json:"params,omitempty"`
	Requester string  `json:"requester,omitempty"`
	Nonce     string  `json:"nonce,omitempty"`
}

// StatusReply describes a probe's current standing. An empty Nonce means none was set.
type StatusReply struct {
	Probe     ProbeID   `json:"probe"`
	Enabled   bool      `json:"enabled"`
	State     string    `json:"state"`
	Nonce     string    `json:"nonce,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
