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

package probe

import "errors"

var (
	// ErrCapabilityUnavailable is returned by Enable when a required capability is missing.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	// ErrStopTimeout reports a worker that did not exit within the stop bound.
	ErrStopTimeout = errors.New("probe worker did not stop in time")
	// ErrDuplicateProbe is returned when two probes share an id.
	ErrDuplicateProbe = errors.New("duplicate probe id")
	// ErrStopped is returned for operations on a stopped probe.
	ErrStopped = errors.New("probe stopped")

	errEmptyProbeID = errors.New("probe id is required")
)
