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

package reconcile

import "errors"

var (
	// ErrConfigFetch wraps transport, integrity and parse failures while fetching configuration.
	ErrConfigFetch = errors.New("config fetch failed")

	errUnexpectedStatus = errors.New("unexpected status")
	errEmptyURL         = errors.New("config url is empty")
)
