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

package transport

import "errors"

// There is no degraded mode without the listening socket, so each of these
// aborts the process. Sends never do.
var (
	ErrSocketCreate = errors.New("failed to create SSDP socket")
	ErrSocketOption = errors.New("failed to set SSDP socket option")
	ErrBind         = errors.New("failed to bind SSDP port")
	ErrReceive      = errors.New("fatal receive failure on SSDP socket")
)

// Exit statuses per fatal failure site. These are operability signals for
// process supervisors, not part of the protocol.
const (
	ExitSocketCreate = 2
	ExitSocketOption = 3
	ExitBind         = 4
	ExitReceive      = 5
)

// ExitCode maps a fatal transport error to its process exit status.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, ErrSocketCreate):
		return ExitSocketCreate
	case errors.Is(err, ErrSocketOption):
		return ExitSocketOption
	case errors.Is(err, ErrBind):
		return ExitBind
	case errors.Is(err, ErrReceive):
		return ExitReceive
	default:
		return 1
	}
}
