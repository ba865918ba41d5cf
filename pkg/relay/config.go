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

package relay

import (
	"fmt"

	"github.com/carverauto/upnprd/pkg/logger"
)

// Concurrency core modes. This is a deployment-time choice, not a
// runtime one.
const (
	// ModeEventLoop runs a single goroutine multiplexing the socket with
	// an outbound send queue: predictable, bounded resource usage.
	ModeEventLoop = "eventloop"

	// ModeThreaded dispatches each inbound datagram to its own goroutine
	// with the cache behind a mutex: favors responsiveness under slow
	// sends. SSDP traffic volume makes the unbounded spawn acceptable.
	ModeThreaded = "threaded"
)

var errInvalidMode = fmt.Errorf("mode must be %q or %q", ModeEventLoop, ModeThreaded)

// Config holds the startup-time settings of the relay daemon.
type Config struct {
	// Mode selects the concurrency core.
	Mode string `json:"mode"`

	// IgnoreByeBye disables removal on ssdp:byebye announcements. Some
	// announcers falsely claim byebye while remaining reachable; with
	// this set their records survive until TTL expiry instead.
	IgnoreByeBye bool `json:"ignore_byebye"`

	Logging *logger.Config `json:"logging,omitempty"`
}

func DefaultConfig() Config {
	return Config{Mode: ModeEventLoop}
}

func (c *Config) Validate() error {
	if c.Mode == "" {
		c.Mode = ModeEventLoop
	}

	if c.Mode != ModeEventLoop && c.Mode != ModeThreaded {
		return fmt.Errorf("%w, got %q", errInvalidMode, c.Mode)
	}

	return nil
}
