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

// Package models contains the shared data types of the relay daemon.
package models

import (
	"net"
	"time"
)

// Device is one cached UPnP service announcement, keyed by its USN.
//
// USN, ServiceType, Location and Source are fixed at creation; only
// LastSeen is refreshed by subsequent keep-alives.
type Device struct {
	// USN is the Unique Service Name from the announcement. Never empty
	// for a cached device and never changes after creation.
	USN string

	// ServiceType is the NT (announcements) or ST (search responses)
	// header value. May be empty.
	ServiceType string

	// Location is the device description URL. May be empty.
	Location string

	// Source is the IPv4 address the announcement was received from.
	// Used to avoid reflecting a device back to its own announcer.
	Source net.IP

	// LastSeen is refreshed on every keep-alive and drives expiry.
	LastSeen time.Time
}
