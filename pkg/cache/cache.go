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

// Package cache holds the in-memory table of known devices, keyed by USN.
package cache

import (
	"net"
	"time"

	"github.com/carverauto/upnprd/pkg/models"
)

// sweepBatchSize bounds how many entries a single SweepExpired call
// examines, so a sweep cannot stall relay processing on a large cache.
const sweepBatchSize = 1024

// Cache is not safe for concurrent use. The concurrency core decides the
// locking discipline: the thread-per-datagram runner serializes all access
// behind one mutex, the event-loop runner confines the cache to a single
// goroutine.
type Cache struct {
	devices map[string]*models.Device
}

func New() *Cache {
	return &Cache{devices: make(map[string]*models.Device)}
}

// UpsertAlive records a keep-alive for usn. For a known device only
// LastSeen is refreshed; the descriptive fields keep their first-seen
// values even if a later announcement reports different ones. Returns
// true if a new record was created.
func (c *Cache) UpsertAlive(usn, serviceType, location string, source net.IP, now time.Time) bool {
	if dev, ok := c.devices[usn]; ok {
		if now.After(dev.LastSeen) {
			dev.LastSeen = now
		}

		return false
	}

	c.devices[usn] = &models.Device{
		USN:         usn,
		ServiceType: serviceType,
		Location:    location,
		Source:      source,
		LastSeen:    now,
	}

	return true
}

// MarkByeBye removes the device announced as departing. Unknown USNs are
// a no-op. Returns true if a record was removed.
func (c *Cache) MarkByeBye(usn string) bool {
	if _, ok := c.devices[usn]; !ok {
		return false
	}

	delete(c.devices, usn)

	return true
}

// Lookup returns the record for usn, or nil. Callers must not retain the
// returned record across calls; the cache owns it.
func (c *Cache) Lookup(usn string) *models.Device {
	return c.devices[usn]
}

// SweepExpired removes devices whose LastSeen is older than retention.
// At most sweepBatchSize entries are examined per invocation; a very
// large cache is drained over successive sweeps instead of blocking one.
func (c *Cache) SweepExpired(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)
	removed := 0
	examined := 0

	for usn, dev := range c.devices {
		if examined++; examined > sweepBatchSize {
			break
		}

		if dev.LastSeen.Before(cutoff) {
			delete(c.devices, usn)
			removed++
		}
	}

	return removed
}

// ForEach visits every cached device in unspecified order. The visited
// records must not be mutated or retained.
func (c *Cache) ForEach(visit func(*models.Device)) {
	for _, dev := range c.devices {
		visit(dev)
	}
}

func (c *Cache) Len() int {
	return len(c.devices)
}
