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

package cache

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/upnprd/pkg/models"
)

const retention = 12 * time.Hour

func TestUpsertAliveIdempotentKeepAlive(t *testing.T) {
	c := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := net.IPv4(10, 0, 0, 5)

	created := c.UpsertAlive("uuid:abc", "urn:foo", "http://10.0.0.5/d.xml", src, base)
	require.True(t, created)

	// Later keep-alives report different descriptive values; first-seen
	// wins for everything but LastSeen.
	for i := 1; i <= 5; i++ {
		created = c.UpsertAlive("uuid:abc", "urn:other", "http://10.9.9.9/x.xml",
			net.IPv4(10, 9, 9, 9), base.Add(time.Duration(i)*time.Minute))
		assert.False(t, created)
	}

	require.Equal(t, 1, c.Len())

	dev := c.Lookup("uuid:abc")
	require.NotNil(t, dev)
	assert.Equal(t, "urn:foo", dev.ServiceType)
	assert.Equal(t, "http://10.0.0.5/d.xml", dev.Location)
	assert.True(t, dev.Source.Equal(src))
	assert.Equal(t, base.Add(5*time.Minute), dev.LastSeen)
}

func TestUpsertAliveLastSeenMonotonic(t *testing.T) {
	c := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.UpsertAlive("uuid:abc", "", "", nil, base)
	// A keep-alive with an older timestamp must not move LastSeen back.
	c.UpsertAlive("uuid:abc", "", "", nil, base.Add(-time.Hour))

	assert.Equal(t, base, c.Lookup("uuid:abc").LastSeen)
}

func TestMarkByeBye(t *testing.T) {
	c := New()
	now := time.Now()

	c.UpsertAlive("uuid:abc", "urn:foo", "", nil, now)
	c.UpsertAlive("uuid:def", "urn:bar", "", nil, now)

	assert.True(t, c.MarkByeBye("uuid:abc"))
	assert.Nil(t, c.Lookup("uuid:abc"))
	assert.Equal(t, 1, c.Len())

	// Unknown USN leaves the cache unchanged.
	assert.False(t, c.MarkByeBye("uuid:unknown"))
	assert.Equal(t, 1, c.Len())
}

func TestSweepExpiredBoundary(t *testing.T) {
	c := New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.UpsertAlive("uuid:stale", "", "", nil, now.Add(-retention-time.Second))
	c.UpsertAlive("uuid:fresh", "", "", nil, now.Add(-11*time.Hour-59*time.Minute))

	removed := c.SweepExpired(now, retention)

	assert.Equal(t, 1, removed)
	assert.Nil(t, c.Lookup("uuid:stale"))
	assert.NotNil(t, c.Lookup("uuid:fresh"))
}

func TestSweepExpiredEmptyCache(t *testing.T) {
	c := New()

	assert.Zero(t, c.SweepExpired(time.Now(), retention))
}

func TestForEachVisitsAll(t *testing.T) {
	c := New()
	now := time.Now()

	for i := 0; i < 10; i++ {
		c.UpsertAlive(fmt.Sprintf("uuid:%d", i), "urn:foo", "", nil, now)
	}

	seen := make(map[string]bool)
	c.ForEach(func(dev *models.Device) {
		seen[dev.USN] = true
	})

	assert.Len(t, seen, 10)
}
