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

// Package relay implements the announcement-caching protocol logic: cache
// NOTIFYs, answer M-SEARCHes from the cache, and periodically re-query
// the network.
package relay

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/carverauto/upnprd/pkg/cache"
	"github.com/carverauto/upnprd/pkg/logger"
	"github.com/carverauto/upnprd/pkg/models"
	"github.com/carverauto/upnprd/pkg/ssdp"
	"github.com/carverauto/upnprd/pkg/transport"
)

const (
	// Retention is how long a device survives without a keep-alive.
	Retention = 12 * time.Hour

	// RefreshInterval is the minimum spacing between sweep-and-refresh
	// cycles. Sweeping piggybacks on incoming queries, so an idle
	// network performs no sweeping at all.
	RefreshInterval = 1800 * time.Second
)

// Engine drives one relay step per inbound datagram. It owns the device
// cache; the concurrency core decides whether steps are serialized by a
// mutex (threaded) or by goroutine confinement (event loop).
type Engine struct {
	cfg        Config
	cache      *cache.Cache
	sender     transport.Sender
	interfaces func() []transport.InterfaceAddr
	now        func() time.Time
	lastSweep  time.Time
	log        zerolog.Logger
}

func NewEngine(cfg Config, sender transport.Sender, log logger.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		cache:      cache.New(),
		sender:     sender,
		interfaces: transport.ListIPv4Interfaces,
		now:        time.Now,
		log:        log.WithComponent("relay"),
	}
}

// Bootstrap sends the initial discovery burst and arms the sweep timer.
// Called once before the receive loop starts.
func (e *Engine) Bootstrap() {
	e.lastSweep = e.now()
	e.sendSearchBurst()
}

// HandleDatagram runs the per-datagram state machine. Malformed or
// unrecognized datagrams are dropped silently; they never affect cached
// devices or the daemon's availability.
func (e *Engine) HandleDatagram(payload []byte, src *net.UDPAddr) {
	msg := ssdp.Parse(payload)

	switch msg.Kind {
	case ssdp.KindAnnouncement:
		e.handleAnnouncement(&msg, src)
	case ssdp.KindQuery:
		e.handleQuery(src)
	default:
		e.log.Debug().Str("source", src.String()).Msg("Dropping unrecognized datagram")
	}
}

func (e *Engine) handleAnnouncement(msg *ssdp.Message, src *net.UDPAddr) {
	if msg.USN == "" {
		return
	}

	if !msg.Alive {
		if e.cfg.IgnoreByeBye {
			e.log.Debug().Str("usn", msg.USN).Msg("Ignoring byebye per configuration")
			return
		}

		if e.cache.MarkByeBye(msg.USN) {
			e.log.Info().Str("usn", msg.USN).Msg("Device departed")
		}

		return
	}

	if e.cache.UpsertAlive(msg.USN, msg.ServiceType, msg.Location, src.IP, e.now()) {
		e.log.Info().
			Str("usn", msg.USN).
			Str("service_type", msg.ServiceType).
			Str("location", msg.Location).
			Str("source", src.IP.String()).
			Msg("Device is now alive")
	}
}

// handleQuery replies with every cached device the querier does not
// already know about, i.e. everything it did not announce itself. A
// record is never echoed back to its own announcer.
func (e *Engine) handleQuery(src *net.UDPAddr) {
	responses := 0

	e.cache.ForEach(func(dev *models.Device) {
		if dev.Source.Equal(src.IP) {
			return
		}

		e.sender.SendVia(nil, src, ssdp.FormatResponse(dev))
		responses++
	})

	e.log.Debug().
		Str("source", src.String()).
		Int("responses", responses).
		Msg("Answered search request from cache")

	e.maybeSweep()
}

// maybeSweep runs the expiry sweep and a fresh discovery burst, rate
// limited to once per RefreshInterval. Invoked opportunistically from
// query handling rather than on a timer; an idle network sweeps nothing.
func (e *Engine) maybeSweep() {
	now := e.now()
	if now.Sub(e.lastSweep) < RefreshInterval {
		return
	}

	e.lastSweep = now

	if removed := e.cache.SweepExpired(now, Retention); removed > 0 {
		e.log.Info().Int("removed", removed).Msg("Evicted expired devices")
	}

	e.sendSearchBurst()
}

// sendSearchBurst fans the fixed M-SEARCH query out every local
// interface, re-enumerating interfaces for freshness. This picks up
// devices that answer queries but never announce spontaneously.
func (e *Engine) sendSearchBurst() {
	ifaces := e.interfaces()

	for i := range ifaces {
		e.sender.SendVia(&ifaces[i], ssdp.GroupAddr, ssdp.SearchMessage)
	}

	e.log.Debug().Int("interfaces", len(ifaces)).Msg("Sent discovery burst")
}

// DeviceCount reports the current cache size.
func (e *Engine) DeviceCount() int {
	return e.cache.Len()
}
