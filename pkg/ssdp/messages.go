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

// Package ssdp parses and formats SSDP discovery datagrams.
package ssdp

import "net"

const (
	// MulticastAddrString is the well-known SSDP multicast group and port.
	MulticastAddrString = "239.255.255.250:1900"

	// Port is the well-known SSDP port.
	Port = 1900

	serverIdentity = "UPnP Cache"
)

// GroupIP is the SSDP multicast group address.
var GroupIP = net.IPv4(239, 255, 255, 250)

// GroupAddr is the SSDP multicast destination for queries and announcements.
var GroupAddr = &net.UDPAddr{IP: GroupIP, Port: Port}

// SearchMessage is the active discovery query sent out every local
// interface at startup and on each periodic refresh.
var SearchMessage = []byte("M-SEARCH * HTTP/1.1\r\n" +
	"HOST: 239.255.255.250:1900\r\n" +
	"MAN: \"ssdp:discover\"\r\n" +
	"MX: 5\r\n" +
	"ST: ssdp:all\r\n\r\n")

// Kind classifies an inbound SSDP datagram.
type Kind int

const (
	// KindUnrecognized marks datagrams that are neither announcements
	// nor queries. They are dropped.
	KindUnrecognized Kind = iota

	// KindAnnouncement covers unsolicited NOTIFY messages and HTTP 200
	// responses to an active M-SEARCH. Both carry cacheable device data.
	KindAnnouncement

	// KindQuery is an M-SEARCH discovery request.
	KindQuery
)

// Message is the parsed form of an inbound datagram. USN, ServiceType,
// Location and Alive are only meaningful for KindAnnouncement.
type Message struct {
	Kind        Kind
	USN         string
	ServiceType string
	Location    string
	Alive       bool
}
