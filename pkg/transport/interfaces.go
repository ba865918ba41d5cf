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

// Package transport owns the UDP multicast socket of the relay daemon.
//
// Two implementations back the two concurrency strategies: a blocking
// transport for the thread-per-datagram core and a non-blocking poll-based
// transport with an outbound FIFO queue for the single-threaded core.
package transport

import "net"

// MaxDatagramSize bounds one SSDP datagram. Real-world announcements stay
// well under this.
const MaxDatagramSize = 2048

// InterfaceAddr is one usable local IPv4 interface: the interface itself
// for golang.org/x/net/ipv4 joins and egress selection, and its first
// IPv4 address for the raw socket options of the event-loop transport.
type InterfaceAddr struct {
	Interface *net.Interface
	IP        net.IP
}

// Sender transmits one datagram. A non-nil via tags a multicast send with
// its egress interface. Implementations never fail the caller: the
// blocking transport logs and drops failed sends, the event-loop transport
// queues and retries would-block results in FIFO order.
type Sender interface {
	SendVia(via *InterfaceAddr, dst *net.UDPAddr, payload []byte)
}

// ListIPv4Interfaces enumerates the local IPv4-capable interfaces that are
// up. The list is re-evaluated on every call because interfaces come and
// go; an error or an empty result is not fatal and simply yields no
// additional memberships or query fan-out.
func ListIPv4Interfaces() []InterfaceAddr {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []InterfaceAddr

	for i := range ifaces {
		ifi := &ifaces[i]
		if ifi.Flags&net.FlagUp == 0 {
			continue
		}

		ip := firstIPv4Addr(ifi)
		if ip == nil {
			continue
		}

		out = append(out, InterfaceAddr{Interface: ifi, IP: ip})
	}

	return out
}

// firstIPv4Addr returns the first IPv4 address assigned to the interface,
// or nil if it has none.
func firstIPv4Addr(ifi *net.Interface) net.IP {
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil
	}

	for _, addr := range addrs {
		var ip net.IP

		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}

		if ip4 := ip.To4(); ip4 != nil {
			return ip4
		}
	}

	return nil
}
