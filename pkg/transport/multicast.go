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

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/carverauto/upnprd/pkg/logger"
	"github.com/carverauto/upnprd/pkg/ssdp"
)

// BlockingTransport backs the thread-per-datagram core. Receives block on
// the socket; sends are ordinary blocking writes performed on whichever
// goroutine calls SendVia.
type BlockingTransport struct {
	conn net.PacketConn
	pc   *ipv4.PacketConn
	log  zerolog.Logger
}

// NewBlocking creates the SSDP socket bound to 0.0.0.0:1900 with
// SO_REUSEADDR and joins the multicast group on every local IPv4
// interface. Join failures on a subset of interfaces are logged and
// skipped after one retry; failures to construct or bind the socket are
// fatal and carry a per-site exit status.
func NewBlocking(log logger.Logger) (*BlockingTransport, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}

	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", ssdp.Port))
	if err != nil {
		return nil, classifyListenError(err)
	}

	if udp, ok := conn.(*net.UDPConn); ok {
		_ = udp.SetReadBuffer(1 << 16)
	}

	t := &BlockingTransport{
		conn: conn,
		pc:   ipv4.NewPacketConn(conn),
		log:  log.WithComponent("transport"),
	}

	group := &net.UDPAddr{IP: ssdp.GroupIP}

	for _, ia := range ListIPv4Interfaces() {
		if err := t.pc.JoinGroup(ia.Interface, group); err != nil {
			// Some routers and drivers transiently fail the first join.
			if err = t.pc.JoinGroup(ia.Interface, group); err != nil {
				t.log.Warn().Err(err).
					Str("interface", ia.Interface.Name).
					Msg("Failed to join multicast group, skipping interface")

				continue
			}
		}

		t.log.Debug().
			Str("interface", ia.Interface.Name).
			Str("ip", ia.IP.String()).
			Msg("Joined multicast group")
	}

	return t, nil
}

// Receive blocks until a datagram arrives. Any receive error is fatal:
// without the listening socket there is no degraded mode.
func (t *BlockingTransport) Receive(buf []byte) (int, *net.UDPAddr, error) {
	n, src, err := t.conn.ReadFrom(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrReceive, err)
	}

	udpSrc, ok := src.(*net.UDPAddr)
	if !ok {
		return 0, nil, fmt.Errorf("%w: unexpected source address %v", ErrReceive, src)
	}

	return n, udpSrc, nil
}

// SendVia transmits one datagram, selecting the multicast egress
// interface when via is non-nil. Send failures are logged and the
// datagram dropped; a failed send never terminates the daemon.
func (t *BlockingTransport) SendVia(via *InterfaceAddr, dst *net.UDPAddr, payload []byte) {
	if via != nil && dst.IP.IsMulticast() {
		if err := t.pc.SetMulticastInterface(via.Interface); err != nil {
			t.log.Warn().Err(err).
				Str("interface", via.Interface.Name).
				Msg("Failed to select multicast egress interface, dropping send")

			return
		}
	}

	if _, err := t.conn.WriteTo(payload, dst); err != nil {
		t.log.Warn().Err(err).
			Str("destination", dst.String()).
			Msg("Send failed, dropping datagram")
	}
}

func (t *BlockingTransport) Close() error {
	return t.conn.Close()
}

// reuseAddrControl sets SO_REUSEADDR before bind so the daemon can share
// the SSDP port with other multicast listeners on the host.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var optErr error

	err := c.Control(func(fd uintptr) {
		optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSocketOption, err)
	}

	if optErr != nil {
		return fmt.Errorf("%w: %w", ErrSocketOption, optErr)
	}

	return nil
}

// classifyListenError assigns a ListenPacket failure to its fatal site so
// the process can exit with the matching status.
func classifyListenError(err error) error {
	if errors.Is(err, ErrSocketOption) {
		return err
	}

	if errors.Is(err, unix.EADDRINUSE) || errors.Is(err, unix.EACCES) || errors.Is(err, unix.EADDRNOTAVAIL) {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}

	return fmt.Errorf("%w: %w", ErrSocketCreate, err)
}
