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
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/carverauto/upnprd/pkg/logger"
	"github.com/carverauto/upnprd/pkg/ssdp"
)

// EventLoopTransport backs the single-threaded cooperative core: one
// goroutine multiplexes the non-blocking SSDP socket over readability
// and, while sends are pending, writability. Outbound datagrams are never
// sent synchronously; SendVia appends to the FIFO send queue and the loop
// drains it whenever the socket is writable.
type EventLoopTransport struct {
	fd    int
	queue sendQueue
	log   zerolog.Logger
}

// NewEventLoop builds the non-blocking SSDP socket. Each construction
// step has its own fatal exit status: socket creation, socket options,
// bind. Multicast joins are soft failures retried once per interface.
func NewEventLoop(log logger.Logger) (*EventLoopTransport, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreate, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrSocketOption, err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrSocketOption, err)
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: ssdp.Port}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrBind, err)
	}

	t := &EventLoopTransport{
		fd:  fd,
		log: log.WithComponent("transport"),
	}

	t.joinGroups()

	return t, nil
}

func (t *EventLoopTransport) joinGroups() {
	for _, ia := range ListIPv4Interfaces() {
		mreq := &unix.IPMreq{
			Multiaddr: ip4bytes(ssdp.GroupIP),
			Interface: ip4bytes(ia.IP),
		}

		err := unix.SetsockoptIPMreq(t.fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq)
		if err != nil {
			// Some routers and drivers transiently fail the first join.
			err = unix.SetsockoptIPMreq(t.fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq)
		}

		if err != nil {
			t.log.Warn().Err(err).
				Str("interface", ia.Interface.Name).
				Msg("Failed to join multicast group, skipping interface")

			continue
		}

		t.log.Debug().
			Str("interface", ia.Interface.Name).
			Str("ip", ia.IP.String()).
			Msg("Joined multicast group")
	}
}

// SendVia queues one datagram for transmission. The queue preserves FIFO
// order; burst-send latency is proportional to queue depth.
func (t *EventLoopTransport) SendVia(via *InterfaceAddr, dst *net.UDPAddr, payload []byte) {
	t.queue.push(outbound{via: via, dst: dst, payload: payload})
}

// Run is the event loop. handle is invoked synchronously for every
// inbound datagram; the passed payload aliases an internal buffer that is
// reused after handle returns, which is safe because processing is
// strictly sequential. Run only returns on a fatal receive or poll
// failure.
func (t *EventLoopTransport) Run(handle func(payload []byte, src *net.UDPAddr)) error {
	buf := make([]byte, MaxDatagramSize)

	for {
		fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
		if !t.queue.empty() {
			fds[0].Events |= unix.POLLOUT
		}

		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}

			return fmt.Errorf("%w: poll: %w", ErrReceive, err)
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			if err := t.receiveReady(buf, handle); err != nil {
				return err
			}
		}

		if fds[0].Revents&unix.POLLOUT != 0 {
			t.queue.drain(t.sendNow)
		}
	}
}

// receiveReady drains every datagram the socket has ready. EAGAIN is not
// an error, it just re-arms the poll; anything else is fatal.
func (t *EventLoopTransport) receiveReady(buf []byte, handle func([]byte, *net.UDPAddr)) error {
	for {
		n, from, err := unix.Recvfrom(t.fd, buf, 0)
		if err != nil {
			if isWouldBlock(err) {
				return nil
			}

			if err == unix.EINTR {
				continue
			}

			return fmt.Errorf("%w: %w", ErrReceive, err)
		}

		sa, ok := from.(*unix.SockaddrInet4)
		if !ok {
			continue
		}

		src := &net.UDPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}

		handle(buf[:n], src)
	}
}

// sendNow performs one non-blocking send. A would-block result is
// reported to the queue so the entry stays at the head; any other failure
// is logged here and the entry dropped by the queue.
func (t *EventLoopTransport) sendNow(o outbound) error {
	if o.via != nil && o.dst.IP.IsMulticast() {
		err := unix.SetsockoptInet4Addr(t.fd, unix.IPPROTO_IP, unix.IP_MULTICAST_IF, ip4bytes(o.via.IP))
		if err != nil {
			t.log.Warn().Err(err).
				Str("interface", o.via.Interface.Name).
				Msg("Failed to select multicast egress interface, dropping send")

			return err
		}
	}

	sa := &unix.SockaddrInet4{Port: o.dst.Port, Addr: ip4bytes(o.dst.IP)}

	err := unix.Sendto(t.fd, o.payload, 0, sa)
	if err != nil && !isWouldBlock(err) {
		t.log.Warn().Err(err).
			Str("destination", o.dst.String()).
			Msg("Send failed, dropping datagram")
	}

	return err
}

func (t *EventLoopTransport) Close() error {
	return unix.Close(t.fd)
}

func ip4bytes(ip net.IP) (a [4]byte) {
	copy(a[:], ip.To4())
	return a
}
