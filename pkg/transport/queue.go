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
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// outbound is one pending datagram: destination, optional egress
// interface for multicast sends, and payload. It exists only between
// being queued and being transmitted or dropped.
type outbound struct {
	via     *InterfaceAddr
	dst     *net.UDPAddr
	payload []byte
}

// sendQueue is the per-socket FIFO of pending sends for the event-loop
// transport. It is confined to the loop goroutine and needs no lock.
type sendQueue struct {
	entries []outbound
}

func (q *sendQueue) push(o outbound) {
	q.entries = append(q.entries, o)
}

func (q *sendQueue) empty() bool {
	return len(q.entries) == 0
}

func (q *sendQueue) len() int {
	return len(q.entries)
}

// drain attempts queued sends in order. A would-block result leaves the
// entry at the head for a later attempt, preserving order and sending
// nothing twice; any other failure drops that single entry and advances.
// Returns the number of entries taken off the queue.
func (q *sendQueue) drain(send func(outbound) error) int {
	done := 0

	for len(q.entries) > 0 {
		err := send(q.entries[0])
		if isWouldBlock(err) {
			break
		}

		// Non-would-block failures were already logged by the sender;
		// the entry is dropped either way.
		q.entries = q.entries[1:]
		done++
	}

	if len(q.entries) == 0 {
		q.entries = nil
	}

	return done
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
