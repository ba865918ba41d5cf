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
	"net"
	"sync"

	"github.com/carverauto/upnprd/pkg/transport"
)

// Receiver is the blocking receive primitive of the thread-per-datagram
// core.
type Receiver interface {
	Receive(buf []byte) (int, *net.UDPAddr, error)
}

// RunThreaded is the thread-per-datagram concurrency core: the receive
// loop stays on the calling goroutine and every inbound datagram gets its
// own worker, so a slow send never blocks reception. A single mutex
// serializes engine steps; cache mutation and the full respond pass are
// one critical section each. Workers are unbounded and detached. Returns
// only on a fatal receive failure.
func RunThreaded(rcv Receiver, eng *Engine) error {
	var mu sync.Mutex

	buf := make([]byte, transport.MaxDatagramSize)

	for {
		n, src, err := rcv.Receive(buf)
		if err != nil {
			return err
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		go func() {
			mu.Lock()
			defer mu.Unlock()

			eng.HandleDatagram(payload, src)
		}()
	}
}

// RunEventLoop is the single-threaded cooperative core: the transport's
// poll loop invokes the engine inline, so cache access needs no lock, and
// all sends go through the transport's FIFO queue. Returns only on a
// fatal receive failure.
func RunEventLoop(t *transport.EventLoopTransport, eng *Engine) error {
	return t.Run(eng.HandleDatagram)
}
