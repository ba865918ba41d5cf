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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func queuedSend(dst string) outbound {
	return outbound{
		dst:     &net.UDPAddr{IP: net.ParseIP(dst), Port: 1900},
		payload: []byte(dst),
	}
}

func TestDrainWouldBlockPreservesOrder(t *testing.T) {
	q := &sendQueue{}
	q.push(queuedSend("10.0.0.1"))
	q.push(queuedSend("10.0.0.2"))
	q.push(queuedSend("10.0.0.3"))

	var sent []string

	blockFirst := true
	send := func(o outbound) error {
		if blockFirst && o.dst.IP.String() == "10.0.0.1" {
			blockFirst = false
			return unix.EAGAIN
		}

		sent = append(sent, o.dst.IP.String())

		return nil
	}

	// First pass: the head would-block, so nothing may be sent yet.
	done := q.drain(send)
	assert.Zero(t, done)
	assert.Empty(t, sent)
	assert.Equal(t, 3, q.len())

	// Retry pass: all three go out in FIFO order, none twice.
	done = q.drain(send)
	assert.Equal(t, 3, done)
	require.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, sent)
	assert.True(t, q.empty())
}

func TestDrainDropsFailedEntryAndAdvances(t *testing.T) {
	q := &sendQueue{}
	q.push(queuedSend("10.0.0.1"))
	q.push(queuedSend("10.0.0.2"))

	var sent []string

	send := func(o outbound) error {
		if o.dst.IP.String() == "10.0.0.1" {
			return errors.New("network is unreachable")
		}

		sent = append(sent, o.dst.IP.String())

		return nil
	}

	// A non-would-block failure drops that single entry only.
	done := q.drain(send)
	assert.Equal(t, 2, done)
	assert.Equal(t, []string{"10.0.0.2"}, sent)
	assert.True(t, q.empty())
}

func TestDrainEmptyQueue(t *testing.T) {
	q := &sendQueue{}

	done := q.drain(func(outbound) error {
		t.Fatal("send must not be called on an empty queue")
		return nil
	})

	assert.Zero(t, done)
}

func TestIsWouldBlock(t *testing.T) {
	assert.True(t, isWouldBlock(unix.EAGAIN))
	assert.True(t, isWouldBlock(unix.EWOULDBLOCK))
	assert.False(t, isWouldBlock(nil))
	assert.False(t, isWouldBlock(errors.New("boom")))
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrSocketCreate, ExitSocketCreate},
		{ErrSocketOption, ExitSocketOption},
		{ErrBind, ExitBind},
		{ErrReceive, ExitReceive},
		{errors.New("anything else"), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, ExitCode(tt.err))
	}
}
