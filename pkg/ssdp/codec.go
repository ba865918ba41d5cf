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

package ssdp

import (
	"fmt"
	"strings"

	"github.com/carverauto/upnprd/pkg/models"
)

// Parse classifies a raw datagram by its request/status line and extracts
// the headers the relay cares about. Anything that is not a NOTIFY, an
// M-SEARCH or an HTTP 200 search response comes back as KindUnrecognized.
func Parse(raw []byte) Message {
	s := string(raw)

	switch {
	case strings.HasPrefix(s, "NOTIFY "), strings.HasPrefix(s, "HTTP/1.1 200"):
		return parseAnnouncement(s)
	case strings.HasPrefix(s, "M-SEARCH "):
		return Message{Kind: KindQuery}
	default:
		return Message{Kind: KindUnrecognized}
	}
}

func parseAnnouncement(s string) Message {
	st := headerValue(s, "NT")
	if st == "" {
		// Search responses carry the service type in ST instead of NT.
		st = headerValue(s, "ST")
	}

	// A missing or unrecognized NTS means alive; only an explicit
	// byebye marks departure.
	alive := !strings.HasPrefix(headerValue(s, "NTS"), "ssdp:byebye")

	return Message{
		Kind:        KindAnnouncement,
		USN:         headerValue(s, "USN"),
		ServiceType: st,
		Location:    headerValue(s, "LOCATION"),
		Alive:       alive,
	}
}

// headerValue returns the value of the named header, or "" if absent.
// The match is case-insensitive and anchored at the start of a line, and
// requires the full header name followed by ": " so that a header name
// occurring inside another value or a body never matches. The value is
// truncated at the first carriage return.
func headerValue(s, name string) string {
	for len(s) > 0 {
		line := s

		if i := strings.IndexByte(s, '\n'); i >= 0 {
			line = s[:i]
			s = s[i+1:]
		} else {
			s = ""
		}

		if len(line) < len(name)+2 {
			continue
		}

		if !strings.EqualFold(line[:len(name)], name) || line[len(name):len(name)+2] != ": " {
			continue
		}

		value := line[len(name)+2:]
		if i := strings.IndexByte(value, '\r'); i >= 0 {
			value = value[:i]
		}

		return value
	}

	return ""
}

// FormatResponse serializes a cached device as an M-SEARCH response.
// Third-party control points parse this, so the layout follows the
// standard discovery-response syntax exactly: CRLF-terminated headers and
// a trailing blank line.
func FormatResponse(dev *models.Device) []byte {
	return fmt.Appendf(nil,
		"HTTP/1.1 200 OK\r\n"+
			"LOCATION: %s\r\n"+
			"SERVER: %s\r\n"+
			"CACHE-CONTROL: max-age=1800\r\n"+
			"EXT:\r\n"+
			"ST: %s\r\n"+
			"USN: %s\r\n\r\n",
		dev.Location, serverIdentity, dev.ServiceType, dev.USN)
}
