//----------------------------------------------------------------------
// This file is part of srvweb.
// Copyright (C) 2025-present Bernd Fix   >Y<
//
// srvweb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// srvweb is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package srvweb

import (
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"
)

// default address handed out by the simulated lease
var simLeaseAddr = netip.AddrFrom4([4]byte{192, 168, 1, 23})

// SimDevice is a scriptable in-memory radio. The host target runs on it
// and tests use it to model interface behavior: delays before the
// lifecycle events, failures on demand, or phases that never complete.
// The zero script associates and leases immediately.
type SimDevice struct {
	JoinAfter  time.Duration // delay until association completes
	LeaseAfter time.Duration // delay between association and lease
	StartAfter time.Duration // delay until hosting is live (access-point)
	LeaseAddr  netip.Addr    // leased address (default 192.168.1.23)

	FailConfigure error // returned by Configure
	FailStart     error // returned by Start
	Fault         error // emitted as fault event after FaultAfter
	FaultAfter    time.Duration
	NoJoin        bool // never associate
	NoLease       bool // associate, but never hand out an address

	mu     sync.Mutex
	cfg    Config
	calls  []string
	leds   []bool
	closed bool
	events chan Event
}

// NewSimDevice creates a simulated radio with the zero script.
func NewSimDevice() *SimDevice {
	return &SimDevice{
		LeaseAddr: simLeaseAddr,
		events:    make(chan Event, 4),
	}
}

// Configure applies the network settings.
func (dev *SimDevice) Configure(cfg Config) error {
	dev.record("configure")
	if dev.FailConfigure != nil {
		return dev.FailConfigure
	}
	dev.mu.Lock()
	dev.cfg = cfg
	dev.mu.Unlock()
	return nil
}

// Start activates the scripted interface lifecycle.
func (dev *SimDevice) Start() error {
	dev.record("start")
	if dev.FailStart != nil {
		return dev.FailStart
	}
	go dev.run()
	return nil
}

// run plays the script and emits lifecycle events.
func (dev *SimDevice) run() {
	if dev.Fault != nil {
		time.Sleep(dev.FaultAfter)
		dev.emit(Event{Kind: EventFault, Err: dev.Fault})
		return
	}
	dev.mu.Lock()
	mode := dev.cfg.Mode
	dev.mu.Unlock()
	if mode == ModeAccessPoint {
		time.Sleep(dev.StartAfter)
		dev.emit(Event{Kind: EventStarted})
		return
	}
	if dev.NoJoin {
		return
	}
	time.Sleep(dev.JoinAfter)
	dev.emit(Event{Kind: EventJoined})
	if dev.NoLease {
		return
	}
	time.Sleep(dev.LeaseAfter)
	dev.emit(Event{Kind: EventLeased, Addr: dev.LeaseAddr})
}

// Events is the lifecycle event feed.
func (dev *SimDevice) Events() <-chan Event {
	return dev.events
}

// Listen opens a TCP listener on the host stack. Port 0 picks an
// ephemeral port.
func (dev *SimDevice) Listen(port uint16) (net.Listener, error) {
	return net.Listen("tcp", fmt.Sprintf(":%d", port))
}

// LED records the requested state.
func (dev *SimDevice) LED(on bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.leds = append(dev.leds, on)
}

// Close deactivates the interface.
func (dev *SimDevice) Close() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.closed = true
	return nil
}

// Calls lists the driver operations in call order.
func (dev *SimDevice) Calls() []string {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	out := make([]string, len(dev.calls))
	copy(out, dev.calls)
	return out
}

// Closed reports whether the interface was deactivated.
func (dev *SimDevice) Closed() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.closed
}

// LEDs lists the recorded LED states in call order.
func (dev *SimDevice) LEDs() []bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	out := make([]bool, len(dev.leds))
	copy(out, dev.leds)
	return out
}

func (dev *SimDevice) record(op string) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.calls = append(dev.calls, op)
}

// emit delivers an event without blocking; a full feed drops it.
func (dev *SimDevice) emit(ev Event) {
	select {
	case dev.events <- ev:
	default:
	}
}
