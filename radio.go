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
	"net"
	"net/netip"
	"sync/atomic"
)

//----------------------------------------------------------------------
// Interface lifecycle events
//----------------------------------------------------------------------

// EventKind tags a lifecycle event of the radio interface.
type EventKind uint8

const (
	// EventFault reports a device failure; Err carries the cause.
	EventFault EventKind = iota

	// EventStarted: hosting is live (access-point mode).
	EventStarted

	// EventJoined: link-layer association complete (station mode).
	EventJoined

	// EventLeased: network address acquired (station mode); Addr is set.
	EventLeased
)

// Event is delivered by a device while the interface comes up.
type Event struct {
	Kind EventKind
	Addr netip.Addr // EventLeased only
	Err  error      // EventFault only
}

//----------------------------------------------------------------------
// Radio device abstraction
//----------------------------------------------------------------------

// Device is the hardware behind a radio interface. Implementations exist
// for the Raspberry Pi Pico 2 W, for boards with a WiFiNINA co-processor
// and for plain hosts (simulated radio).
type Device interface {
	// Configure applies the network settings. Called once, before Start.
	Configure(cfg Config) error

	// Start activates the radio. Association and address acquisition
	// proceed in the background; progress arrives on the event feed.
	Start() error

	// Events is the lifecycle event feed of the interface.
	Events() <-chan Event

	// Listen opens a TCP listener on the interface once it is up.
	Listen(port uint16) (net.Listener, error)

	// LED switches the board LED (if any) on or off.
	LED(on bool)

	// Close deactivates the interface.
	Close() error
}

//----------------------------------------------------------------------
// Exclusive radio handle
//----------------------------------------------------------------------

// Radio is the exclusive handle on a radio peripheral. A handle feeds
// exactly one bring-up attempt; afterwards it is spent.
type Radio struct {
	dev   Device
	spent atomic.Bool
}

// Device returns the hardware behind the handle (for status displays).
func (r *Radio) Device() Device {
	return r.dev
}

// NewRadio wraps a specific device in a fresh handle. Used by tests and
// by callers that manage their own hardware.
func NewRadio(dev Device) *Radio {
	return &Radio{dev: dev}
}

// taken guards the one physical radio of the board.
var taken atomic.Bool

// TakeRadio hands out the handle on the board radio. It succeeds once
// per process; every later call fails with ErrRadioTaken.
func TakeRadio() (*Radio, error) {
	if !taken.CompareAndSwap(false, true) {
		return nil, ErrRadioTaken
	}
	return NewRadio(newDevice()), nil
}
