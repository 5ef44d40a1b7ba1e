//go:build pyportal || nano_rp2040 || metro_m4_airlift || arduino_mkrwifi1010 || matrixportal_m4

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
	"machine"
	"net"
	"time"

	"tinygo.org/x/drivers/netdev"
	"tinygo.org/x/drivers/netlink"
	"tinygo.org/x/drivers/netlink/probe"
)

// Boards with a WiFiNINA/ESP32 network co-processor. The co-processor
// firmware drives association and DHCP on its own, so association and
// lease are reported back to back.
type NinaDevice struct {
	link   netlink.Netlinker
	dev    netdev.Netdever
	cfg    Config
	events chan Event
}

func newDevice() Device {
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &NinaDevice{
		events: make(chan Event, 4),
	}
}

// LED on or off
func (dev *NinaDevice) LED(on bool) {
	machine.LED.Set(on)
}

// Configure applies the network settings. The co-processor firmware
// used here has no access-point support, so hosting fails.
func (dev *NinaDevice) Configure(cfg Config) error {
	if cfg.Mode == ModeAccessPoint {
		return fmt.Errorf("%w: hosting not supported by this radio", ErrHardwareFault)
	}
	dev.cfg = cfg
	// wait a bit for serial
	time.Sleep(2 * time.Second)
	return nil
}

// Start probes the co-processor. Association continues in the
// background.
func (dev *NinaDevice) Start() error {
	dev.link, dev.dev = probe.Probe()
	go dev.up()
	return nil
}

// up connects to the network and reports progress on the event feed.
// A single connect attempt; when it fails, the bring-up bound expires
// upstream.
func (dev *NinaDevice) up() {
	err := dev.link.NetConnect(&netlink.ConnectParams{
		Ssid:       dev.cfg.SSID,
		Passphrase: dev.cfg.Passphrase,
	})
	if err != nil {
		return
	}
	dev.emit(Event{Kind: EventJoined})
	ip, err := dev.dev.Addr()
	if err != nil {
		dev.emit(Event{Kind: EventFault, Err: err})
		return
	}
	dev.emit(Event{Kind: EventLeased, Addr: ip})
}

// Events is the lifecycle event feed.
func (dev *NinaDevice) Events() <-chan Event {
	return dev.events
}

// emit delivers an event without blocking; a full feed drops it.
func (dev *NinaDevice) emit(ev Event) {
	select {
	case dev.events <- ev:
	default:
	}
}

// Listen opens a TCP listener on the co-processor stack.
func (dev *NinaDevice) Listen(port uint16) (net.Listener, error) {
	return net.Listen("tcp", fmt.Sprintf(":%d", port))
}

// Close disconnects from the network.
func (dev *NinaDevice) Close() error {
	if dev.link != nil {
		dev.link.NetDisconnect()
	}
	return nil
}
