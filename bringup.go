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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync/atomic"
	"time"
)

//----------------------------------------------------------------------
// Bring-up phases
//----------------------------------------------------------------------

// Phase names a step on the bring-up ladder. Phases advance one way;
// a failed attempt stays failed.
type Phase int32

const (
	PhaseIdle        Phase = iota // nothing happened yet
	PhaseConfiguring              // settings are being applied
	PhaseStarting                 // radio activation in progress
	PhaseJoining                  // waiting for association (station)
	PhaseLeasing                  // waiting for a network address (station)
	PhaseReady                    // interface is operational
	PhaseFailed                   // terminal failure
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConfiguring:
		return "configuring"
	case PhaseStarting:
		return "starting"
	case PhaseJoining:
		return "joining"
	case PhaseLeasing:
		return "leasing"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return "invalid"
}

//----------------------------------------------------------------------
// Operational link
//----------------------------------------------------------------------

// Link is the operational network interface after a successful bring-up.
type Link struct {
	dev     Device
	cfg     Config
	phase   atomic.Int32
	addr    netip.Addr
	hosting bool
}

// Phase of the bring-up ladder this link is on.
func (l *Link) Phase() Phase {
	return Phase(l.phase.Load())
}

// Addr returns the acquired network address. It is only valid for a
// station link; a hosting link has no address of its own here.
func (l *Link) Addr() netip.Addr {
	return l.addr
}

// Hosting is true if the link advertises its own network.
func (l *Link) Hosting() bool {
	return l.hosting
}

// SSID of the joined (or advertised) network.
func (l *Link) SSID() string {
	return l.cfg.SSID
}

// Mode of the radio interface.
func (l *Link) Mode() Mode {
	return l.cfg.Mode
}

// Listen opens a TCP listener on the link.
func (l *Link) Listen(port uint16) (net.Listener, error) {
	return l.dev.Listen(port)
}

// Close deactivates the interface. The link does not become usable
// again; phases never move backwards.
func (l *Link) Close() error {
	return l.dev.Close()
}

// advance the ladder.
func (l *Link) to(p Phase) {
	l.phase.Store(int32(p))
}

//----------------------------------------------------------------------
// Bring-up control
//----------------------------------------------------------------------

// BringUp drives the radio from inert to operationally ready and blocks
// until it is. The configuration is validated before any hardware is
// touched. In station mode the call waits for association and then for
// an address lease; in access-point mode it waits for hosting to be
// live. Each wait is bounded by cfg.Timeouts; an expired bound fails
// the attempt with ErrJoinTimeout or ErrLeaseTimeout. There is no retry
// and no fallback address.
func BringUp(cfg Config, r *Radio) (link *Link, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if r == nil || r.dev == nil {
		return nil, fmt.Errorf("%w: no radio handle", ErrHardwareFault)
	}
	// a handle feeds exactly one attempt
	if !r.spent.CompareAndSwap(false, true) {
		return nil, ErrRadioSpent
	}
	log := cfg.logger()
	link = &Link{dev: r.dev, cfg: cfg}

	// apply settings and power up
	link.to(PhaseConfiguring)
	if err = r.dev.Configure(cfg); err != nil {
		return link.fail(wrapFault(err))
	}
	link.to(PhaseStarting)
	if err = r.dev.Start(); err != nil {
		return link.fail(wrapFault(err))
	}

	bounds := cfg.Timeouts.withDefaults()
	events := r.dev.Events()

	if cfg.Mode == ModeAccessPoint {
		// wait for hosting to be live
		log.Info("starting network", slog.String("ssid", cfg.SSID))
		if _, err = await(events, EventStarted, bounds.Join, ErrJoinTimeout); err != nil {
			return link.fail(err)
		}
		link.hosting = true
		link.to(PhaseReady)
		log.Info("network up", slog.String("ssid", cfg.SSID))
		return
	}

	// wait for association
	link.to(PhaseJoining)
	if len(cfg.Passphrase) == 0 {
		log.Info("joining open network", slog.String("ssid", cfg.SSID))
	} else {
		log.Info("joining WPA secure network",
			slog.String("ssid", cfg.SSID),
			slog.Int("passlen", len(cfg.Passphrase)))
	}
	if _, err = await(events, EventJoined, bounds.Join, ErrJoinTimeout); err != nil {
		return link.fail(err)
	}
	log.Info("associated", slog.String("ssid", cfg.SSID))

	// wait for an address lease
	link.to(PhaseLeasing)
	var ev Event
	if ev, err = await(events, EventLeased, bounds.Lease, ErrLeaseTimeout); err != nil {
		return link.fail(err)
	}
	if !ev.Addr.IsValid() {
		return link.fail(fmt.Errorf("%w: lease without address", ErrHardwareFault))
	}
	link.addr = ev.Addr
	link.to(PhaseReady)
	log.Info("interface ready", slog.String("addr", link.addr.String()))
	return
}

// fail pins the ladder on the terminal phase.
func (l *Link) fail(err error) (*Link, error) {
	l.to(PhaseFailed)
	return nil, err
}

// wrapFault tags a device error as hardware fault (unless it already
// carries the classification).
func wrapFault(err error) error {
	if errors.Is(err, ErrHardwareFault) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrHardwareFault, err)
}

// await blocks until the wanted event arrives on the feed. A fault event
// fails the wait immediately; other events are stale reports and are
// skipped. An expired bound fails with the given timeout error.
func await(events <-chan Event, want EventKind, bound time.Duration, expired error) (ev Event, err error) {
	t := time.NewTimer(bound)
	defer t.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ev, fmt.Errorf("%w: event feed closed", ErrHardwareFault)
			}
			switch ev.Kind {
			case EventFault:
				return ev, wrapFault(ev.Err)
			case want:
				return ev, nil
			}
		case <-t.C:
			return ev, expired
		}
	}
}
