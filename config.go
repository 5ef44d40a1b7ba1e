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
	"io"
	"log/slog"
	"time"
)

//----------------------------------------------------------------------
// Operating mode of the radio interface
//----------------------------------------------------------------------

// Mode selects how the radio participates in the network.
type Mode uint8

const (
	// ModeStation joins an existing network as a client.
	ModeStation Mode = iota

	// ModeAccessPoint hosts a standalone network for clients to join.
	ModeAccessPoint
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeStation:
		return "station"
	case ModeAccessPoint:
		return "access-point"
	}
	return "invalid"
}

//----------------------------------------------------------------------
// Bring-up configuration
//----------------------------------------------------------------------

// Limits imposed by 802.11 and WPA2.
const (
	maxSSIDLen = 32
	minPassLen = 8
	maxPassLen = 63
)

// Timeouts bound the blocking phases of a bring-up attempt. A zero field
// selects the default bound.
type Timeouts struct {
	Join  time.Duration // association with the target network
	Lease time.Duration // address acquisition after association
}

// Default phase bounds.
const (
	DefJoinTimeout  = 30 * time.Second
	DefLeaseTimeout = 20 * time.Second
)

// withDefaults fills unset bounds.
func (t Timeouts) withDefaults() Timeouts {
	if t.Join == 0 {
		t.Join = DefJoinTimeout
	}
	if t.Lease == 0 {
		t.Lease = DefLeaseTimeout
	}
	return t
}

// Config describes the desired network identity before bring-up. The
// zero value is not usable; at least SSID must be set for station mode.
type Config struct {
	SSID       string // network to join (station) or to advertise (access-point)
	Passphrase string // WPA2 passphrase; empty for an open network
	Mode       Mode
	Hostname   string // name announced during address acquisition
	Timeouts   Timeouts
	Logger     *slog.Logger // nil for no logging
}

// Validate checks the configuration against protocol limits. BringUp
// calls it before any hardware is touched. A station passphrase is not
// length-checked here; a wrong one plays out as an association timeout.
func (cfg *Config) Validate() (err error) {
	if cfg.Mode > ModeAccessPoint {
		return fmt.Errorf("%w: unknown mode %d", ErrConfigInvalid, cfg.Mode)
	}
	if cfg.Mode == ModeStation && len(cfg.SSID) == 0 {
		return fmt.Errorf("%w: station mode needs a network name", ErrConfigInvalid)
	}
	if len(cfg.SSID) > maxSSIDLen {
		return fmt.Errorf("%w: network name exceeds %d bytes", ErrConfigInvalid, maxSSIDLen)
	}
	if cfg.Mode == ModeAccessPoint && len(cfg.Passphrase) > 0 {
		if n := len(cfg.Passphrase); n < minPassLen || n > maxPassLen {
			return fmt.Errorf("%w: passphrase length %d outside %d..%d",
				ErrConfigInvalid, n, minPassLen, maxPassLen)
		}
	}
	return
}

// hostname to announce during address acquisition.
func (cfg *Config) hostname() string {
	if len(cfg.Hostname) > 0 {
		return cfg.Hostname
	}
	return "srvweb"
}

// logger returns the configured logger (or a discarding one).
func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return discardLogger()
}

// discardLogger drops all records.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(127),
	}))
}
