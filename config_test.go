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
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"station", Config{SSID: "mynet", Passphrase: "secret12", Mode: ModeStation}, true},
		{"station open", Config{SSID: "mynet", Mode: ModeStation}, true},
		{"station no ssid", Config{Mode: ModeStation}, false},
		{"station short pass", Config{SSID: "mynet", Passphrase: "x", Mode: ModeStation}, true},
		{"ap", Config{SSID: "device-ap", Passphrase: "secret12", Mode: ModeAccessPoint}, true},
		{"ap open", Config{SSID: "device-ap", Mode: ModeAccessPoint}, true},
		{"ap no ssid", Config{Mode: ModeAccessPoint}, true},
		{"ap short pass", Config{SSID: "device-ap", Passphrase: "short", Mode: ModeAccessPoint}, false},
		{"ap long pass", Config{SSID: "device-ap", Passphrase: strings.Repeat("p", 64), Mode: ModeAccessPoint}, false},
		{"ap max pass", Config{SSID: "device-ap", Passphrase: strings.Repeat("p", 63), Mode: ModeAccessPoint}, true},
		{"long ssid", Config{SSID: strings.Repeat("s", 33), Mode: ModeStation}, false},
		{"max ssid", Config{SSID: strings.Repeat("s", 32), Mode: ModeStation}, true},
		{"bad mode", Config{SSID: "mynet", Mode: Mode(7)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.ok {
				if err == nil {
					t.Fatal("no error")
				}
				if !errors.Is(err, ErrConfigInvalid) {
					t.Fatalf("wrong error class: %v", err)
				}
			}
		})
	}
}

func TestTimeoutDefaults(t *testing.T) {
	b := Timeouts{}.withDefaults()
	if b.Join != DefJoinTimeout || b.Lease != DefLeaseTimeout {
		t.Fatalf("defaults not applied: %v", b)
	}
	b = Timeouts{Join: time.Second, Lease: 2 * time.Second}.withDefaults()
	if b.Join != time.Second || b.Lease != 2*time.Second {
		t.Fatalf("explicit bounds overridden: %v", b)
	}
}

func TestModeString(t *testing.T) {
	if ModeStation.String() != "station" {
		t.Fatal("station")
	}
	if ModeAccessPoint.String() != "access-point" {
		t.Fatal("access-point")
	}
	if Mode(9).String() != "invalid" {
		t.Fatal("invalid")
	}
}

func TestHostnameDefault(t *testing.T) {
	cfg := Config{}
	if cfg.hostname() != "srvweb" {
		t.Fatal("default hostname")
	}
	cfg.Hostname = "kiosk"
	if cfg.hostname() != "kiosk" {
		t.Fatal("explicit hostname")
	}
}
