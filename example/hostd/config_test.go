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

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bfix/srvweb"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Ports.HTTP != 8080 || cfg.Ports.Diag != 5640 {
		t.Fatalf("default ports: %+v", cfg.Ports)
	}
	if cfg.Network.Mode != "station" {
		t.Fatalf("default mode: %s", cfg.Network.Mode)
	}
	if cfg.Timeouts.JoinSec != 30 || cfg.Timeouts.LeaseSec != 20 {
		t.Fatalf("default timeouts: %+v", cfg.Timeouts)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostd.yaml")
	doc := `
network:
  ssid: lab
  passphrase: labsecret
  mode: ap
ports:
  http: 9000
  diag: 0
timeouts:
  joinSec: 5
  leaseSec: 5
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Network.SSID != "lab" || cfg.Network.Mode != "ap" {
		t.Fatalf("network: %+v", cfg.Network)
	}
	if cfg.Ports.HTTP != 9000 || cfg.Ports.Diag != 0 {
		t.Fatalf("ports: %+v", cfg.Ports)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "gone.yaml")); err == nil {
		t.Fatal("missing file not reported")
	}
}

func TestLoadBadTimeouts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostd.yaml")
	if err := os.WriteFile(path, []byte("timeouts:\n  joinSec: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("negative timeout not reported")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SRVWEB_SSID", "ovl")
	t.Setenv("SRVWEB_PSK", "ovlsecret")
	t.Setenv("SRVWEB_MODE", "ap")
	t.Setenv("SRVWEB_HOSTNAME", "kiosk")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Network.SSID != "ovl" || cfg.Network.Passphrase != "ovlsecret" {
		t.Fatalf("credentials not overridden: %+v", cfg.Network)
	}
	if cfg.Network.Mode != "ap" || cfg.Network.Hostname != "kiosk" {
		t.Fatalf("mode/hostname not overridden: %+v", cfg.Network)
	}
}

func TestBringUpConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Network.SSID = "lab"
	cfg.Network.Passphrase = "labsecret"
	out, err := cfg.bringUpConfig()
	if err != nil {
		t.Fatalf("mapping failed: %v", err)
	}
	if out.Mode != srvweb.ModeStation || out.SSID != "lab" {
		t.Fatalf("mapping: %+v", out)
	}
	if out.Timeouts.Join != 30*time.Second || out.Timeouts.Lease != 20*time.Second {
		t.Fatalf("timeouts: %+v", out.Timeouts)
	}

	cfg.Network.Mode = "access-point"
	if out, err = cfg.bringUpConfig(); err != nil || out.Mode != srvweb.ModeAccessPoint {
		t.Fatalf("ap mapping: %+v (%v)", out, err)
	}

	cfg.Network.Mode = "mesh"
	if _, err = cfg.bringUpConfig(); !errors.Is(err, srvweb.ErrConfigInvalid) {
		t.Fatalf("bad mode: %v", err)
	}
}
