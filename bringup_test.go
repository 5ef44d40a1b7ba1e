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
	"net/netip"
	"testing"
	"time"
)

// fast bounds for simulated bring-ups
var testBounds = Timeouts{Join: 500 * time.Millisecond, Lease: 500 * time.Millisecond}

func TestBringUpStation(t *testing.T) {
	dev := NewSimDevice()
	dev.JoinAfter = 10 * time.Millisecond
	dev.LeaseAfter = 5 * time.Millisecond
	cfg := Config{SSID: "testnet", Passphrase: "secret12", Timeouts: testBounds}

	start := time.Now()
	link, err := BringUp(cfg, NewRadio(dev))
	if err != nil {
		t.Fatalf("bring-up failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("bring-up took too long: %v", elapsed)
	}
	if link.Phase() != PhaseReady {
		t.Fatalf("not ready: %s", link.Phase())
	}
	if !link.Addr().IsValid() {
		t.Fatal("ready without address")
	}
	if link.Addr() != dev.LeaseAddr {
		t.Fatalf("wrong address: %s", link.Addr())
	}
	if link.Hosting() {
		t.Fatal("station link reports hosting")
	}
	calls := dev.Calls()
	if len(calls) != 2 || calls[0] != "configure" || calls[1] != "start" {
		t.Fatalf("unexpected driver calls: %v", calls)
	}
}

func TestBringUpInvalidConfigTouchesNoHardware(t *testing.T) {
	dev := NewSimDevice()
	cfg := Config{Mode: ModeStation} // no network name

	_, err := BringUp(cfg, NewRadio(dev))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("wrong error: %v", err)
	}
	if calls := dev.Calls(); len(calls) != 0 {
		t.Fatalf("hardware touched: %v", calls)
	}
}

func TestBringUpJoinTimeout(t *testing.T) {
	dev := NewSimDevice()
	dev.NoJoin = true
	cfg := Config{SSID: "ghost", Passphrase: "x", Timeouts: Timeouts{Join: 50 * time.Millisecond, Lease: 500 * time.Millisecond}}

	start := time.Now()
	_, err := BringUp(cfg, NewRadio(dev))
	elapsed := time.Since(start)
	if !errors.Is(err, ErrJoinTimeout) {
		t.Fatalf("wrong error: %v", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Fatalf("timeout fired early: %v", elapsed)
	}
	if elapsed > time.Second {
		t.Fatalf("timeout fired late: %v", elapsed)
	}
}

func TestBringUpLeaseTimeout(t *testing.T) {
	dev := NewSimDevice()
	dev.NoLease = true
	cfg := Config{SSID: "testnet", Timeouts: Timeouts{Join: 500 * time.Millisecond, Lease: 50 * time.Millisecond}}

	start := time.Now()
	_, err := BringUp(cfg, NewRadio(dev))
	elapsed := time.Since(start)
	if !errors.Is(err, ErrLeaseTimeout) {
		t.Fatalf("wrong error: %v", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Fatalf("timeout fired early: %v", elapsed)
	}
}

func TestBringUpLeaseWithoutAddress(t *testing.T) {
	dev := NewSimDevice()
	dev.LeaseAddr = netip.Addr{} // lease event without an address
	cfg := Config{SSID: "testnet", Timeouts: testBounds}

	link, err := BringUp(cfg, NewRadio(dev))
	if !errors.Is(err, ErrHardwareFault) {
		t.Fatalf("wrong error: %v", err)
	}
	if link != nil {
		t.Fatal("ready without address")
	}
}

func TestLinkClose(t *testing.T) {
	dev := NewSimDevice()
	cfg := Config{SSID: "testnet", Timeouts: testBounds}

	link, err := BringUp(cfg, NewRadio(dev))
	if err != nil {
		t.Fatalf("bring-up failed: %v", err)
	}
	if err = link.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !dev.Closed() {
		t.Fatal("interface still active")
	}
}

func TestBringUpStartFault(t *testing.T) {
	dev := NewSimDevice()
	dev.FailStart = errors.New("radio dead")
	cfg := Config{SSID: "testnet", Timeouts: testBounds}

	_, err := BringUp(cfg, NewRadio(dev))
	if !errors.Is(err, ErrHardwareFault) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestBringUpFaultDuringJoin(t *testing.T) {
	dev := NewSimDevice()
	dev.Fault = errors.New("firmware crashed")
	dev.FaultAfter = 10 * time.Millisecond
	cfg := Config{SSID: "testnet", Timeouts: testBounds}

	_, err := BringUp(cfg, NewRadio(dev))
	if !errors.Is(err, ErrHardwareFault) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestBringUpAccessPoint(t *testing.T) {
	dev := NewSimDevice()
	dev.StartAfter = 30 * time.Millisecond
	cfg := Config{SSID: "device-ap", Passphrase: "secret12", Mode: ModeAccessPoint, Timeouts: testBounds}

	start := time.Now()
	link, err := BringUp(cfg, NewRadio(dev))
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("bring-up failed: %v", err)
	}
	// ready strictly after the hosting signal, never before
	if elapsed < 30*time.Millisecond {
		t.Fatalf("ready before hosting was live: %v", elapsed)
	}
	if link.Phase() != PhaseReady {
		t.Fatalf("not ready: %s", link.Phase())
	}
	if !link.Hosting() {
		t.Fatal("hosting link reports station")
	}
	if link.Addr().IsValid() {
		t.Fatal("hosting link has an address")
	}
}

func TestBringUpAccessPointStartTimeout(t *testing.T) {
	dev := NewSimDevice()
	dev.StartAfter = time.Second // later than the bound
	cfg := Config{SSID: "device-ap", Mode: ModeAccessPoint, Timeouts: Timeouts{Join: 50 * time.Millisecond, Lease: 500 * time.Millisecond}}

	_, err := BringUp(cfg, NewRadio(dev))
	if !errors.Is(err, ErrJoinTimeout) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestBringUpRadioSpent(t *testing.T) {
	dev := NewSimDevice()
	radio := NewRadio(dev)
	cfg := Config{SSID: "testnet", Timeouts: testBounds}

	if _, err := BringUp(cfg, radio); err != nil {
		t.Fatalf("first bring-up failed: %v", err)
	}
	_, err := BringUp(cfg, radio)
	if !errors.Is(err, ErrRadioSpent) {
		t.Fatalf("wrong error: %v", err)
	}
	if !errors.Is(err, ErrHardwareFault) {
		t.Fatal("spent handle not classified as hardware fault")
	}
}

func TestBringUpSpentEvenAfterFailure(t *testing.T) {
	dev := NewSimDevice()
	dev.FailStart = errors.New("radio dead")
	radio := NewRadio(dev)
	cfg := Config{SSID: "testnet", Timeouts: testBounds}

	if _, err := BringUp(cfg, radio); err == nil {
		t.Fatal("first bring-up succeeded")
	}
	_, err := BringUp(cfg, radio)
	if !errors.Is(err, ErrRadioSpent) {
		t.Fatalf("handle reusable after failure: %v", err)
	}
}

func TestTakeRadioOnce(t *testing.T) {
	radio, err := TakeRadio()
	if err != nil {
		t.Fatalf("first take failed: %v", err)
	}
	if radio.Device() == nil {
		t.Fatal("no device behind handle")
	}
	if _, err = TakeRadio(); !errors.Is(err, ErrRadioTaken) {
		t.Fatalf("second take: %v", err)
	}
	if !errors.Is(err, ErrHardwareFault) {
		t.Fatal("taken radio not classified as hardware fault")
	}
}

func TestPhaseString(t *testing.T) {
	want := map[Phase]string{
		PhaseIdle:        "idle",
		PhaseConfiguring: "configuring",
		PhaseStarting:    "starting",
		PhaseJoining:     "joining",
		PhaseLeasing:     "leasing",
		PhaseReady:       "ready",
		PhaseFailed:      "failed",
		Phase(99):        "invalid",
	}
	for p, s := range want {
		if p.String() != s {
			t.Fatalf("%d: got %q, want %q", p, p.String(), s)
		}
	}
}
