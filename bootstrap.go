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
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// Version of the firmware.
const Version = "0.1.0"

// Webserver registers (method, path, handler) routes and serves them
// from a listener. Satisfied by Responder.
type Webserver interface {
	Handle(method, path string, fn Handler)
	Serve(lst net.Listener) error
}

// Bootstrap wires a device process: take the radio, bring the network
// up, register the page route, serve, park. Only Config is mandatory;
// the zero value of everything else selects the defaults.
type Bootstrap struct {
	Config   Config
	Port     uint16          // page responder port (0 = ephemeral on hosts)
	DiagPort uint16          // 9p diagnostics port (0 = no diagnostics)
	Web      Webserver       // nil for a fresh Responder
	Radio    *Radio          // nil to take the board radio
	Status   *Status         // optional LED status display
	Stop     <-chan struct{} // optional termination signal
	Log      *slog.Logger

	addr atomic.Value // net.Addr of the page listener
}

// Addr returns the address of the page listener, nil before serving
// starts.
func (b *Bootstrap) Addr() net.Addr {
	if v := b.addr.Load(); v != nil {
		return v.(net.Addr)
	}
	return nil
}

// Run brings the device up and serves until the stop signal fires.
// No route exists before the network is operational; afterwards the
// page route is the only one. Run returns nil only after an external
// stop. Any error is terminal and the caller decides process policy
// (exit code on hosts, LED display on boards).
func (b *Bootstrap) Run() error {
	cfg := b.Config
	if cfg.Logger == nil {
		cfg.Logger = b.Log
	}
	log := cfg.logger()
	started := time.Now()

	// network bring-up gates everything
	r := b.Radio
	if r == nil {
		var err error
		if r, err = TakeRadio(); err != nil {
			return b.fail(log, err)
		}
	}
	link, err := BringUp(cfg, r)
	if err != nil {
		return b.fail(log, err)
	}
	b.Status.Set(StatOK, 0)
	addr := "none"
	if link.Addr().IsValid() {
		addr = link.Addr().String()
	}
	log.Info("network ready",
		slog.String("mode", link.Mode().String()),
		slog.String("ssid", link.SSID()),
		slog.String("addr", addr))

	// the page route exists only now
	web := b.Web
	if web == nil {
		web = NewResponder(log)
	}
	web.Handle("GET", "/", IndexHandler)
	lst, err := link.Listen(b.Port)
	if err != nil {
		return b.fail(log, err)
	}
	b.addr.Store(lst.Addr())
	go func() {
		if err := web.Serve(lst); err != nil {
			log.Error("responder failed", slog.String("err", err.Error()))
			b.Status.Set(StatSRV, 0)
		}
	}()

	// diagnostics never gate the page
	if b.DiagPort != 0 {
		if err := b.serveDiag(log, link, started); err != nil {
			log.Error("diagnostics failed", slog.String("err", err.Error()))
			b.Status.Set(StatSRV, 3)
		}
	}

	log.Info("server awaiting connection")
	Park(b.Stop)
	return nil
}

// serveDiag exports the diagnostics namespace over 9p.
func (b *Bootstrap) serveDiag(log *slog.Logger, link *Link, started time.Time) error {
	ns, err := DiagTree(link, b.Status, started, Version)
	if err != nil {
		return err
	}
	lst, err := link.Listen(b.DiagPort)
	if err != nil {
		return err
	}
	go func() {
		if err := ns.Serve(lst); err != nil {
			log.Error("diagnostics stopped", slog.String("err", err.Error()))
			b.Status.Set(StatSRV, 3)
		}
	}()
	return nil
}

// fail reports a terminal error on log and status display.
func (b *Bootstrap) fail(log *slog.Logger, err error) error {
	b.Status.Set(StatusCode(err), 0)
	log.Error("bring-up failed", slog.String("err", err.Error()))
	return err
}

// Park blocks until the stop signal fires. A nil stop parks forever;
// device processes never return from it.
func Park(stop <-chan struct{}) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tick.C:
		}
	}
}
