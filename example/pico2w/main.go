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
	"strconv"
	"time"

	"github.com/bfix/srvweb"
)

// WiFi credentials and service ports; set at link time:
//
//	tinygo build -target=pico2-w -ldflags="\
//	    -X 'main.SSID=<network>' -X 'main.Passwd=<passphrase>' \
//	    -X 'main.Host=<hostname>' -X 'main.Port=80' -X 'main.Diag=564'" \
//	    -o srvweb.uf2 ./example/pico2w
var (
	SSID   string
	Passwd string
	Mode   string // "sta" (default) or "ap"
	Host   string
	Port   string // page port (default 80)
	Diag   string // 9p diagnostics port (empty = off)
)

// run the device process
func main() {
	radio, err := srvweb.TakeRadio()
	if err != nil {
		return
	}
	state := srvweb.NewStatus(radio.Device())
	defer state.Trap(30 * time.Second)

	port := uint16(80)
	if len(Port) > 0 {
		p, err := strconv.ParseUint(Port, 10, 16)
		if err != nil {
			state.Set(srvweb.StatPORT, 0)
			return
		}
		port = uint16(p)
	}
	var diag uint16
	if len(Diag) > 0 {
		p, err := strconv.ParseUint(Diag, 10, 16)
		if err != nil {
			state.Set(srvweb.StatPORT, 0)
			return
		}
		diag = uint16(p)
	}
	mode := srvweb.ModeStation
	if Mode == "ap" {
		mode = srvweb.ModeAccessPoint
	}

	boot := &srvweb.Bootstrap{
		Config: srvweb.Config{
			SSID:       SSID,
			Passphrase: Passwd,
			Mode:       mode,
			Hostname:   Host,
		},
		Port:     port,
		DiagPort: diag,
		Radio:    radio,
		Status:   state,
	}
	if boot.Run() != nil {
		// keep the failure code blinking for inspection
		srvweb.Park(nil)
	}

	// check from any host on the network:
	//   curl http://<addr>/
	// mount diagnostics (if enabled):
	//   srv tcp!<addr>!<diag> web
	//   mount /srv/web /n/web
	//   cat /n/web/net/addr
}
