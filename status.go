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
	"sync/atomic"
	"time"
)

// status codes
const (
	StatUNK   = iota // unknown status (init)
	StatOK           // processing active
	StatDEV          // radio hardware failure
	StatCFG          // invalid configuration
	StatJOIN         // no association with network
	StatLEASE        // no network address acquired
	StatSRV          // serving failed
	StatPORT         // invalid port specified
	StatEXCP         // exception (panic) occured
)

// status names (indexed by code)
var statNames = []string{
	"unknown", "ok", "device", "config", "join", "lease",
	"serve", "port", "panic",
}

// StatusText returns the name of a status code.
func StatusText(code int) string {
	if code < 0 || code >= len(statNames) {
		return "invalid"
	}
	return statNames[code]
}

// StatusCode maps a bring-up error to a status code. A nil error maps
// to StatOK; an unclassified error counts as a serving failure.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return StatOK
	case errors.Is(err, ErrConfigInvalid):
		return StatCFG
	case errors.Is(err, ErrJoinTimeout):
		return StatJOIN
	case errors.Is(err, ErrLeaseTimeout):
		return StatLEASE
	case errors.Is(err, ErrHardwareFault):
		return StatDEV
	}
	return StatSRV
}

// Status handler.
// Show current status depending on hardware device.
type Status struct {
	dev    Device       // reference to device
	curr   atomic.Int32 // current state
	repeat atomic.Int32 // current repeat counter
}

// NewStatus creates a new status display
func NewStatus(dev Device) (state *Status) {
	state = new(Status)
	state.dev = dev
	go func() {
		state.curr.Store(StatOK)
		state.repeat.Store(0)
		// blink LED <state>; <repeat> times
		for {
			time.Sleep(5 * time.Second)
			num := state.curr.Load()
			for num > 5 {
				dev.LED(true)
				time.Sleep(1000 * time.Millisecond)
				dev.LED(false)
				time.Sleep(300 * time.Millisecond)
				num -= 5
			}
			for range num {
				dev.LED(true)
				time.Sleep(150 * time.Millisecond)
				dev.LED(false)
				time.Sleep(150 * time.Millisecond)
			}
			if state.repeat.Add(-1) == 0 {
				state.curr.Store(StatOK)
			}
		}
	}()
	return
}

// Set status and repeat <num> times.
func (state *Status) Set(flag, num int) {
	if state != nil {
		state.curr.Store(int32(flag))
		state.repeat.Store(int32(num))
	}
}

// Get current state and repeat counter
func (state *Status) Get() (int, int) {
	if state == nil {
		return StatUNK, 0
	}
	return int(state.curr.Load()), int(state.repeat.Load())
}

// Trap critical failures (panic)
func (state *Status) Trap(t time.Duration) {
	s, _ := state.Get()
	if r := recover(); r != nil {
		fmt.Printf("EXCP: %v\n", r)
		if s == StatOK {
			state.Set(StatEXCP, 0)
		}
	} else if s == StatOK {
		state.Set(StatUNK, 0)
	}
	time.Sleep(t)
}
