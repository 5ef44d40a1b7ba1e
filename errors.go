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
)

// Terminal bring-up failures. A failed attempt leaves the interface in an
// indeterminate state; recovery means a fresh process with a fresh radio
// handle, there is no in-process retry.
var (
	// ErrConfigInvalid rejects a configuration before any hardware is
	// touched.
	ErrConfigInvalid = errors.New("invalid bring-up configuration")

	// ErrHardwareFault covers radio initialization and start failures.
	ErrHardwareFault = errors.New("radio hardware fault")

	// ErrJoinTimeout: no association with the named network within the
	// configured bound (network not found or credentials rejected).
	ErrJoinTimeout = errors.New("association timed out")

	// ErrLeaseTimeout: associated, but no network address arrived within
	// the configured bound.
	ErrLeaseTimeout = errors.New("no address lease within bound")
)

// Misuse of the one-per-process radio resource counts as a hardware fault
// at the process boundary.
var (
	ErrRadioTaken = fmt.Errorf("%w: radio peripheral already taken", ErrHardwareFault)
	ErrRadioSpent = fmt.Errorf("%w: radio already brought up", ErrHardwareFault)
)
