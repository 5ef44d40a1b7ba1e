//go:build rp2350

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
	"log/slog"
	"machine"
	"net"
	"sync"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
)

const mtu = cyw43439.MTU

// Raspberry Pico2 W  [RP2350]
type Pico2WDevice struct {
	ref    *cyw43439.Device // reference to radio hardware
	stack  *stacks.PortStack
	cfg    Config
	log    *slog.Logger
	events chan Event
	quit   chan struct{}
	once   sync.Once
}

func newDevice() Device {
	return &Pico2WDevice{
		ref:    cyw43439.NewPicoWDevice(),
		events: make(chan Event, 4),
		quit:   make(chan struct{}),
	}
}

// LED on or off
func (dev *Pico2WDevice) LED(on bool) {
	dev.ref.GPIOSet(0, on)
}

// Configure applies the network settings. The cyw43439 driver has no
// access-point support, so hosting fails here.
func (dev *Pico2WDevice) Configure(cfg Config) error {
	if cfg.Mode == ModeAccessPoint {
		return fmt.Errorf("%w: hosting not supported by this radio", ErrHardwareFault)
	}
	dev.cfg = cfg
	dev.log = cfg.Logger
	if dev.log == nil {
		dev.log = slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelDebug - 1}))
		// give the serial console time to attach
		time.Sleep(2 * time.Second)
	}
	return nil
}

// Start powers up the radio core. Association and address acquisition
// continue in the background.
func (dev *Pico2WDevice) Start() error {
	wificfg := cyw43439.DefaultWifiConfig()
	wificfg.Logger = dev.log
	dev.log.Info("initializing pico W device...")
	devInitTime := time.Now()
	if err := dev.ref.Init(wificfg); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareFault, err)
	}
	dev.log.Info("cyw43439:Init", slog.Duration("duration", time.Since(devInitTime)))
	go dev.up()
	return nil
}

// up walks the interface through association and address acquisition,
// reporting progress on the event feed. A single join attempt; when it
// fails, the bring-up bound expires upstream.
func (dev *Pico2WDevice) up() {
	if err := dev.ref.JoinWPA2(dev.cfg.SSID, dev.cfg.Passphrase); err != nil {
		dev.log.Error("wifi join failed", slog.String("err", err.Error()))
		return
	}
	mac, _ := dev.ref.HardwareAddr6()
	dev.log.Info("wifi join success!", slog.String("mac", net.HardwareAddr(mac[:]).String()))
	dev.emit(Event{Kind: EventJoined})

	stack := stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: 1, // DHCP client
		MaxOpenPortsTCP: 2, // page responder and diagnostics
		MTU:             mtu,
		Logger:          dev.log,
	})
	dev.stack = stack
	dev.ref.RecvEthHandle(stack.RecvEth)

	// begin asynchronous packet handling
	go dev.pump(stack)

	dhcpClient := stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	err := dhcpClient.BeginRequest(stacks.DHCPRequestConfig{
		Xid:      uint32(time.Now().Nanosecond()),
		Hostname: dev.cfg.hostname(),
	})
	if err != nil {
		dev.emit(Event{Kind: EventFault, Err: err})
		return
	}
	deadline := time.Now().Add(dev.cfg.Timeouts.withDefaults().Lease)
	for dhcpClient.State() != dhcp.StateBound {
		if time.Now().After(deadline) {
			dev.log.Error("no DHCP reply")
			return
		}
		dev.log.Info("DHCP ongoing...")
		time.Sleep(time.Second / 2)
	}
	ip := dhcpClient.Offer()
	dev.log.Info("DHCP complete",
		slog.String("ourIP", ip.String()),
		slog.String("gateway", dhcpClient.Gateway().String()),
		slog.String("hostname", string(dhcpClient.Hostname())),
		slog.Duration("lease", dhcpClient.IPLeaseTime()),
	)
	stack.SetAddr(ip) // It's important to set the IP address after DHCP completes.
	dev.emit(Event{Kind: EventLeased, Addr: ip})
}

// Events is the lifecycle event feed.
func (dev *Pico2WDevice) Events() <-chan Event {
	return dev.events
}

// emit delivers an event without blocking; a full feed drops it.
func (dev *Pico2WDevice) emit(ev Event) {
	select {
	case dev.events <- ev:
	default:
	}
}

// Listen opens a TCP listener on the interface.
func (dev *Pico2WDevice) Listen(port uint16) (lst net.Listener, err error) {
	if dev.stack == nil {
		return nil, fmt.Errorf("%w: interface not up", ErrHardwareFault)
	}
	listener, err := stacks.NewTCPListener(dev.stack, stacks.TCPListenerConfig{
		MaxConnections: 3,
		ConnTxBufSize:  1024,
		ConnRxBufSize:  1024,
	})
	if err != nil {
		return
	}
	if err = listener.StartListening(port); err != nil {
		return
	}
	return listener, nil
}

// Close stops the packet pump. The radio core stays powered until reset.
func (dev *Pico2WDevice) Close() error {
	dev.once.Do(func() {
		close(dev.quit)
	})
	return nil
}

// pump moves ethernet frames between the radio and the TCP/IP stack
// until the device is closed.
func (dev *Pico2WDevice) pump(stack *stacks.PortStack) {
	// Maximum number of packets to queue before sending them.
	const (
		queueSize                = 3
		maxRetriesBeforeDropping = 3
	)
	var queue [queueSize][mtu]byte
	var lenBuf [queueSize]int
	var retries [queueSize]int
	markSent := func(i int) {
		queue[i] = [mtu]byte{} // Not really necessary.
		lenBuf[i] = 0
		retries[i] = 0
	}
	for {
		select {
		case <-dev.quit:
			return
		default:
		}
		stallRx := true
		// Poll for incoming packets.
		for i := 0; i < 1; i++ {
			gotPacket, err := dev.ref.PollOne()
			if err != nil {
				println("poll error:", err.Error())
			}
			if !gotPacket {
				break
			}
			stallRx = false
		}

		// Queue packets to be sent.
		for i := range queue {
			if retries[i] != 0 {
				continue // Packet currently queued for retransmission.
			}
			var err error
			buf := queue[i][:]
			lenBuf[i], err = stack.HandleEth(buf[:])
			if err != nil {
				println("stack error n(should be 0)=", lenBuf[i], "err=", err.Error())
				lenBuf[i] = 0
				continue
			}
			if lenBuf[i] == 0 {
				break
			}
		}
		stallTx := lenBuf == [queueSize]int{}
		if stallTx {
			if stallRx {
				// Avoid busy waiting when both Rx and Tx stall.
				time.Sleep(51 * time.Millisecond)
			}
			continue
		}

		// Send queued packets.
		for i := range queue {
			n := lenBuf[i]
			if n <= 0 {
				continue
			}
			err := dev.ref.SendEth(queue[i][:n])
			if err != nil {
				// Queue packet for retransmission.
				retries[i]++
				if retries[i] > maxRetriesBeforeDropping {
					markSent(i)
					println("dropped outgoing packet:", err.Error())
				}
			} else {
				markSent(i)
			}
		}
	}
}
