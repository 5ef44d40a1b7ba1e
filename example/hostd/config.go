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
	"fmt"
	"os"
	"time"

	"github.com/bfix/srvweb"
	"gopkg.in/yaml.v2"
)

// DaemonConfig is the hostd configuration.
type DaemonConfig struct {
	Network  NetworkConfig  `yaml:"network"`
	Ports    PortsConfig    `yaml:"ports"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Log      LogConfig      `yaml:"log"`
}

// NetworkConfig holds the bring-up settings.
type NetworkConfig struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
	Mode       string `yaml:"mode"` // "station" or "ap"
	Hostname   string `yaml:"hostname"`
}

// PortsConfig holds the service ports.
type PortsConfig struct {
	HTTP uint16 `yaml:"http"`
	Diag uint16 `yaml:"diag"` // 0 disables diagnostics
}

// TimeoutsConfig holds the bring-up phase bounds in seconds.
type TimeoutsConfig struct {
	JoinSec  int `yaml:"joinSec"`
	LeaseSec int `yaml:"leaseSec"`
}

// LogConfig holds the rotating log file settings.
type LogConfig struct {
	File       string `yaml:"file"` // empty logs to stderr only
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// defaultConfig returns the built-in configuration.
func defaultConfig() *DaemonConfig {
	return &DaemonConfig{
		Network: NetworkConfig{
			SSID:     "simnet",
			Mode:     "station",
			Hostname: "srvweb",
		},
		Ports: PortsConfig{
			HTTP: 8080,
			Diag: 5640,
		},
		Timeouts: TimeoutsConfig{
			JoinSec:  30,
			LeaseSec: 20,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// loadConfig assembles the configuration: defaults, then the file (when
// given), then environment overrides.
func loadConfig(path string) (*DaemonConfig, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %v", path, err)
		}
	}
	applyEnv(cfg)
	if cfg.Timeouts.JoinSec <= 0 || cfg.Timeouts.LeaseSec <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment.
func applyEnv(cfg *DaemonConfig) {
	if v := os.Getenv("SRVWEB_SSID"); v != "" {
		cfg.Network.SSID = v
	}
	if v := os.Getenv("SRVWEB_PSK"); v != "" {
		cfg.Network.Passphrase = v
	}
	if v := os.Getenv("SRVWEB_MODE"); v != "" {
		cfg.Network.Mode = v
	}
	if v := os.Getenv("SRVWEB_HOSTNAME"); v != "" {
		cfg.Network.Hostname = v
	}
}

// bringUpConfig maps the daemon settings to a bring-up configuration.
func (cfg *DaemonConfig) bringUpConfig() (out srvweb.Config, err error) {
	var mode srvweb.Mode
	switch cfg.Network.Mode {
	case "station", "sta":
		mode = srvweb.ModeStation
	case "ap", "access-point":
		mode = srvweb.ModeAccessPoint
	default:
		err = fmt.Errorf("%w: unknown mode %q", srvweb.ErrConfigInvalid, cfg.Network.Mode)
		return
	}
	out = srvweb.Config{
		SSID:       cfg.Network.SSID,
		Passphrase: cfg.Network.Passphrase,
		Mode:       mode,
		Hostname:   cfg.Network.Hostname,
		Timeouts: srvweb.Timeouts{
			Join:  time.Duration(cfg.Timeouts.JoinSec) * time.Second,
			Lease: time.Duration(cfg.Timeouts.LeaseSec) * time.Second,
		},
	}
	return
}
