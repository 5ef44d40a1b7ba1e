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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bfix/srvweb"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// command line options
var opts struct {
	config   string
	port     uint16
	diagPort uint16
	logFile  string
}

var rootCmd = &cobra.Command{
	Use:   "hostd",
	Short: "srvweb host daemon (simulated radio)",
	Long: `Hostd runs the srvweb device process on a plain host: the radio
interface is simulated, the page and the 9p diagnostics are served from
the host network stack. Intended for development and integration tests.`,
	Version:       srvweb.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&opts.config, "config", "c", "", "configuration file (YAML)")
	rootCmd.Flags().Uint16Var(&opts.port, "port", 0, "page port (overrides config)")
	rootCmd.Flags().Uint16Var(&opts.diagPort, "diag-port", 0, "9p diagnostics port (overrides config)")
	rootCmd.Flags().StringVar(&opts.logFile, "log-file", "", "rotating log file (overrides config)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Ports.HTTP = opts.port
	}
	if cmd.Flags().Changed("diag-port") {
		cfg.Ports.Diag = opts.diagPort
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = opts.logFile
	}

	// log to stderr, optionally duplicated into a rotating file
	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
	}
	logger := slog.New(slog.NewTextHandler(out, nil))

	bcfg, err := cfg.bringUpConfig()
	if err != nil {
		return err
	}

	// terminate on SIGINT/SIGTERM
	stop := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutdown requested")
		close(stop)
	}()

	boot := &srvweb.Bootstrap{
		Config:   bcfg,
		Port:     cfg.Ports.HTTP,
		DiagPort: cfg.Ports.Diag,
		Stop:     stop,
		Log:      logger,
	}
	return boot.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
