// This file is part of Poolprep
// Copyright (c) 2026 The Poolprep Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poolprep/poolprep/pkg/consts"
	"github.com/poolprep/poolprep/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// Version of this application populated by `go build`
// e.g. $ go build -ldflags="-X main.Version=v1.0.0"
var Version string

var (
	safeModeFlag bool
	logDirFlag   = consts.DefaultLogDir
	quietFlag    bool
)

var mainCmd = &cobra.Command{
	Use:           consts.AppName + " [--safe-mode] DEVICE",
	Short:         "Validate a storage device before admitting it into a redundant pool.",
	Long: consts.AppPrettyName + ` runs an ordered sequence of safety gates over a block device:
identity resolution, pool membership check, media classification, firmware
self-test, and — after explicit confirmation — a destructive multi-pass
write-and-verify test followed by a signature wipe.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return pipeline.NewError(pipeline.ErrUsage, "exactly one device path must be given")
		}
		return nil
	},
	RunE: func(c *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return pipeline.NewError(pipeline.ErrPrivilege, "%v must run as root", consts.AppName)
		}
		return runValidation(c.Context(), args[0], safeModeFlag)
	},
}

func init() {
	if mainCmd.Version == "" {
		mainCmd.Version = "0.0.0-dev"
	}

	viper.SetEnvPrefix(consts.AppCapsName)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	kflags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(kflags)
	mainCmd.PersistentFlags().AddGoFlagSet(kflags)

	mainCmd.PersistentFlags().BoolVar(&safeModeFlag, "safe-mode", safeModeFlag,
		"Run only the non-destructive checks; never write to the device")
	mainCmd.PersistentFlags().StringVar(&logDirFlag, "log-dir", logDirFlag,
		"Directory the session log is written to")
	mainCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", quietFlag,
		"Suppress printing error messages")

	mainCmd.PersistentFlags().MarkHidden("log-dir")
	mainCmd.PersistentFlags().MarkHidden("add_dir_header")
	mainCmd.PersistentFlags().MarkHidden("alsologtostderr")
	mainCmd.PersistentFlags().MarkHidden("log_backtrace_at")
	mainCmd.PersistentFlags().MarkHidden("log_dir")
	mainCmd.PersistentFlags().MarkHidden("log_file")
	mainCmd.PersistentFlags().MarkHidden("log_file_max_size")
	mainCmd.PersistentFlags().MarkHidden("logtostderr")
	mainCmd.PersistentFlags().MarkHidden("one_output")
	mainCmd.PersistentFlags().MarkHidden("skip_headers")
	mainCmd.PersistentFlags().MarkHidden("skip_log_headers")
	mainCmd.PersistentFlags().MarkHidden("stderrthreshold")
	mainCmd.PersistentFlags().MarkHidden("v")
	mainCmd.PersistentFlags().MarkHidden("vmodule")

	viper.BindPFlags(mainCmd.PersistentFlags())
}

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())

	// We must use a buffered channel or risk missing the signal
	// if we're not ready to receive when the signal is sent.
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signalCh:
			eprintf(quietFlag, false, "\nExiting on signal %v\n", sig)
			cancelFunc()
			os.Exit(1)
		case <-ctx.Done():
		}
	}()

	if err := mainCmd.ExecuteContext(ctx); err != nil {
		var perr *pipeline.Error
		if errors.As(err, &perr) {
			eprintf(quietFlag, true, "[%v] %v\n", perr.Kind, perr.Err)
		} else {
			eprintf(quietFlag, true, "%v\n", err)
		}
		os.Exit(1)
	}
}
