// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tuitch - Twitch chat in the terminal.
package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/b-dont/tuitch/internal/cli"
)

// Version information (set at build time)
var (
	Version   = ""
	GitCommit = ""
)

func main() {
	if err := cli.Execute(context.Background(), version()); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}

// version prefers the linker-provided values, then the module build info.
func version() string {
	v := Version
	if v == "" {
		v = "dev"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	if GitCommit != "" {
		v += " (" + GitCommit + ")"
	}
	return v
}
