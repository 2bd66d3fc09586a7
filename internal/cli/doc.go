// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the tuitch command line and the session that ties the
// terminal flows to a chat connection.
//
// # Key Types
//
//   - Session: runs the key event processor, the inbound event printer and
//     the command dispatcher until shutdown, then tears everything down
//   - ChatClient: the connection a session drives (twitch.Client in
//     production)
//
// # Commands
//
//   - tuitch: connect and chat (--config, --channel, --log-file, --debug)
//   - tuitch init: write a starter config file
//   - tuitch version: print the version
//
// Errors map to exit codes with GetExitCode: 2 for usage, 3 for
// configuration, 5 for connection failures, 1 otherwise.
package cli
