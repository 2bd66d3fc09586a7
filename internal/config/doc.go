// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the tuitch configuration file.
//
// The file is TOML. It is read once at startup, before any terminal flow
// starts; environment variables override the file.
//
// Default location: $XDG_CONFIG_HOME/tuitch/config.toml (os.UserConfigDir).
//
// # Example
//
//	username = "mylogin"
//	token = "oauth:xxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
//	channel = "somestreamer"
//	# server = "irc.chat.twitch.tv:6697"
//	# command_prefix = ":"
//
//	[log]
//	# path = "/home/me/.cache/tuitch/tuitch.log"
//	level = "info"
//
//	[ui]
//	color = "auto"
package config
