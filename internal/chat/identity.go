// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
)

// Identity is who we are and where we are talking. The user is fixed for
// the session; the channel changes when the user joins another one.
type Identity struct {
	user string

	mu      sync.RWMutex
	channel string
}

// NewIdentity creates an identity for user, starting in channel (which may
// be empty).
func NewIdentity(user, channel string) *Identity {
	return &Identity{
		user:    NormalizeChannel(user),
		channel: NormalizeChannel(channel),
	}
}

// User returns the login used for outgoing messages.
func (i *Identity) User() string {
	return i.user
}

// Channel returns the current target channel, or "" when not in one.
func (i *Identity) Channel() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.channel
}

// SetChannel switches the target channel and returns the previous one.
func (i *Identity) SetChannel(channel string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	prev := i.channel
	i.channel = NormalizeChannel(channel)
	return prev
}

// NormalizeChannel lowercases a channel or login and strips a leading '#'.
func NormalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "#")
	return strings.ToLower(name)
}
