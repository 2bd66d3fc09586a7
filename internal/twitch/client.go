// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package twitch is a minimal Twitch chat (IRC) client: it logs in, joins a
// channel, decodes inbound traffic into chat events and sends messages.
//
// There is no reconnection. When the connection ends the event channel is
// closed and the session winds down.
package twitch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/ergochat/irc-go/ircreader"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/b-dont/tuitch/internal/chat"
)

const (
	// DefaultServer is Twitch's TLS chat endpoint.
	DefaultServer = "irc.chat.twitch.tv:6697"

	// Twitch allows 20 messages per 30 seconds for regular users.
	messageBurst  = 20
	messagePeriod = 30 * time.Second

	// Line buffer sizes for the reader. Tagged lines stay well under 8 KiB.
	initialLineSize = 1024
	maxLineSize     = 16 * 1024

	eventBuffer  = 64
	writeTimeout = 10 * time.Second
)

var (
	// ErrNoChannel is returned when sending without a joined channel.
	ErrNoChannel = errors.New("not in a channel")

	// ErrClosed is returned for writes after the connection ended.
	ErrClosed = errors.New("chat connection closed")
)

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client.
type Options struct {
	User  string // Login name
	Token string // OAuth token, with or without the "oauth:" prefix
}

// Client is a connected chat session. Run must be called to read from the
// connection; Send, Join and Part may be called from any goroutine.
type Client struct {
	conn    net.Conn
	opts    Options
	logger  *zap.Logger
	limiter *rate.Limiter
	events  chan chat.Event

	wmu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}

	now func() time.Time
}

// Dial connects to server over TLS. Call Login and then Run.
func Dial(ctx context.Context, server string, opts Options, logger *zap.Logger) (*Client, error) {
	if server == "" {
		server = DefaultServer
	}
	host, _, err := net.SplitHostPort(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", server, err)
	}

	d := tls.Dialer{Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
	conn, err := d.DialContext(ctx, "tcp", server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", server, err)
	}
	return NewClient(conn, opts, logger), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		conn:    conn,
		opts:    opts,
		logger:  logger.Named("twitch"),
		limiter: rate.NewLimiter(rate.Every(messagePeriod/messageBurst), messageBurst),
		events:  make(chan chat.Event, eventBuffer),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Events returns the decoded event stream. It is closed when Run returns.
func (c *Client) Events() <-chan chat.Event {
	return c.events
}

// Login requests tags and commands capabilities, authenticates and joins
// channel when it is not empty.
func (c *Client) Login(ctx context.Context, channel string) error {
	token := c.opts.Token
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	lines := []ircmsg.Message{
		ircmsg.MakeMessage(nil, "", "CAP", "REQ", "twitch.tv/tags twitch.tv/commands"),
		ircmsg.MakeMessage(nil, "", "PASS", token),
		ircmsg.MakeMessage(nil, "", "NICK", chat.NormalizeChannel(c.opts.User)),
	}
	for _, msg := range lines {
		if err := c.write(ctx, msg); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}
	c.logger.Info("login sent", zap.String("user", c.opts.User))

	if channel == "" {
		return nil
	}
	return c.Join(ctx, channel)
}

// Run reads until the connection ends or Close is called. It answers PING
// and forwards every decodable message to Events. The event channel is
// closed on return; a clean close returns nil.
func (c *Client) Run() error {
	defer close(c.events)

	var reader ircreader.Reader
	reader.Initialize(c.conn, initialLineSize, maxLineSize)

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if c.closed() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.logger.Info("chat connection ended")
				return nil
			}
			c.logger.Warn("chat read failed", zap.Error(err))
			return fmt.Errorf("chat read failed: %w", err)
		}
		if len(line) == 0 {
			continue
		}

		msg, err := ircmsg.ParseLine(string(line))
		if err != nil {
			c.logger.Debug("skipping malformed line", zap.ByteString("line", line), zap.Error(err))
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg ircmsg.Message) {
	switch msg.Command {
	case "PING":
		pong := ircmsg.MakeMessage(nil, "", "PONG", msg.Params...)
		if err := c.write(context.Background(), pong); err != nil {
			c.logger.Warn("failed to answer PING", zap.Error(err))
		}
		return
	case "RECONNECT":
		c.logger.Warn("server requested reconnect; connection will close")
		return
	}

	e, ok := Decode(msg, c.now())
	if !ok {
		c.logger.Debug("unhandled message", zap.String("command", msg.Command))
		return
	}
	select {
	case c.events <- e:
	case <-c.done:
	}
}

// =============================================================================
// OUTGOING
// =============================================================================

// Send posts text to channel, waiting for the rate limiter when needed. user
// is the identity the session logged in with; it is only logged since the
// server attributes the message to the connection.
func (c *Client) Send(ctx context.Context, user, channel, text string) error {
	channel = chat.NormalizeChannel(channel)
	if channel == "" {
		return ErrNoChannel
	}
	text = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(text))
	if text == "" {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limited: %w", err)
	}

	nonce := uuid.NewString()
	msg := ircmsg.MakeMessage(map[string]string{"client-nonce": nonce}, "", "PRIVMSG", "#"+channel, text)
	if err := c.write(ctx, msg); err != nil {
		return err
	}
	c.logger.Debug("sent message", zap.String("user", user), zap.String("channel", channel), zap.String("nonce", nonce))
	return nil
}

// Join joins channel.
func (c *Client) Join(ctx context.Context, channel string) error {
	channel = chat.NormalizeChannel(channel)
	if channel == "" {
		return ErrNoChannel
	}
	return c.write(ctx, ircmsg.MakeMessage(nil, "", "JOIN", "#"+channel))
}

// Part leaves channel.
func (c *Client) Part(ctx context.Context, channel string) error {
	channel = chat.NormalizeChannel(channel)
	if channel == "" {
		return ErrNoChannel
	}
	return c.write(ctx, ircmsg.MakeMessage(nil, "", "PART", "#"+channel))
}

// Close ends the connection. Run returns shortly after.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// write serialises msg and writes it with a deadline taken from ctx.
func (c *Client) write(ctx context.Context, msg ircmsg.Message) error {
	if c.closed() {
		return ErrClosed
	}
	line, err := msg.LineBytesStrict(true, 0)
	if err != nil {
		return fmt.Errorf("invalid %s message: %w", msg.Command, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		c.logger.Debug("failed to set write deadline", zap.Error(err))
	}
	if _, err := c.conn.Write(line); err != nil {
		if c.closed() {
			return ErrClosed
		}
		return fmt.Errorf("failed to write %s: %w", msg.Command, err)
	}
	return nil
}
