// Package wsclient is the participant side of the signaling websocket.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Huddle/internal/protocol"
)

var (
	ErrBackpressure = errors.New("wsclient: send buffer full")
	ErrClosed       = errors.New("wsclient: connection closed")
)

const writeWait = 5 * time.Second

type Options struct {
	// Jar carries the identity cookie issued by the room API.
	Jar        http.CookieJar
	Header     http.Header
	PingPeriod time.Duration
	PongWait   time.Duration
	SendBuffer int
}

func (o *Options) defaults() {
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
}

// Client implements core.SignalChannel over one websocket connection.
type Client struct {
	conn   *websocket.Conn
	opts   Options
	logger zerolog.Logger

	send   chan []byte
	events chan protocol.Event
	done   chan struct{}
	once   sync.Once
	pumps  conc.WaitGroup
}

// Dial opens the signaling websocket at url and starts its pumps.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	opts.defaults()
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
		Jar:              opts.Jar,
	}
	conn, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial signal %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		opts:   opts,
		logger: log.With().Str("module", "wsclient").Str("url", url).Logger(),
		send:   make(chan []byte, opts.SendBuffer),
		events: make(chan protocol.Event, opts.SendBuffer),
		done:   make(chan struct{}),
	}
	c.pumps.Go(c.readPump)
	c.pumps.Go(c.writePump)
	c.logger.Info().Msg("signal connected")
	return c, nil
}

// Send queues cmd without blocking.
func (c *Client) Send(cmd protocol.Command) error {
	data, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrBackpressure
	}
}

func (c *Client) Events() <-chan protocol.Event { return c.events }

func (c *Client) Done() <-chan struct{} { return c.done }

// Close is idempotent. Pumps exit on their own once the socket is gone.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = c.conn.Close()
	})
}

// Wait blocks until both pumps have returned.
func (c *Client) Wait() { c.pumps.Wait() }

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn().Err(err).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Warn().Err(err).Msg("writePump ping")
				return
			}
		}
	}
}

// readPump is the only writer of events and closes it on exit.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		close(c.events)
		c.logger.Info().Msg("readPump closing")
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		err := c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("readPump read error")
			}
			return
		}
		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed event")
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}
