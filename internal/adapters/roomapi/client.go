// Package roomapi talks to the room REST endpoints of the rendezvous server.
package roomapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/domain"
)

var ErrRateLimited = errors.New("roomapi: too many rooms")

// Client resolves and creates rooms. Its cookie jar holds the identity
// cookie, so the signaling dialer must share it.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger zerolog.Logger
}

func New(serverURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:   base,
		http:   &http.Client{Jar: jar, Timeout: 10 * time.Second},
		logger: log.With().Str("module", "roomapi").Str("server", base.Host).Logger(),
	}, nil
}

func (c *Client) Jar() http.CookieJar { return c.http.Jar }

// SignalURL is the websocket endpoint on the same origin.
func (c *Client) SignalURL() string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/ws/signal"
	return u.String()
}

type roomResponse struct {
	Error *string      `json:"error"`
	Room  *domain.Room `json:"room"`
	Host  bool         `json:"host"`
}

type createResponse struct {
	Error *string       `json:"error"`
	Room  domain.RoomID `json:"room"`
}

// LookupRoom implements core.RoomLookup.
func (c *Client) LookupRoom(ctx context.Context, id domain.RoomID) (domain.Room, bool, error) {
	var out roomResponse
	status, err := c.do(ctx, http.MethodGet, "/api/room/"+url.PathEscape(string(id)), &out)
	if err != nil {
		return domain.Room{}, false, err
	}
	if status == http.StatusNotFound {
		return domain.Room{}, false, domain.ErrRoomNotFound
	}
	if out.Error != nil || out.Room == nil {
		return domain.Room{}, false, fmt.Errorf("lookup room %s: %s", id, errText(out.Error, status))
	}
	c.logger.Debug().Str("room", string(id)).Bool("host", out.Host).Msg("room resolved")
	return *out.Room, out.Host, nil
}

// CreateRoom implements core.RoomCreator.
func (c *Client) CreateRoom(ctx context.Context) (domain.RoomID, error) {
	var out createResponse
	status, err := c.do(ctx, http.MethodPost, "/api/room/create", &out)
	if err != nil {
		return "", err
	}
	if status == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if out.Error != nil || out.Room == "" {
		return "", fmt.Errorf("create room: %s", errText(out.Error, status))
	}
	c.logger.Info().Str("room", string(out.Room)).Msg("room created")
	return out.Room, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) (int, error) {
	u := *c.base
	u.Path = path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func errText(msg *string, status int) string {
	if msg != nil {
		return *msg
	}
	return http.StatusText(status)
}
