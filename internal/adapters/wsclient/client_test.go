package wsclient

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// echoServer answers ping with pong and peer:open with a fixed identity taken from the cookie.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := "anonymous"
		if ck, err := r.Cookie("uid"); err == nil {
			uid = ck.Value
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			cmd, err := protocol.DecodeCommand(data)
			if err != nil {
				_ = ws.WriteMessage(websocket.TextMessage, []byte("{broken"))
				continue
			}
			var reply protocol.Event
			switch cmd.(type) {
			case protocol.Ping:
				reply = protocol.Pong{}
			case protocol.PeerOpenRequest:
				reply = protocol.PeerOpened{PeerID: "p-1", UserID: domain.UserID(uid)}
			case protocol.UserLeave:
				return
			default:
				continue
			}
			b, err := protocol.Encode(reply)
			if err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func next(t *testing.T, c *Client) protocol.Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestSendAndReceive(t *testing.T) {
	srv := echoServer(t)
	c, err := Dial(context.Background(), wsURL(srv), Options{})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Send(protocol.Ping{}))
	assert.Equal(t, protocol.Event(protocol.Pong{}), next(t, c))
}

func TestCookieJarCarriesIdentity(t *testing.T) {
	srv := echoServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "uid", Value: "u-42"}})

	c, err := Dial(context.Background(), wsURL(srv), Options{Jar: jar})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Send(protocol.PeerOpenRequest{}))
	assert.Equal(t, protocol.Event(protocol.PeerOpened{PeerID: "p-1", UserID: "u-42"}), next(t, c))
}

func TestMalformedEventIsDropped(t *testing.T) {
	srv := echoServer(t)
	c, err := Dial(context.Background(), wsURL(srv), Options{})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	// the server answers an unknown command with a broken frame
	c.send <- []byte(`{"type":"nope"}`)
	require.NoError(t, c.Send(protocol.Ping{}))
	assert.Equal(t, protocol.Event(protocol.Pong{}), next(t, c))
}

func TestServerCloseEndsChannel(t *testing.T) {
	srv := echoServer(t)
	c, err := Dial(context.Background(), wsURL(srv), Options{})
	require.NoError(t, err)

	require.NoError(t, c.Send(protocol.UserLeave{RoomID: "r", PeerID: "p-1"}))
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done not closed")
	}
	require.Eventually(t, func() bool {
		_, ok := <-c.Events()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	c.Wait()
	assert.ErrorIs(t, c.Send(protocol.Ping{}), ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := echoServer(t)
	c, err := Dial(context.Background(), wsURL(srv), Options{})
	require.NoError(t, err)

	c.Close()
	c.Close()
	c.Wait()
	assert.ErrorIs(t, c.Send(protocol.Ping{}), ErrClosed)
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", Options{})
	require.Error(t, err)
}
