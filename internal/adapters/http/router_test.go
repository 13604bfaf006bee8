package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/storage"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	cfg := &config.Config{
		Mode:               "release",
		StaticPath:         t.TempDir(),
		Secret:             "test-secret",
		SendBuffer:         8,
		RoomCreateLimit:    1,
		RoomCreateInterval: time.Minute,
	}
	o := orch.New(app.NewRegistry(), app.NewRoomManager(store), store, app.SimplePolicy{})
	return SetupRouter(context.Background(), cfg, o, store)
}

func do(r http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetUnknownRoom(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodGet, "/api/room/abc-defg-hij", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Invalid code or link","host":false}`, w.Body.String())
}

func TestCreateRoomThenHostLookup(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/room/create", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Error *string       `json:"error"`
		Room  domain.RoomID `json:"room"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Nil(t, created.Error)
	require.NotEmpty(t, created.Room)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = do(r, http.MethodGet, "/api/room/"+string(created.Room), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var got roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Host)
	assert.Equal(t, created.Room, got.Room.ID)

	// a stranger without the session cookie is not the host
	w = do(r, http.MethodGet, "/api/room/"+string(created.Room), nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Host)

	// the second creation within the window is refused
	w = do(r, http.MethodPost, "/api/room/create", cookies)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRoomRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("u"))
	assert.True(t, rl.Allow("u"))
	assert.False(t, rl.Allow("u"))
	assert.True(t, rl.Allow("other"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("u"))
}
