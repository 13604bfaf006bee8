package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName = "HuddleSessions"
	userIDKey   = "user_id"
)

// UserIdentityMiddleware issues every client a stable user id kept in the session cookie.
func UserIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		uid, _ := sess.Get("uid").(string)
		if uid == "" {
			uid = uuid.NewString()
			sess.Set("uid", uid)
			if err := sess.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

func userID(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString(userIDKey))
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, store app.RoomStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, cookieStore))
	r.Use(UserIdentityMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	rooms := &roomHandlers{
		store:   store,
		manager: o.Rooms,
		limiter: NewRoomRateLimiter(cfg.RoomCreateLimit, cfg.RoomCreateInterval),
	}
	api.GET("/room/:id", rooms.get)
	api.POST("/room/create", rooms.create)
	api.GET("/rooms", rooms.list)

	ctrl := signal.NewSignalWSController(o, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString(userIDKey)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c, userID(c))
	})

	return r
}

type roomHandlers struct {
	store   app.RoomStore
	manager core.RoomManager
	limiter *RoomRateLimiter
}

type roomResponse struct {
	Error *string      `json:"error"`
	Room  *domain.Room `json:"room,omitempty"`
	Host  bool         `json:"host"`
}

func errResponse(msg string) roomResponse {
	return roomResponse{Error: &msg}
}

// get reports the room record and whether the caller hosts it.
func (h *roomHandlers) get(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	room, err := h.store.GetRoom(c.Request.Context(), id)
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, errResponse("Invalid code or link"))
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("room lookup")
		c.JSON(http.StatusInternalServerError, errResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, roomResponse{Room: &room, Host: room.IsHost(userID(c))})
}

type createResponse struct {
	Error *string       `json:"error"`
	Room  domain.RoomID `json:"room,omitempty"`
}

func (h *roomHandlers) create(c *gin.Context) {
	uid := userID(c)
	if !h.limiter.Allow(uid) {
		msg := "too many rooms"
		c.JSON(http.StatusTooManyRequests, createResponse{Error: &msg})
		return
	}
	room, err := h.store.CreateRoom(c.Request.Context(), uid)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", string(uid)).Msg("create room")
		msg := "internal error"
		c.JSON(http.StatusInternalServerError, createResponse{Error: &msg})
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(room.ID)).Str("user", string(uid)).Msg("room created")
	c.JSON(http.StatusCreated, createResponse{Room: room.ID})
}

func (h *roomHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.manager.List()})
}
