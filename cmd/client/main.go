// Command client joins a call as a headless participant with synthetic media.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Huddle/internal/adapters/roomapi"
	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/adapters/wsclient"
	"github.com/dkeye/Huddle/internal/call"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	cc := cfg.Client

	rooms, err := roomapi.New(cc.ServerURL)
	if err != nil {
		log.Fatal().Err(err).Msg("room api")
	}
	roomID := domain.RoomID(cc.RoomID)
	if roomID == "" {
		if !cc.CreateRoom {
			log.Fatal().Msg("client.room_id is empty and client.create_room is off")
		}
		if roomID, err = rooms.CreateRoom(ctx); err != nil {
			log.Fatal().Err(err).Msg("create room")
		}
		log.Info().Str("room", string(roomID)).Msg("share this code to invite others")
	}

	factory, err := rtc.NewFactory(cc.ICEServers)
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc factory")
	}

	for {
		reload, err := runSession(ctx, cfg, rooms, factory, roomID)
		if reload <= 0 || ctx.Err() != nil {
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("session ended")
				os.Exit(1)
			}
			log.Info().Msg("Client exited")
			return
		}
		log.Warn().Err(err).Dur("delay", reload).Msg("rejoining")
		select {
		case <-ctx.Done():
			return
		case <-time.After(reload):
		}
	}
}

// runSession runs one call attempt. A positive duration asks for a rejoin after that delay.
func runSession(ctx context.Context, cfg *config.Config, rooms *roomapi.Client, factory *rtc.Factory, roomID domain.RoomID) (time.Duration, error) {
	cc := cfg.Client
	sig, err := wsclient.Dial(ctx, rooms.SignalURL(), wsclient.Options{
		Jar:        rooms.Jar(),
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		SendBuffer: cfg.SendBuffer,
	})
	if err != nil {
		return 0, err
	}
	defer sig.Wait()

	var reload atomic.Int64
	notifier := call.NotifierFunc(func(n call.Notice) {
		ev := log.Info()
		if n.Kind == call.NoticeWarning || n.Kind == call.NoticeReload {
			ev = log.Warn()
		}
		ev.Str("module", "client").Str("kind", n.Kind.String()).Str("peer", string(n.PeerID)).Msg(n.Text)
		if n.Kind == call.NoticeReload {
			reload.Store(int64(n.Delay))
		}
	})

	devices := media.SyntheticDevices{AllowMicrophone: cc.Microphone, AllowCamera: cc.Camera, AllowDisplay: cc.Display}
	sink := &packetCounter{}
	session := call.New(call.Config{
		RoomID:         roomID,
		Name:           cc.Name,
		Photo:          cc.Photo,
		AutoAdmit:      cc.AutoAdmit,
		AdmitDelay:     cc.AdmitDelay,
		WaitingTimeout: cc.WaitingTimeout,
		ReloadDelay:    cc.ReloadDelay,
	}, call.Deps{
		Signal:   sig,
		Rooms:    rooms,
		Dialer:   factory,
		Media:    media.NewController(devices, uuid.NewString()),
		Notifier: notifier,
		Sink:     sink,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(gctx) })
	g.Go(func() error {
		watchRegistry(session, sink)
		return nil
	})
	err = g.Wait()
	return time.Duration(reload.Load()), err
}

// watchRegistry logs the participant view whenever it changes.
func watchRegistry(s *call.Session, sink *packetCounter) {
	logger := log.With().Str("module", "client").Logger()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	var last *call.Snapshot
	for {
		select {
		case <-s.Done():
			return
		case <-ticker.C:
		}
		snap := s.Registry().Snapshot()
		if snap == last {
			continue
		}
		last = snap
		arr := zerolog.Arr()
		for id, p := range snap.People {
			arr.Dict(zerolog.Dict().
				Str("peer", string(id)).
				Str("name", p.Name).
				Bool("muted", p.Muted).
				Bool("visible", p.Visible).
				Int("tracks", len(p.Tracks)).
				Int64("packets", sink.count(id)))
		}
		logger.Info().
			Str("state", s.State().String()).
			Int("count", snap.Count).
			Int("waiting", len(snap.Waiting)).
			Str("presenter", string(snap.PresentID)).
			Array("people", arr).
			Msg("registry")
	}
}

// packetCounter stands in for a renderer.
type packetCounter struct {
	mu   sync.Mutex
	seen map[domain.PeerID]int64
}

func (p *packetCounter) WriteRTP(peer domain.PeerID, _ string, _ *rtp.Packet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen == nil {
		p.seen = make(map[domain.PeerID]int64)
	}
	p.seen[peer]++
}

func (p *packetCounter) count(peer domain.PeerID) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[peer]
}
