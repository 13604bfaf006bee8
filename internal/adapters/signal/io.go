package signal

import (
	"context"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.KickBySID(sid)
		ctl.Orch.Disconnect(sid)
		c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, sid, data)
		}
	}
}

// handleSignal decodes one frame and routes it. Malformed or invalid frames are dropped.
func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, data []byte) {
	cmd, err := protocol.DecodeCommand(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		return
	}
	if err := protocol.Validate(cmd); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", cmd.Type()).Msg("invalid payload")
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("type", cmd.Type()).Msg("command")

	o := ctl.Orch
	switch m := cmd.(type) {
	case protocol.PeerOpenRequest:
		o.OpenPeer(sid)
	case protocol.Ping:
		o.Ping(sid)

	case protocol.JoinRequest:
		o.RequestJoin(ctx, sid, m)
	case protocol.AcceptRequest:
		o.Accept(sid, domain.PeerID(m))
	case protocol.RejectRequest:
		o.Reject(sid, domain.PeerID(m))
	case protocol.CountQuery:
		o.Count(ctx, sid, domain.RoomID(m))
	case protocol.RoomJoin:
		o.JoinRoom(sid, m)
	case protocol.UserLeave:
		o.Leave(sid)

	case protocol.HostMuteUser:
		o.MuteUser(sid, m)
	case protocol.HostRemoveUser:
		o.RemoveUser(sid, m)
	case protocol.HostRemoveSharedScreen:
		o.RemoveSharedScreen(sid, m)
	case protocol.ChangeControl:
		o.ChangeControl(ctx, sid, m)

	case protocol.ToggleAudio:
		o.ToggleAudio(sid)
	case protocol.ToggleVideo:
		o.ToggleVideo(sid)
	case protocol.DisableMicrophone:
		o.DisableMicrophone(sid)
	case protocol.DisableCamera:
		o.DisableCamera(sid)
	case protocol.ShareScreen:
		o.ShareScreen(sid)
	case protocol.StopShareScreen:
		o.StopShareScreen(sid)
	case protocol.SendReaction:
		o.Reaction(sid, m)
	case protocol.ChatPost:
		o.Chat(sid, m)

	case protocol.Offer:
		o.RelayOffer(sid, m)
	case protocol.Answer:
		o.RelayAnswer(sid, m)
	}
}
