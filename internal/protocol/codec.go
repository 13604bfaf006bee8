package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadEnvelope  = errors.New("bad envelope")
)

// Envelope is the text frame layout: {"type": "...", "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{m.Type(), m})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	return b, nil
}

func open(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrBadEnvelope)
	}
	return env, nil
}

func as[T Message](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", v.Type(), err)
	}
	return v, nil
}

// DecodeCommand parses a client frame into its typed command.
func DecodeCommand(data []byte) (Command, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case TypePeerOpen:
		return as[PeerOpenRequest](env.Data)
	case TypeRequestJoin:
		return as[JoinRequest](env.Data)
	case TypeRequestAccept:
		return as[AcceptRequest](env.Data)
	case TypeRequestReject:
		return as[RejectRequest](env.Data)
	case TypeRoomCount:
		return as[CountQuery](env.Data)
	case TypeRoomJoin:
		return as[RoomJoin](env.Data)
	case TypeHostMuteUser:
		return as[HostMuteUser](env.Data)
	case TypeHostRemoveUser:
		return as[HostRemoveUser](env.Data)
	case TypeHostRemoveSharedScreen:
		return as[HostRemoveSharedScreen](env.Data)
	case TypeHostChangeControl:
		return as[ChangeControl](env.Data)
	case TypeUserLeave:
		return as[UserLeave](env.Data)
	case TypeUserToggleAudio:
		return as[ToggleAudio](env.Data)
	case TypeUserToggleVideo:
		return as[ToggleVideo](env.Data)
	case TypeUserDisableMicrophone:
		return as[DisableMicrophone](env.Data)
	case TypeUserDisableCamera:
		return as[DisableCamera](env.Data)
	case TypeUserShareScreen:
		return as[ShareScreen](env.Data)
	case TypeUserStopShareScreen:
		return as[StopShareScreen](env.Data)
	case TypeUserReaction:
		return as[SendReaction](env.Data)
	case TypeChatPost:
		return as[ChatPost](env.Data)
	case TypePeerOffer:
		return as[Offer](env.Data)
	case TypePeerAnswer:
		return as[Answer](env.Data)
	case TypePing:
		return as[Ping](env.Data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

// DecodeEvent parses a server frame into its typed event.
func DecodeEvent(data []byte) (Event, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case TypePeerOpen:
		return as[PeerOpened](env.Data)
	case TypeRequestWaiting:
		return as[Waiting](env.Data)
	case TypeRequestAccepted:
		return as[Accepted](env.Data)
	case TypeRequestRejected:
		return as[Rejected](env.Data)
	case TypeRoomJoined:
		return as[Joined](env.Data)
	case TypeRoomCount:
		return as[Count](env.Data)
	case TypeRoomLeave:
		return as[Left](env.Data)
	case TypeHostMutedUser:
		return as[MutedUser](env.Data)
	case TypeHostRemovedUser:
		return as[RemovedUser](env.Data)
	case TypeHostRemovedUserSharedScreen:
		return as[RemovedSharedScreen](env.Data)
	case TypeUserControlChanged:
		return as[ControlChanged](env.Data)
	case TypeUserToggledAudio:
		return as[ToggledAudio](env.Data)
	case TypeUserToggledVideo:
		return as[ToggledVideo](env.Data)
	case TypeUserDisableMicrophone:
		return as[MicrophoneDisabled](env.Data)
	case TypeUserDisableCamera:
		return as[CameraDisabled](env.Data)
	case TypeUserSharedScreen:
		return as[SharedScreen](env.Data)
	case TypeUserStoppedScreenShare:
		return as[StoppedScreenShare](env.Data)
	case TypeUserReacted:
		return as[Reacted](env.Data)
	case TypeUserReconnect:
		return as[Reconnect](env.Data)
	case TypeChatGet:
		return as[ChatReceived](env.Data)
	case TypePeerOffer:
		return as[Offer](env.Data)
	case TypePeerAnswer:
		return as[Answer](env.Data)
	case TypeErrorChangeControl:
		return as[ChangeControlFailed](env.Data)
	case TypeErrorJoin:
		return as[JoinFailed](env.Data)
	case TypeErrorToggleAudio:
		return as[ToggleAudioFailed](env.Data)
	case TypeErrorToggleVideo:
		return as[ToggleVideoFailed](env.Data)
	case TypePong:
		return as[Pong](env.Data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks inbound command payloads before the server acts on them.
func Validate(cmd Command) error {
	switch c := cmd.(type) {
	case AcceptRequest:
		return validate.Var(string(c), "required,max=64")
	case RejectRequest:
		return validate.Var(string(c), "required,max=64")
	case CountQuery:
		return validate.Var(string(c), "required,max=64")
	case PeerOpenRequest, Ping:
		return nil
	}
	return validate.Struct(cmd)
}
