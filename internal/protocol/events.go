// Package protocol defines the signaling wire format shared by the rendezvous
// server and call clients.
package protocol

const (
	TypePeerOpen = "peer:open"

	TypeRequestJoin     = "request:join"
	TypeRequestWaiting  = "request:waiting"
	TypeRequestAccept   = "request:accept"
	TypeRequestReject   = "request:reject"
	TypeRequestAccepted = "request:accepted"
	TypeRequestRejected = "request:rejected"

	TypeRoomJoin   = "room:join"
	TypeRoomJoined = "room:joined"
	TypeRoomCount  = "room:count"
	TypeRoomLeave  = "room:leave"

	TypeHostMuteUser                = "host:mute-user"
	TypeHostMutedUser               = "host:muted-user"
	TypeHostRemoveUser              = "host:remove-user"
	TypeHostRemovedUser             = "host:removed-user"
	TypeHostRemoveSharedScreen      = "host:remove-shared-screen"
	TypeHostRemovedUserSharedScreen = "host:removed-user-shared-screen"
	TypeHostChangeControl           = "host:change-control"

	TypeUserControlChanged     = "user:control-changed"
	TypeUserLeave              = "user:leave"
	TypeUserToggleAudio        = "user:toggle-audio"
	TypeUserToggledAudio       = "user:toggled-audio"
	TypeUserToggleVideo        = "user:toggle-video"
	TypeUserToggledVideo       = "user:toggled-video"
	TypeUserDisableMicrophone  = "user:disable-microphone"
	TypeUserDisableCamera      = "user:disable-camera"
	TypeUserShareScreen        = "user:share-screen"
	TypeUserSharedScreen       = "user:shared-screen"
	TypeUserStopShareScreen    = "user:stop-share-screen"
	TypeUserStoppedScreenShare = "user:stopped-screen-share"
	TypeUserReaction           = "user:reaction"
	TypeUserReacted            = "user:reacted"
	TypeUserReconnect          = "user:reconnect"

	TypeChatPost = "chat:post"
	TypeChatGet  = "chat:get"

	TypePeerOffer  = "peer:offer"
	TypePeerAnswer = "peer:answer"

	TypeErrorChangeControl = "error:change-control"
	TypeErrorJoin          = "error:join"
	TypeErrorToggleAudio   = "error:toggle-audio"
	TypeErrorToggleVideo   = "error:toggle-video"

	TypePing = "ping"
	TypePong = "pong"
)
