package domain

type Access string

const (
	AccessOpen    Access = "open"
	AccessTrusted Access = "trusted"
)

// ControlPolicy is the host-authored permission set of a room.
type ControlPolicy struct {
	HostManagement   bool   `json:"hostManagement"`
	AllowShareScreen bool   `json:"allowShareScreen"`
	AllowSendChat    bool   `json:"allowSendChat"`
	AllowReaction    bool   `json:"allowReaction"`
	AllowMicrophone  bool   `json:"allowMicrophone"`
	AllowVideo       bool   `json:"allowVideo"`
	RequireHost      bool   `json:"requireHost"`
	Access           Access `json:"access" validate:"oneof=open trusted"`
}

func DefaultControl() ControlPolicy {
	return ControlPolicy{
		AllowShareScreen: true,
		AllowSendChat:    true,
		AllowReaction:    true,
		AllowMicrophone:  true,
		AllowVideo:       true,
		Access:           AccessTrusted,
	}
}

// ControlPatch is a partial policy update; nil fields are left untouched.
type ControlPatch struct {
	HostManagement   *bool
	AllowShareScreen *bool
	AllowSendChat    *bool
	AllowReaction    *bool
	AllowMicrophone  *bool
	AllowVideo       *bool
	RequireHost      *bool
	Access           *Access
}

// FullPatch turns a complete policy into a patch that overwrites every field.
func FullPatch(c ControlPolicy) ControlPatch {
	return ControlPatch{
		HostManagement:   &c.HostManagement,
		AllowShareScreen: &c.AllowShareScreen,
		AllowSendChat:    &c.AllowSendChat,
		AllowReaction:    &c.AllowReaction,
		AllowMicrophone:  &c.AllowMicrophone,
		AllowVideo:       &c.AllowVideo,
		RequireHost:      &c.RequireHost,
		Access:           &c.Access,
	}
}

// Apply returns a copy of c with the non-nil fields of p merged in.
func (c ControlPolicy) Apply(p ControlPatch) ControlPolicy {
	if p.HostManagement != nil {
		c.HostManagement = *p.HostManagement
	}
	if p.AllowShareScreen != nil {
		c.AllowShareScreen = *p.AllowShareScreen
	}
	if p.AllowSendChat != nil {
		c.AllowSendChat = *p.AllowSendChat
	}
	if p.AllowReaction != nil {
		c.AllowReaction = *p.AllowReaction
	}
	if p.AllowMicrophone != nil {
		c.AllowMicrophone = *p.AllowMicrophone
	}
	if p.AllowVideo != nil {
		c.AllowVideo = *p.AllowVideo
	}
	if p.RequireHost != nil {
		c.RequireHost = *p.RequireHost
	}
	if p.Access != nil {
		c.Access = *p.Access
	}
	return c
}

// Action is a privileged participant action gated by the policy.
type Action int

const (
	ActionMicrophone Action = iota
	ActionVideo
	ActionShareScreen
	ActionSendChat
	ActionReaction
)

func (a Action) String() string {
	switch a {
	case ActionMicrophone:
		return "microphone"
	case ActionVideo:
		return "video"
	case ActionShareScreen:
		return "share-screen"
	case ActionSendChat:
		return "send-chat"
	case ActionReaction:
		return "reaction"
	}
	return "unknown"
}

// Allows reports whether a participant may perform a. Hosts bypass every check.
func (c ControlPolicy) Allows(a Action, host bool) bool {
	if host {
		return true
	}
	switch a {
	case ActionMicrophone:
		return c.AllowMicrophone
	case ActionVideo:
		return c.AllowVideo
	case ActionShareScreen:
		return c.AllowShareScreen
	case ActionSendChat:
		return c.AllowSendChat
	case ActionReaction:
		return c.AllowReaction
	}
	return false
}
