package rtc

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// Factory dials mesh links sharing one media engine and interceptor chain.
type Factory struct {
	api *webrtc.API
	cfg webrtc.Configuration
}

func DefaultWebRTCConfig(iceServers []string) webrtc.Configuration {
	if len(iceServers) == 0 {
		return webrtc.Configuration{}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: iceServers,
			},
		},
	}
}

func NewFactory(iceServers []string) (*Factory, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, ir); err != nil {
		return nil, err
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(ir))
	return &Factory{api: api, cfg: DefaultWebRTCConfig(iceServers)}, nil
}

func (f *Factory) NewConnection(peer domain.PeerID) (core.MediaConnection, error) {
	return NewWebRTCConnection(f.api, f.cfg, peer)
}
