package media

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/pion/rtp"
)

var (
	ErrPermissionDenied = errors.New("media: permission denied")
	ErrNoStream         = errors.New("media: no local stream")
)

// Source is one captured device feed.
type Source interface {
	ReadRTP() (*rtp.Packet, error)
	Close() error
}

// Devices is the capture collaborator: each call prompts for and opens one feed.
type Devices interface {
	Microphone(ctx context.Context) (Source, error)
	Camera(ctx context.Context) (Source, error)
	Display(ctx context.Context) (Source, error)
}

// SyntheticDevices produces fixed-rate synthetic feeds for headless participants.
type SyntheticDevices struct {
	AllowMicrophone bool
	AllowCamera     bool
	AllowDisplay    bool
}

func (d SyntheticDevices) Microphone(context.Context) (Source, error) {
	if !d.AllowMicrophone {
		return nil, ErrPermissionDenied
	}
	// opus silence frame
	return newTicker(20*time.Millisecond, 111, 960, []byte{0xf8, 0xff, 0xfe}), nil
}

func (d SyntheticDevices) Camera(context.Context) (Source, error) {
	if !d.AllowCamera {
		return nil, ErrPermissionDenied
	}
	return newTicker(33*time.Millisecond, 96, 3000, []byte{0x10, 0x02, 0x00, 0x9d, 0x01, 0x2a}), nil
}

func (d SyntheticDevices) Display(context.Context) (Source, error) {
	if !d.AllowDisplay {
		return nil, ErrPermissionDenied
	}
	return newTicker(100*time.Millisecond, 96, 9000, []byte{0x10, 0x02, 0x00, 0x9d, 0x01, 0x2a}), nil
}

type tickerSource struct {
	ticker  *time.Ticker
	pt      uint8
	step    uint32
	payload []byte

	seq  uint16
	ts   uint32
	once sync.Once
	quit chan struct{}
}

func newTicker(every time.Duration, pt uint8, step uint32, payload []byte) *tickerSource {
	return &tickerSource{
		ticker:  time.NewTicker(every),
		pt:      pt,
		step:    step,
		payload: payload,
		quit:    make(chan struct{}),
	}
}

func (s *tickerSource) ReadRTP() (*rtp.Packet, error) {
	select {
	case <-s.quit:
		return nil, io.EOF
	case <-s.ticker.C:
	}
	s.seq++
	s.ts += s.step
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    s.pt,
			SequenceNumber: s.seq,
			Timestamp:      s.ts,
			Marker:         true,
		},
		Payload: s.payload,
	}, nil
}

func (s *tickerSource) Close() error {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.quit)
	})
	return nil
}
