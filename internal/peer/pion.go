package peer

import (
	"github.com/pion/webrtc/v4"

	"github.com/gauravsingh786/peerchat/internal/config"
)

// pionSession adapts a pion PeerConnection to the SessionAPI the state
// machine drives.
type pionSession struct {
	pc *webrtc.PeerConnection
}

// NewPionFactory returns a SessionFactory building pion peer connections
// configured with the STUN servers from cfg. Address discovery only; no
// relay fallback.
func NewPionFactory(cfg *config.Config) SessionFactory {
	return func(local *LocalMedia) (SessionAPI, error) {
		pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{
				{URLs: cfg.STUNServers},
			},
		})
		if err != nil {
			return nil, err
		}

		if local != nil {
			if local.Audio != nil {
				if _, err := pc.AddTrack(local.Audio.Track()); err != nil {
					pc.Close()
					return nil, err
				}
			}
			if local.Video != nil {
				if _, err := pc.AddTrack(local.Video.Track()); err != nil {
					pc.Close()
					return nil, err
				}
			}
		}

		return &pionSession{pc: pc}, nil
	}
}

func (s *pionSession) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return *s.pc.LocalDescription(), nil
}

func (s *pionSession) CreateAnswer() (webrtc.SessionDescription, error) {
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return *s.pc.LocalDescription(), nil
}

func (s *pionSession) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return s.pc.SetRemoteDescription(desc)
}

func (s *pionSession) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return s.pc.AddICECandidate(candidate)
}

// ReplaceVideoTrack swaps the outgoing video track on the sender that
// currently carries video, without renegotiation.
func (s *pionSession) ReplaceVideoTrack(track webrtc.TrackLocal) error {
	for _, sender := range s.pc.GetSenders() {
		if sender.Track() != nil && sender.Track().Kind() == webrtc.RTPCodecTypeVideo {
			return sender.ReplaceTrack(track)
		}
	}
	return ErrNotNegotiated
}

func (s *pionSession) OnICECandidate(cb func(webrtc.ICECandidateInit)) {
	s.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		cb(candidate.ToJSON())
	})
}

func (s *pionSession) OnTrack(cb func(*webrtc.TrackRemote)) {
	s.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		cb(track)
	})
}

func (s *pionSession) OnConnectionStateChange(cb func(webrtc.PeerConnectionState)) {
	s.pc.OnConnectionStateChange(cb)
}

func (s *pionSession) Close() error {
	return s.pc.Close()
}
