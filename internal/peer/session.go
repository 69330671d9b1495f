package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle of one peer session.
type State int32

const (
	// Idle: no media acquired, no session object.
	Idle State = iota

	// AwaitingLocalMedia: local join started, capture in progress.
	AwaitingLocalMedia

	// Negotiating: session object exists, offer/answer exchange under way.
	Negotiating

	// Connected: the transport reported a connected state.
	Connected

	// Closed: terminal. A fresh Session is required to renegotiate.
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingLocalMedia:
		return "awaiting-local-media"
	case Negotiating:
		return "negotiating"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionAPI is the slice of the media session library the state machine
// drives. The production implementation wraps a pion PeerConnection; tests
// substitute a fake.
//
// CreateOffer and CreateAnswer both apply the produced description locally
// before returning it, mirroring the create-then-set-local handshake halves.
type SessionAPI interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	ReplaceVideoTrack(webrtc.TrackLocal) error
	OnICECandidate(func(webrtc.ICECandidateInit))
	OnTrack(func(*webrtc.TrackRemote))
	OnConnectionStateChange(func(webrtc.PeerConnectionState))
	Close() error
}

// SessionFactory constructs a session object carrying the given local tracks.
// local may be nil when a session is created lazily to answer a remote offer
// before any media was captured.
type SessionFactory func(local *LocalMedia) (SessionAPI, error)

// Signaler sends outbound negotiation messages through the relay. Payloads
// are opaque to the relay; the session marshals and unmarshals them here.
type Signaler interface {
	SendOffer(roomID string, payload []byte)
	SendAnswer(roomID string, payload []byte)
	SendICECandidate(roomID string, payload []byte)
}

// Session is the client-side negotiation state machine for one remote
// participant. It is advanced by inbound relay events (HandleOffer,
// HandleAnswer, HandleICECandidate, HandleUserJoined, HandleUserLeft) and by
// asynchronous callbacks from the session object. All methods are safe for
// concurrent use; internally a single mutex keeps the machine sequential.
type Session struct {
	mu sync.Mutex

	state      State
	roomID     string
	media      MediaSource
	newSession SessionFactory
	signals    Signaler

	api    SessionAPI
	local  *LocalMedia
	camera *LocalTrack // outgoing camera video, kept for restoring after a share
	screen *LocalTrack

	// pending buffers candidates that arrived before a remote description.
	pending    []webrtc.ICECandidateInit
	remoteDesc bool
	localOffer bool

	// OnRemoteTrack fires when the remote side's media arrives.
	OnRemoteTrack func(*webrtc.TrackRemote)

	// OnStateChange fires on every state transition.
	OnStateChange func(State)

	log *logrus.Entry
}

// NewSession creates an idle session for the given room.
func NewSession(roomID string, media MediaSource, factory SessionFactory, signals Signaler) *Session {
	return &Session{
		state:      Idle,
		roomID:     roomID,
		media:      media,
		newSession: factory,
		signals:    signals,
		log:        logrus.WithFields(logrus.Fields{"component": "peer", "room": roomID}),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join acquires exclusive local capture and constructs the session object.
// A capture failure is recoverable: the session returns to Idle and Join may
// be called again.
func (s *Session) Join() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return WrapError("join", ErrSessionClosed, "session already started")
	}

	s.setStateLocked(AwaitingLocalMedia)

	local, err := s.media.AcquireCamera()
	if err != nil {
		s.setStateLocked(Idle)
		return err
	}
	s.local = local
	s.camera = local.Video

	if err := s.ensureSessionLocked(); err != nil {
		s.local.Close()
		s.local = nil
		s.camera = nil
		s.setStateLocked(Idle)
		return err
	}

	s.setStateLocked(Negotiating)
	return nil
}

// HandleUserJoined reacts to a new remote participant: the side that observes
// the arrival initiates by synthesizing an offer, applying it locally and
// sending it through the relay.
func (s *Session) HandleUserJoined(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Negotiating {
		s.log.WithFields(logrus.Fields{"name": name, "state": s.state}).
			Debug("ignoring participant arrival")
		return nil
	}

	offer, err := s.api.CreateOffer()
	if err != nil {
		return NewError("create offer", err)
	}
	s.localOffer = true

	payload, err := json.Marshal(offer)
	if err != nil {
		return NewError("marshal offer", err)
	}
	s.signals.SendOffer(s.roomID, payload)

	s.log.WithField("name", name).Info("sent offer to new participant")
	return nil
}

// HandleOffer applies a remote offer, constructing the session object lazily
// when none exists yet, then synthesizes an answer, applies it locally and
// sends it back.
func (s *Session) HandleOffer(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return NewError("handle offer", ErrSessionClosed)
	}

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return WrapError("handle offer", ErrBadDescription, err.Error())
	}

	if err := s.ensureSessionLocked(); err != nil {
		return err
	}

	if err := s.api.SetRemoteDescription(offer); err != nil {
		return NewError("apply remote offer", err)
	}
	s.remoteDesc = true
	s.flushPendingLocked()

	answer, err := s.api.CreateAnswer()
	if err != nil {
		return NewError("create answer", err)
	}

	out, err := json.Marshal(answer)
	if err != nil {
		return NewError("marshal answer", err)
	}
	s.signals.SendAnswer(s.roomID, out)

	if s.state == Idle || s.state == AwaitingLocalMedia {
		s.setStateLocked(Negotiating)
	}
	return nil
}

// HandleAnswer applies a remote answer to our outstanding offer. An answer
// with no matching offer is a recoverable error; the session stays usable
// for a fresh offer cycle.
func (s *Session) HandleAnswer(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return NewError("handle answer", ErrSessionClosed)
	}
	if s.api == nil || !s.localOffer {
		return NewError("handle answer", ErrNoPendingOffer)
	}

	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return WrapError("handle answer", ErrBadDescription, err.Error())
	}

	if err := s.api.SetRemoteDescription(answer); err != nil {
		return NewError("apply remote answer", err)
	}
	s.remoteDesc = true
	s.flushPendingLocked()

	// Connected is reached asynchronously through the transport's
	// connection-state callback, not here.
	return nil
}

// HandleICECandidate applies a remote network candidate. Candidates arriving
// before a remote description are buffered and applied once one exists.
func (s *Session) HandleICECandidate(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return NewError("handle candidate", ErrSessionClosed)
	}

	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return WrapError("handle candidate", ErrBadCandidate, err.Error())
	}

	if s.api == nil || !s.remoteDesc {
		s.pending = append(s.pending, candidate)
		return nil
	}

	if err := s.api.AddICECandidate(candidate); err != nil {
		return NewError("add candidate", err)
	}
	return nil
}

// HandleUserLeft tears the session down when the remote participant departs.
func (s *Session) HandleUserLeft(name string) {
	s.log.WithField("name", name).Info("remote participant left")
	s.Close()
}

// SetAudioEnabled mutes or unmutes the outgoing audio track in place.
// Negotiation state is unaffected.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local != nil && s.local.Audio != nil {
		s.local.Audio.SetEnabled(enabled)
	}
}

// SetVideoEnabled mutes or unmutes the outgoing video track in place.
// Negotiation state is unaffected.
func (s *Session) SetVideoEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local != nil && s.local.Video != nil {
		s.local.Video.SetEnabled(enabled)
	}
}

// ShareScreen substitutes the outgoing video track with a captured screen
// track. This is a track replacement on the already-negotiated session, not
// a re-offer.
func (s *Session) ShareScreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api == nil {
		return NewError("share screen", ErrNoSession)
	}
	if s.screen != nil {
		return nil // already sharing
	}

	screen, err := s.media.AcquireScreen()
	if err != nil {
		return err
	}

	if err := s.api.ReplaceVideoTrack(screen.Track()); err != nil {
		screen.Close()
		return NewError("share screen", err)
	}
	s.screen = screen
	s.log.Info("screen share started")
	return nil
}

// StopScreenShare restores the camera as the outgoing video track and
// releases the screen capture.
func (s *Session) StopScreenShare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen == nil {
		return nil
	}
	if s.camera != nil {
		if err := s.api.ReplaceVideoTrack(s.camera.Track()); err != nil {
			return NewError("stop screen share", err)
		}
	}
	s.screen.Close()
	s.screen = nil
	s.log.Info("screen share stopped")
	return nil
}

// Close tears the session down: the session object and every captured track
// are released on this and every other exit path. Close is idempotent and
// Closed is terminal.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return
	}

	if s.api != nil {
		if err := s.api.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close session object")
		}
		s.api = nil
	}
	if s.screen != nil {
		s.screen.Close()
		s.screen = nil
	}
	s.local.Close()
	s.local = nil
	s.camera = nil
	s.pending = nil

	s.setStateLocked(Closed)
}

// ensureSessionLocked constructs the session object on first use and wires
// its callbacks.
func (s *Session) ensureSessionLocked() error {
	if s.api != nil {
		return nil
	}

	api, err := s.newSession(s.local)
	if err != nil {
		return NewError("create session", err)
	}
	s.api = api

	api.OnICECandidate(func(candidate webrtc.ICECandidateInit) {
		payload, err := json.Marshal(candidate)
		if err != nil {
			s.log.WithError(err).Warn("failed to marshal local candidate")
			return
		}
		s.signals.SendICECandidate(s.roomID, payload)
	})

	api.OnTrack(func(track *webrtc.TrackRemote) {
		s.log.Info("remote track arrived")
		if s.OnRemoteTrack != nil {
			s.OnRemoteTrack(track)
		}
	})

	api.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.handleConnectionState(state)
	})

	return nil
}

// handleConnectionState advances the machine on asynchronous transport
// callbacks.
func (s *Session) handleConnectionState(state webrtc.PeerConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.WithField("transport", state.String()).Debug("connection state changed")

	switch state {
	case webrtc.PeerConnectionStateConnected:
		if s.state != Closed {
			s.setStateLocked(Connected)
		}
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected:
		s.log.WithField("transport", state.String()).Warn("transport degraded")
	}
}

// flushPendingLocked applies buffered early candidates in arrival order.
func (s *Session) flushPendingLocked() {
	for _, candidate := range s.pending {
		if err := s.api.AddICECandidate(candidate); err != nil {
			s.log.WithError(err).Warn("failed to apply buffered candidate")
		}
	}
	s.pending = nil
}

func (s *Session) setStateLocked(state State) {
	if s.state == state {
		return
	}
	s.state = state
	s.log.WithField("state", state.String()).Debug("session state changed")
	if s.OnStateChange != nil {
		s.OnStateChange(state)
	}
}
