package peer

import (
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

// LocalTrack wraps an outgoing media track together with its capture
// lifecycle. The session owns its tracks exclusively: enabling and disabling
// mutate the track in place without touching negotiation state, and Close
// releases the underlying capture exactly once.
type LocalTrack struct {
	track    webrtc.TrackLocal
	enabled  atomic.Bool
	stop     func()
	stopOnce sync.Once
}

// NewLocalTrack wraps track. stop releases the capture backing the track and
// may be nil.
func NewLocalTrack(track webrtc.TrackLocal, stop func()) *LocalTrack {
	lt := &LocalTrack{track: track, stop: stop}
	lt.enabled.Store(true)
	return lt
}

// Track returns the underlying track to hand to the session object.
func (t *LocalTrack) Track() webrtc.TrackLocal {
	return t.track
}

// Enabled reports whether the track is currently live.
func (t *LocalTrack) Enabled() bool {
	return t.enabled.Load()
}

// SetEnabled mutes or unmutes the track. A disabled track stays attached to
// the session; its feeder just stops writing.
func (t *LocalTrack) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// Close releases the capture behind the track. Safe to call more than once.
func (t *LocalTrack) Close() {
	t.stopOnce.Do(func() {
		if t.stop != nil {
			t.stop()
		}
	})
}

// LocalMedia owns the exclusively captured camera and microphone tracks for
// one session.
type LocalMedia struct {
	Audio *LocalTrack
	Video *LocalTrack
}

// Close releases both captures.
func (m *LocalMedia) Close() {
	if m == nil {
		return
	}
	if m.Audio != nil {
		m.Audio.Close()
	}
	if m.Video != nil {
		m.Video.Close()
	}
}

// MediaSource constructs local capture for a session: camera plus microphone
// on join, and a screen track on demand for share substitution.
type MediaSource interface {
	AcquireCamera() (*LocalMedia, error)
	AcquireScreen() (*LocalTrack, error)
}
