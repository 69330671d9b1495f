package peer

import (
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/sirupsen/logrus"
)

// SampleSource produces encoded media samples for one outgoing track.
// NextSample blocks until a sample is available and returns an error when the
// source is exhausted or closed.
type SampleSource interface {
	NextSample() (media.Sample, error)
	Close() error
}

// StartSampleTrack creates a sample-fed local track and starts a feeder
// goroutine pumping src into it. The feeder paces itself on each sample's
// duration, skips writes while the track is disabled, and exits when the
// source errors or the returned track is closed.
func StartSampleTrack(codec webrtc.RTPCodecCapability, id, streamID string, src SampleSource) (*LocalTrack, error) {
	track, err := webrtc.NewTrackLocalStaticSample(codec, id, streamID)
	if err != nil {
		return nil, NewError("create local track", err)
	}

	done := make(chan struct{})
	lt := NewLocalTrack(track, func() {
		close(done)
		src.Close()
	})

	go func() {
		log := logrus.WithField("track", id)
		for {
			select {
			case <-done:
				return
			default:
			}

			sample, err := src.NextSample()
			if err != nil {
				log.WithError(err).Debug("sample source drained")
				return
			}

			if lt.Enabled() {
				if err := track.WriteSample(sample); err != nil {
					log.WithError(err).Warn("failed to write sample")
					return
				}
			}

			if sample.Duration > 0 {
				time.Sleep(sample.Duration)
			}
		}
	}()

	return lt, nil
}

// SampleMediaSource builds sessions' local tracks from pluggable sample
// sources. Camera and microphone open on join; the screen source opens only
// when a share starts.
type SampleMediaSource struct {
	OpenMic    func() (SampleSource, error)
	OpenCamera func() (SampleSource, error)
	OpenScreen func() (SampleSource, error)
}

// AcquireCamera opens the microphone and camera sources and wraps them in
// Opus and VP8 tracks. A failure of either source releases whatever was
// already opened and reports the media as unavailable.
func (s *SampleMediaSource) AcquireCamera() (*LocalMedia, error) {
	local := &LocalMedia{}

	if s.OpenMic != nil {
		src, err := s.OpenMic()
		if err != nil {
			return nil, WrapError("acquire microphone", ErrMediaUnavailable, err.Error())
		}
		audio, err := StartSampleTrack(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
			"audio", "peerchat", src,
		)
		if err != nil {
			src.Close()
			return nil, err
		}
		local.Audio = audio
	}

	if s.OpenCamera != nil {
		src, err := s.OpenCamera()
		if err != nil {
			local.Close()
			return nil, WrapError("acquire camera", ErrMediaUnavailable, err.Error())
		}
		video, err := StartSampleTrack(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
			"video", "peerchat", src,
		)
		if err != nil {
			src.Close()
			local.Close()
			return nil, err
		}
		local.Video = video
	}

	if local.Audio == nil && local.Video == nil {
		return nil, NewError("acquire camera", ErrMediaUnavailable)
	}

	return local, nil
}

// AcquireScreen opens the screen source and wraps it in a VP8 track suitable
// for replacing the outgoing camera track.
func (s *SampleMediaSource) AcquireScreen() (*LocalTrack, error) {
	if s.OpenScreen == nil {
		return nil, NewError("acquire screen", ErrMediaUnavailable)
	}
	src, err := s.OpenScreen()
	if err != nil {
		return nil, WrapError("acquire screen", ErrMediaUnavailable, err.Error())
	}
	screen, err := StartSampleTrack(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"screen", "peerchat", src,
	)
	if err != nil {
		src.Close()
		return nil, err
	}
	return screen, nil
}
