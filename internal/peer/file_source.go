package peer

import (
	"os"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// File-backed sample sources, used by the join command to stand in for a
// camera and microphone. VP8 video comes from an IVF container, Opus audio
// from an Ogg container.

const (
	ivfFrameDuration = 33 * time.Millisecond
	oggPageDuration  = 20 * time.Millisecond
)

type ivfSource struct {
	file   *os.File
	reader *ivfreader.IVFReader
}

// NewIVFSource opens an IVF file holding VP8 frames.
func NewIVFSource(path string) (SampleSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewError("open video file", err)
	}

	reader, _, err := ivfreader.NewWith(file)
	if err != nil {
		file.Close()
		return nil, NewError("parse video file", err)
	}

	return &ivfSource{file: file, reader: reader}, nil
}

func (s *ivfSource) NextSample() (media.Sample, error) {
	frame, _, err := s.reader.ParseNextFrame()
	if err != nil {
		return media.Sample{}, err
	}
	return media.Sample{Data: frame, Duration: ivfFrameDuration}, nil
}

func (s *ivfSource) Close() error {
	return s.file.Close()
}

type oggSource struct {
	file   *os.File
	reader *oggreader.OggReader
}

// NewOggSource opens an Ogg file holding Opus pages.
func NewOggSource(path string) (SampleSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewError("open audio file", err)
	}

	reader, _, err := oggreader.NewWith(file)
	if err != nil {
		file.Close()
		return nil, NewError("parse audio file", err)
	}

	return &oggSource{file: file, reader: reader}, nil
}

func (s *oggSource) NextSample() (media.Sample, error) {
	page, _, err := s.reader.ParseNextPage()
	if err != nil {
		return media.Sample{}, err
	}
	return media.Sample{Data: page, Duration: oggPageDuration}, nil
}

func (s *oggSource) Close() error {
	return s.file.Close()
}
