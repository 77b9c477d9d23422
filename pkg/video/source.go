package video

import (
	"context"
	"fmt"
	"io"

	"gocv.io/x/gocv"
)

//Source decodes a video file into a finite, forward-only sequence of frames.
//It is not safe for concurrent use, one request owns one Source.
type Source struct {
	path      string
	cap       *gocv.VideoCapture
	buf       gocv.Mat
	props     Properties
	maxFrames int
	next      int
	done      bool
}

//SourceOption configures a Source
type SourceOption func(*Source)

//WithMaxFrames caps the number of frames returned by Next, values <= 0 keep the default
func WithMaxFrames(n int) SourceOption {
	return func(s *Source) {
		if n > 0 {
			s.maxFrames = n
		}
	}
}

//Open opens given video file. Returns an error wrapping ErrUnreadableVideo when the file can't be opened.
func Open(path string, opts ...SourceOption) (*Source, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrUnreadableVideo, path, err)
	}

	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w: '%s': capture not opened", ErrUnreadableVideo, path)
	}

	s := &Source{
		path:      path,
		cap:       cap,
		buf:       gocv.NewMat(),
		maxFrames: DefaultMaxFrames,
		props: Properties{
			Width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
			FPS:    cap.Get(gocv.VideoCaptureFPS),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

//Path returns the file this source reads
func (s *Source) Path() string {
	return s.path
}

//Properties returns stream's resolution and frame rate as reported by the container
func (s *Source) Properties() Properties {
	return s.props
}

//Next returns the next frame. The returned frame shares the source's buffer and is valid until the next call.
//io.EOF is returned when the stream is exhausted, when the frame cap is reached or when a frame fails to decode
//(partial results are preferred over aborting). ctx.Err() is returned once ctx is cancelled.
func (s *Source) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if s.done || s.next >= s.maxFrames {
		s.done = true
		return Frame{}, io.EOF
	}

	if ok := s.cap.Read(&s.buf); !ok || s.buf.Empty() {
		s.done = true
		return Frame{}, io.EOF
	}

	f := Frame{Index: s.next, Mat: s.buf}
	s.next++
	return f, nil
}

//Close releases the capture and the frame buffer
func (s *Source) Close() error {
	s.done = true
	s.buf.Close()
	return s.cap.Close()
}
